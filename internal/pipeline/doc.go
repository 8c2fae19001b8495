// Package pipeline runs interest pages through fetch, extract and persist
// steps.
//
// Each page travels as a model.ScrapeJob. A Step reads what earlier steps
// left on the job and adds its own part; the first failure is recorded on
// the job and, by default, stops the pipeline.
//
// Design decision: The same pipeline serves three callers:
//  1. The scrape command, one job per URL, through BatchProcessor
//  2. The crawler, through Loader, one job per followed edge
//  3. Offline extraction of a saved page, with only the extract step
//
// BatchProcessor uses errgroup with a default limit of 1. Upstream rate
// limiting punishes parallel fetches, so concurrency is opt-in.
package pipeline
