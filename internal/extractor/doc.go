// Package extractor turns one fetched interest page into a canonical
// model.InterestRecord plus its pins.
//
// # Pipeline
//
// Extraction runs in a fixed order:
//  1. Locate the embedded state blob by trying known script markers in order
//  2. Parse the blob as JSON (numbers kept as json.Number)
//  3. Resolve the interest resource through an ordered list of path strategies
//  4. Read the interest fields and its related and pivot edges
//  5. Resolve the sibling pins resource and extract each pin
//  6. Aggregate pin annotations into a ranked list
//
// The platform has shipped several embedding conventions and resource key
// variants. Each one is a separate marker or strategy value, so supporting a
// new shape means appending one entry rather than adding branches.
//
// # Errors
//
// Every failure is returned as *Error whose Kind is one of the model
// sentinels (model.ErrNoEmbeddedState, model.ErrBlocked, ...). Use errors.Is
// to classify. The extractor never retries.
//
// # Usage
//
//	ex := extractor.New()
//	res, err := ex.Extract(body, extractor.PageContext{
//	    TargetDomain: "https://www.pinterest.com",
//	    LanguageHint: "en",
//	})
package extractor
