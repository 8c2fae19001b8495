// Package fetcher downloads interest pages.
//
// A Fetcher issues plain GET requests with a rotated User-Agent, the
// configured Accept-Language and a per-request timeout, optionally through a
// SOCKS5 proxy. All requests share one token bucket so a crawl session stays
// under the upstream rate limit no matter how many callers use the fetcher.
//
// Every failure is a *FetchError whose Kind is one of model.ErrBlocked,
// model.ErrChallengeRequired, model.ErrTimeout or model.ErrFetchFailed.
// Redirects that land on a login or challenge page are failures even when
// the final status is 200.
package fetcher
