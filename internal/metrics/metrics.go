// Package metrics defines Prometheus metrics for ideagraph.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/ideagraph/internal/model"
)

var (
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ideagraph_fetch_duration_seconds",
			Help:    "Page fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideagraph_fetches_total",
			Help: "Total page fetches by outcome",
		},
		[]string{"outcome"},
	)

	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideagraph_extractions_total",
			Help: "Total extractions by marker and outcome",
		},
		[]string{"marker", "outcome"},
	)

	CrawlEdgesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideagraph_crawl_edges_total",
			Help: "Outward edges visited during expansion, by result",
		},
		[]string{"result"},
	)

	CrawlNodes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ideagraph_crawl_nodes",
			Help: "Nodes in the current crawl session by status",
		},
		[]string{"status"},
	)

	PersistedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideagraph_persisted_interests_total",
			Help: "Interest upserts by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		FetchDuration, FetchesTotal,
		ExtractionsTotal,
		CrawlEdgesTotal, CrawlNodes,
		PersistedTotal,
	)
}

// Edge results for CrawlEdgesTotal.
const (
	EdgeFetched = "fetched"
	EdgeKnown   = "known"
	EdgeSkipped = "skipped"
	EdgeFailed  = "failed"
)

// Outcome maps an error to a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrChallengeRequired):
		return "challenge"
	case errors.Is(err, model.ErrBlocked):
		return "blocked"
	case errors.Is(err, model.ErrTimeout):
		return "timeout"
	case errors.Is(err, model.ErrNoEmbeddedState):
		return "no_embedded_state"
	case errors.Is(err, model.ErrMalformedState):
		return "malformed_state"
	case errors.Is(err, model.ErrResourceNotFound):
		return "resource_not_found"
	case errors.Is(err, model.ErrNoName):
		return "no_name"
	case errors.Is(err, model.ErrDepthLimitReached):
		return "depth_limit"
	default:
		return "failed"
	}
}
