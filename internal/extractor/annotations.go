package extractor

import (
	"sort"

	"github.com/nao1215/ideagraph/internal/model"
)

// AggregateAnnotations ranks tags across pins.
//
// Each occurrence whose URL is not a genuine interest link (see
// IsInterestLink) is discarded before counting. The first valid URL of a
// tag is kept as its representative. The result is sorted by count
// descending with ties in first-seen order, and truncated to limit.
func AggregateAnnotations(pairs []TagLink, limit int) []model.Annotation {
	ranked := make([]model.Annotation, 0)
	index := make(map[string]int)

	for _, p := range pairs {
		if p.Tag == "" || !IsInterestLink(p.URL) {
			continue
		}
		if i, ok := index[p.Tag]; ok {
			ranked[i].Count++
			continue
		}
		index[p.Tag] = len(ranked)
		ranked = append(ranked, model.Annotation{Tag: p.Tag, Count: 1, URL: p.URL})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
