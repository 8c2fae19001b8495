package extractor

import (
	"net/url"

	"github.com/nao1215/ideagraph/internal/model"
)

// Field name candidates of the interest resource, tried in order.
var (
	nameKeys         = []string{"name", "display_name"}
	urlKeys          = []string{"url", "canonical_url"}
	searchVolumeKeys = []string{"internal_search_count", "search_volume"}
	relatedKeys      = []string{"related_interests", "related_keywords"}
	pivotKeys        = []string{"pivot_interests", "pivots"}
	lastUpdateKeys   = []string{"last_update", "updated_at"}
	edgeNameKeys     = []string{"name", "display_name", "term"}
	edgeURLKeys      = []string{"url", "canonical_url", "link"}
)

// buildRecord reads the canonical interest fields from a resolved resource.
// A missing name is the only hard failure.
func buildRecord(res map[string]any, base *url.URL, pc PageContext) (*model.InterestRecord, error) {
	name := firstString(res, nameKeys...)
	if name == "" {
		return nil, model.ErrNoName
	}

	rec := &model.InterestRecord{
		Name:         name,
		LanguageHint: pc.LanguageHint,
		Breadcrumbs:  breadcrumbs(res),
		LastUpdate:   firstTimestamp(res, lastUpdateKeys...),
		RelatedEdges: []model.Edge{},
		PivotEdges:   []model.Edge{},
	}

	if link := firstString(res, urlKeys...); link != "" {
		if resolved, ok := resolveLink(base, link); ok {
			rec.URL = resolved
		}
	}
	if rec.URL == "" {
		rec.URL = pc.SourceURL
	}

	rec.ID = firstString(res, "id")
	if rec.ID == "" {
		rec.ID, _ = IDFromURL(rec.URL)
	}

	if volume, ok := firstInt64(res, searchVolumeKeys...); ok && volume > 0 {
		rec.SearchVolume = volume
	}

	if items, ok := firstSlice(res, relatedKeys...); ok {
		rec.RelatedEdges = edges(items, base)
	}
	if items, ok := firstSlice(res, pivotKeys...); ok {
		rec.PivotEdges = edges(items, base)
	}

	return rec, nil
}

// breadcrumbs maps breadcrumb entries to names and drops empties.
// Entries may be plain strings or objects with a name.
func breadcrumbs(res map[string]any) []string {
	items, ok := res["breadcrumbs"].([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		var name string
		switch val := item.(type) {
		case map[string]any:
			name = firstString(val, "name", "display_name")
		default:
			name, _ = asString(val)
		}
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// edges keeps entries with a non-empty name and a resolvable URL,
// deduplicated by normalized URL with the first occurrence winning.
func edges(items []any, base *url.URL) []model.Edge {
	out := make([]model.Edge, 0, len(items))
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(entry, edgeNameKeys...)
		if name == "" {
			continue
		}
		link, ok := resolveLink(base, firstString(entry, edgeURLKeys...))
		if !ok {
			continue
		}
		key := NormalizeURL(link)
		if seen[key] {
			continue
		}
		seen[key] = true

		id := firstString(entry, "id")
		if id == "" {
			id, _ = IDFromURL(link)
		}
		out = append(out, model.Edge{Name: name, URL: link, ID: id})
	}
	return out
}
