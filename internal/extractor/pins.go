package extractor

import (
	"net/url"
	"strings"

	"github.com/nao1215/ideagraph/internal/model"
)

// Image size variants in preference order. The "orig" variant is the
// fallback for both.
var (
	imageVariants     = []string{"736x", "564x", "474x", "236x", "170x"}
	thumbnailVariants = []string{"474x", "236x", "170x"}
)

const originalVariant = "orig"

// engagementLocations are the legacy objects holding pin counters, in order.
// An empty path means the pin object itself.
var engagementLocations = [][]string{
	{"aggregated_pin_data", "aggregated_stats"},
	{"stats"},
	{},
}

// Counter key candidates per engagement field.
var (
	repinKeys   = []string{"repin_count", "repins"}
	saveKeys    = []string{"saves", "save_count"}
	commentKeys = []string{"comment_count", "comments"}
)

// TagLink is one raw annotation occurrence on a pin, before filtering.
type TagLink struct {
	Tag string
	URL string
}

// extractPins converts up to limit pin entries, in source order.
// It also returns every pin's tag/link pairs for aggregation, with relative
// links resolved against base like pivot edges.
func extractPins(items []any, limit int, base *url.URL) ([]model.PinRecord, []TagLink) {
	pins := make([]model.PinRecord, 0, min(len(items), limit))
	var pairs []TagLink

	for _, item := range items {
		if len(pins) >= limit {
			break
		}
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		pin, links, ok := extractPin(entry, base)
		if !ok {
			continue
		}
		pins = append(pins, pin)
		pairs = append(pairs, links...)
	}
	return pins, pairs
}

// extractPin reads one pin. Entries without an id are rejected.
func extractPin(entry map[string]any, base *url.URL) (model.PinRecord, []TagLink, bool) {
	id := firstString(entry, "id")
	if id == "" {
		return model.PinRecord{}, nil, false
	}

	pin := model.PinRecord{
		ID:           id,
		Title:        firstString(entry, "title", "grid_title"),
		Description:  firstString(entry, "description", "closeup_description"),
		ImageURL:     pickImage(entry, imageVariants),
		ThumbnailURL: pickImage(entry, thumbnailVariants),
		Engagement:   engagement(entry),
		CreatedAt:    firstTimestamp(entry, "created_at"),
		SourceDomain: sourceDomain(entry),
		BoardName:    boardName(entry),
	}

	links := pinTagLinks(entry, base)
	pin.Tags = pinTags(entry, links)
	return pin, links, true
}

// pickImage returns the URL of the first available variant, then "orig".
func pickImage(entry map[string]any, variants []string) string {
	images, ok := lookupMap(entry, "images")
	if !ok {
		return ""
	}
	for _, v := range variants {
		if u, ok := asString(lookupOrNil(images, v, "url")); ok {
			return u
		}
	}
	u, _ := asString(lookupOrNil(images, originalVariant, "url"))
	return u
}

// engagement collects counters; for each counter the first location that
// carries any of its keys wins.
func engagement(entry map[string]any) model.Engagement {
	locations := make([]map[string]any, 0, len(engagementLocations))
	for _, path := range engagementLocations {
		if len(path) == 0 {
			locations = append(locations, entry)
			continue
		}
		if m, ok := lookupMap(entry, path...); ok {
			locations = append(locations, m)
		}
	}

	counter := func(keys []string) int64 {
		for _, loc := range locations {
			if n, ok := firstInt64(loc, keys...); ok {
				return max(n, 0)
			}
		}
		return 0
	}

	return model.Engagement{
		RepinCount:   counter(repinKeys),
		SaveCount:    counter(saveKeys),
		CommentCount: counter(commentKeys),
	}
}

// pinTagLinks returns the pin's annotation occurrences with links, one per
// distinct tag name, in source order. A link resolveLink rejects is kept
// as found and left to the interest link filter.
func pinTagLinks(entry map[string]any, base *url.URL) []TagLink {
	items, ok := lookupSlice(entry, "pin_join", "annotations_with_links")
	if !ok {
		return nil
	}

	seen := make(map[string]bool, len(items))
	links := make([]TagLink, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tag := firstString(m, "name")
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		link := firstString(m, "url")
		if abs, ok := resolveLink(base, link); ok {
			link = abs
		}
		links = append(links, TagLink{Tag: tag, URL: link})
	}
	return links
}

// pinTags returns at most MaxTagsPerPin bare tag names. Linked annotations
// are preferred; the plain "annotations" list is the fallback.
func pinTags(entry map[string]any, links []TagLink) []string {
	tags := make([]string, 0, model.MaxTagsPerPin)
	if len(links) > 0 {
		for _, l := range links {
			if len(tags) == model.MaxTagsPerPin {
				break
			}
			tags = append(tags, l.Tag)
		}
		return tags
	}

	items, _ := entry["annotations"].([]any)
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if len(tags) == model.MaxTagsPerPin {
			break
		}
		tag, ok := asString(item)
		if !ok || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func sourceDomain(entry map[string]any) string {
	if domain := firstString(entry, "domain"); domain != "" {
		return domain
	}
	if link := firstString(entry, "link"); link != "" {
		if u, err := url.Parse(link); err == nil {
			return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		}
	}
	return ""
}

func boardName(entry map[string]any) string {
	if name, ok := asString(lookupOrNil(entry, "board", "name")); ok {
		return name
	}
	return firstString(entry, "board_name")
}
