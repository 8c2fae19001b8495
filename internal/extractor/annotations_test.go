package extractor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ideaLink(slug string, id int) string {
	return fmt.Sprintf("https://www.pinterest.com/ideas/%s/%d/", slug, id)
}

func TestAggregateAnnotations_RankingDeterminism(t *testing.T) {
	t.Parallel()

	pairs := []TagLink{
		{Tag: "A", URL: ideaLink("a", 1)},
		{Tag: "B", URL: ideaLink("b", 2)},
		{Tag: "C", URL: ideaLink("c", 3)},
		{Tag: "A", URL: ideaLink("a", 1)},
		{Tag: "B", URL: ideaLink("b", 2)},
		{Tag: "B", URL: ideaLink("b", 2)},
		{Tag: "A", URL: ideaLink("a", 1)},
	}

	for range 10 {
		got := AggregateAnnotations(pairs, 20)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"A", "B", "C"}, []string{got[0].Tag, got[1].Tag, got[2].Tag})
		assert.Equal(t, []int{3, 3, 1}, []int{got[0].Count, got[1].Count, got[2].Count})
	}
}

func TestAggregateAnnotations_Filters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		keep bool
	}{
		{"interest link", "https://www.pinterest.com/ideas/kitchen/90001/", true},
		{"no trailing slash", "https://www.pinterest.com/ideas/kitchen/90001", true},
		{"parentheses", "https://www.pinterest.com/ideas/kitchen-(old)/90001/", false},
		{"not an ideas link", "https://www.pinterest.com/search/pins/?q=kitchen", false},
		{"non numeric tail", "https://www.pinterest.com/ideas/kitchen/", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := AggregateAnnotations([]TagLink{{Tag: "kitchen", URL: tt.url}}, 20)
			if tt.keep {
				require.Len(t, got, 1)
				assert.Equal(t, tt.url, got[0].URL)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestAggregateAnnotations_FirstValidURLWins(t *testing.T) {
	t.Parallel()

	pairs := []TagLink{
		{Tag: "kitchen", URL: "https://www.pinterest.com/ideas/kitchen-(x)/1/"},
		{Tag: "kitchen", URL: ideaLink("kitchen", 2)},
		{Tag: "kitchen", URL: ideaLink("kitchen-decor", 3)},
	}

	got := AggregateAnnotations(pairs, 20)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, ideaLink("kitchen", 2), got[0].URL)
}

func TestAggregateAnnotations_Cap(t *testing.T) {
	t.Parallel()

	var pairs []TagLink
	for i := range 30 {
		pairs = append(pairs, TagLink{Tag: fmt.Sprintf("tag-%02d", i), URL: ideaLink("t", i+1)})
	}

	got := AggregateAnnotations(pairs, 20)
	require.Len(t, got, 20)
	assert.Equal(t, "tag-00", got[0].Tag)
	assert.Equal(t, "tag-19", got[19].Tag)
}

func TestExtractPins_ResolvesRelativeAnnotationLinks(t *testing.T) {
	t.Parallel()

	items := []any{
		map[string]any{
			"id": "1",
			"pin_join": map[string]any{
				"annotations_with_links": []any{
					map[string]any{"name": "garden", "url": "/ideas/garden/918105274631/"},
					map[string]any{"name": "patio", "url": ideaLink("patio", 2)},
				},
			},
		},
		map[string]any{
			"id": "2",
			"pin_join": map[string]any{
				"annotations_with_links": []any{
					map[string]any{"name": "garden", "url": "/ideas/garden/918105274631/#top"},
				},
			},
		},
	}

	pins, pairs := extractPins(items, 10, baseURL("de.pinterest.com"))
	require.Len(t, pins, 2)

	got := AggregateAnnotations(pairs, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "garden", got[0].Tag)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "https://de.pinterest.com/ideas/garden/918105274631/", got[0].URL)
	assert.Equal(t, ideaLink("patio", 2), got[1].URL, "absolute links are kept")
}
