package report

import (
	"github.com/nao1215/ideagraph/internal/crawler"
	"github.com/nao1215/ideagraph/internal/model"
)

// Interest is a stored or freshly scraped interest with its pins.
type Interest struct {
	Record *model.InterestRecord `json:"record"`
	Pins   []model.PinRecord     `json:"pins,omitempty"`

	// ScrapeCount is the number of times the interest was stored.
	// 0 when unknown.
	ScrapeCount int `json:"scrape_count,omitempty"`
}

// Tree is a crawl session ready to be rendered.
type Tree struct {
	SessionID string            `json:"session_id"`
	RootID    string            `json:"root_id"`
	Stats     crawler.Stats     `json:"stats"`
	Nodes     []*model.TreeNode `json:"-"`
}

// NewTree snapshots a live crawl session.
func NewTree(c *crawler.Crawler) *Tree {
	nodes := c.Nodes()
	return &Tree{
		SessionID: c.SessionID(),
		RootID:    c.RootID(),
		Stats:     crawler.StatsOf(nodes),
		Nodes:     nodes,
	}
}

// NewStoredTree builds a Tree from a stored node list.
func NewStoredTree(sessionID, rootID string, nodes []*model.TreeNode) *Tree {
	return &Tree{
		SessionID: sessionID,
		RootID:    rootID,
		Stats:     crawler.StatsOf(nodes),
		Nodes:     nodes,
	}
}

// visits returns the render walk of the tree.
func (t *Tree) visits() []crawler.Visit {
	var out []crawler.Visit
	crawler.WalkNodes(t.RootID, t.Nodes, func(v crawler.Visit) {
		out = append(out, v)
	})
	return out
}

// TreeEntry is one rendered node of a nested tree.
type TreeEntry struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	URL          string       `json:"url"`
	SearchVolume int64        `json:"search_volume"`
	Status       string       `json:"status"`
	Ref          string       `json:"ref"`
	Error        string       `json:"error,omitempty"`
	Children     []*TreeEntry `json:"children,omitempty"`
}

// nested folds the pre-order walk into a nested structure.
func (t *Tree) nested() *TreeEntry {
	var (
		root  *TreeEntry
		stack []*TreeEntry
	)
	for _, v := range t.visits() {
		entry := &TreeEntry{
			ID:           v.Node.ID,
			Name:         v.Node.Name,
			URL:          v.Node.SourceURL,
			SearchVolume: v.Node.SearchVolume,
			Status:       v.Node.Status.String(),
			Ref:          v.Ref.String(),
			Error:        v.Node.LastError,
		}
		if v.RenderDepth == 0 {
			root = entry
			stack = []*TreeEntry{entry}
			continue
		}
		stack = stack[:v.RenderDepth]
		parent := stack[v.RenderDepth-1]
		parent.Children = append(parent.Children, entry)
		stack = append(stack, entry)
	}
	return root
}
