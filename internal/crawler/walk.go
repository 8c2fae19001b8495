package crawler

import "github.com/nao1215/ideagraph/internal/model"

// RefKind classifies how a node is reached during a render walk.
type RefKind int

const (
	// RefOwned is a node rendered under the parent that discovered it.
	RefOwned RefKind = iota

	// RefCrossRef is a node discovered by another parent.
	RefCrossRef

	// RefCycle is a link back to a node on the current render path or to
	// an ancestor of the rendering node.
	RefCycle
)

// String returns the lower-case name.
func (k RefKind) String() string {
	switch k {
	case RefOwned:
		return "owned"
	case RefCrossRef:
		return "crossref"
	case RefCycle:
		return "cycle"
	default:
		return "unknown"
	}
}

// Visit is one step of a render walk.
type Visit struct {
	// Node is a copy of the visited node.
	Node *model.TreeNode

	// RenderParentID is the node under which this one is rendered; empty
	// for the root.
	RenderParentID string

	// RenderDepth is the nesting level in the rendered tree.
	RenderDepth int

	Ref RefKind
}

// Walk visits the tree depth-first from the root in child order.
//
// Only expanded owned nodes are descended into. A child whose stored parent
// differs from the rendering parent is a cross reference; a child that is on
// the render path or a stored ancestor of the rendering node is a cycle.
// Walk works on a snapshot, so fn may call back into the crawler.
func (c *Crawler) Walk(fn func(Visit)) {
	c.mu.RLock()
	rootID := c.rootID
	nodes := make(map[string]*model.TreeNode, len(c.nodes))
	for id, node := range c.nodes {
		nodes[id] = node.Clone()
	}
	c.mu.RUnlock()

	walk(rootID, nodes, fn)
}

// WalkNodes runs the same walk as Crawler.Walk over a detached node list,
// e.g. a session loaded from storage.
func WalkNodes(rootID string, nodes []*model.TreeNode, fn func(Visit)) {
	byID := make(map[string]*model.TreeNode, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node.Clone()
	}
	walk(rootID, byID, fn)
}

func walk(rootID string, nodes map[string]*model.TreeNode, fn func(Visit)) {
	root, ok := nodes[rootID]
	if !ok {
		return
	}

	var visit func(node *model.TreeNode, renderDepth int, path map[string]bool)
	visit = func(node *model.TreeNode, renderDepth int, path map[string]bool) {
		if node.Status != model.StatusExpanded {
			return
		}
		for _, childID := range node.ChildIDs {
			child, ok := nodes[childID]
			if !ok {
				continue
			}

			ref := RefOwned
			switch {
			case path[childID] || isAncestor(nodes, childID, node.ID):
				ref = RefCycle
			case child.ParentID != node.ID:
				ref = RefCrossRef
			}

			fn(Visit{Node: child, RenderParentID: node.ID, RenderDepth: renderDepth + 1, Ref: ref})

			if ref == RefOwned {
				path[childID] = true
				visit(child, renderDepth+1, path)
				delete(path, childID)
			}
		}
	}

	fn(Visit{Node: root, Ref: RefOwned})
	visit(root, 0, map[string]bool{rootID: true})
}
