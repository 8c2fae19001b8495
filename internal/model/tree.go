package model

import "fmt"

// NodeStatus is the lifecycle state of a crawler TreeNode.
//
// Legal transitions:
//
//	collapsed -> loading -> expanded | error
//	expanded <-> collapsed
//	error -> loading (retry only)
type NodeStatus int

const (
	// StatusCollapsed is a resolved node whose children are hidden or
	// not yet materialized.
	StatusCollapsed NodeStatus = iota

	// StatusLoading is set eagerly while an expansion or retry is running.
	StatusLoading

	// StatusExpanded is a node whose children are materialized and visible.
	StatusExpanded

	// StatusError is a node whose last fetch/extract attempt failed.
	// LastError carries the message.
	StatusError
)

// String returns the lower-case status name.
func (s NodeStatus) String() string {
	switch s {
	case StatusCollapsed:
		return "collapsed"
	case StatusLoading:
		return "loading"
	case StatusExpanded:
		return "expanded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name so JSON output stays readable.
func (s NodeStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name written by MarshalText.
func (s *NodeStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "collapsed":
		*s = StatusCollapsed
	case "loading":
		*s = StatusLoading
	case "expanded":
		*s = StatusExpanded
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("unknown node status %q", text)
	}
	return nil
}

// TreeNode is one visited or pending vertex of a crawl session.
type TreeNode struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SourceURL    string `json:"source_url"`
	SearchVolume int64  `json:"search_volume"`
	LanguageHint string `json:"language_hint,omitempty"`

	// OutwardEdges is the edge list expanded from, taken from the
	// underlying record's PivotEdges.
	OutwardEdges []Edge `json:"outward_edges"`

	// ChildIDs lists materialized children in edge order. A child may be
	// owned by a different parent (cross reference).
	ChildIDs []string `json:"child_ids"`

	Status NodeStatus `json:"status"`

	// Depth is the depth of first discovery. The root is 0.
	Depth int `json:"depth"`

	// ParentID is empty only for the root.
	ParentID string `json:"parent_id,omitempty"`

	// LastError is set only while Status is StatusError.
	LastError string `json:"last_error,omitempty"`
}

// IsRoot reports whether the node has no parent.
func (n *TreeNode) IsRoot() bool {
	return n.ParentID == ""
}

// IsPolicyStop reports whether the node is in error only because the depth
// budget stopped its expansion. Its page loaded fine, so reloading it
// changes nothing.
func (n *TreeNode) IsPolicyStop() bool {
	return n.Status == StatusError && n.LastError == ErrDepthLimitReached.Error()
}

// Clone returns a deep copy of the node so callers can read it without
// sharing slices with the crawler.
func (n *TreeNode) Clone() *TreeNode {
	c := *n
	c.OutwardEdges = append([]Edge(nil), n.OutwardEdges...)
	c.ChildIDs = append([]string(nil), n.ChildIDs...)
	return &c
}

// ApplyRecord copies the display fields of a resolved record onto the node.
// ID, Depth and ParentID are left untouched.
func (n *TreeNode) ApplyRecord(rec *InterestRecord) {
	n.Name = rec.Name
	if rec.URL != "" {
		n.SourceURL = rec.URL
	}
	n.SearchVolume = rec.SearchVolume
	n.LanguageHint = rec.LanguageHint
	n.OutwardEdges = append([]Edge(nil), rec.PivotEdges...)
}
