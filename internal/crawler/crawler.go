package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/ideagraph/internal/extractor"
	"github.com/nao1215/ideagraph/internal/metrics"
	"github.com/nao1215/ideagraph/internal/model"
)

// Session defaults.
const (
	DefaultMaxDepth = 10
	DefaultMaxNodes = 200
	DefaultDelay    = 300 * time.Millisecond
)

// Loader fetches and extracts one interest page.
type Loader interface {
	Load(ctx context.Context, pageURL string) (*model.InterestRecord, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, pageURL string) (*model.InterestRecord, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, pageURL string) (*model.InterestRecord, error) {
	return f(ctx, pageURL)
}

// Stats summarizes the session.
type Stats struct {
	TotalNodes    int `json:"total_nodes"`
	MaxDepth      int `json:"max_depth"`
	LoadingCount  int `json:"loading_count"`
	ErrorCount    int `json:"error_count"`
	ExpandedCount int `json:"expanded_count"`
}

// Crawler is one crawl session over the interest graph.
type Crawler struct {
	loader    Loader
	maxDepth  int
	maxNodes  int
	delay     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	resolveID func(edge model.Edge) (string, bool)
	logger    *slog.Logger
	sessionID string
	sem       *semaphore.Weighted
	aborted   atomic.Bool

	mu     sync.RWMutex
	nodes  map[string]*model.TreeNode
	order  []string
	rootID string

	// unfinished holds nodes whose edge loop was cut short by cancellation
	// or Abort. Their next Expand walks the edges again.
	unfinished map[string]bool
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth sets the depth at which expansion stops.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithMaxNodes sets the node budget of the session.
func WithMaxNodes(n int) Option {
	return func(c *Crawler) {
		c.maxNodes = n
	}
}

// WithDelay sets the pause between two edge fetches.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		c.delay = d
	}
}

// WithSleeper replaces the delay implementation. Tests use it to record
// pauses instead of waiting.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Crawler) {
		c.sleep = sleep
	}
}

// WithIDResolver replaces how an edge is mapped to a graph id.
func WithIDResolver(resolve func(edge model.Edge) (string, bool)) Option {
	return func(c *Crawler) {
		c.resolveID = resolve
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates an empty session. Call Seed before anything else.
func New(loader Loader, opts ...Option) *Crawler {
	c := &Crawler{
		loader:    loader,
		maxDepth:  DefaultMaxDepth,
		maxNodes:  DefaultMaxNodes,
		delay:     DefaultDelay,
		sleep:     sleepContext,
		resolveID: edgeID,
		sessionID: uuid.NewString(),
		sem:       semaphore.NewWeighted(1),
		nodes:     make(map[string]*model.TreeNode),

		unfinished: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("crawl_session", c.sessionID)
	return c
}

// edgeID prefers the id carried by the edge and falls back to the URL shape.
func edgeID(edge model.Edge) (string, bool) {
	if edge.ID != "" {
		return edge.ID, true
	}
	return extractor.IDFromURL(edge.URL)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SessionID returns the random id of this session, used in logs.
func (c *Crawler) SessionID() string {
	return c.sessionID
}

// Seed loads the root page. On failure no node is created.
func (c *Crawler) Seed(ctx context.Context, pageURL string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)

	c.mu.RLock()
	seeded := c.rootID != ""
	c.mu.RUnlock()
	if seeded {
		return "", ErrAlreadySeeded
	}

	rec, err := c.loader.Load(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("seed %s: %w", pageURL, err)
	}

	id := rec.ID
	if id == "" {
		id, _ = extractor.IDFromURL(rec.URL)
	}
	if id == "" {
		id, _ = extractor.IDFromURL(pageURL)
	}
	if id == "" {
		return "", fmt.Errorf("seed %s: %w", pageURL, ErrNoID)
	}

	root := &model.TreeNode{
		ID:        id,
		SourceURL: pageURL,
		ChildIDs:  []string{},
		Status:    model.StatusCollapsed,
	}
	root.ApplyRecord(rec)

	c.mu.Lock()
	c.nodes[id] = root
	c.order = append(c.order, id)
	c.rootID = id
	c.mu.Unlock()

	c.logger.Info("seeded crawl", "id", id, "name", root.Name, "edges", len(root.OutwardEdges))
	c.publishGauges()
	return id, nil
}

// Expand materializes the children of a node.
//
// An expanded node is collapsed instead, and a collapsed node whose
// children are already known is expanded without any fetch. A loading node
// is left alone. Fetch failures never abort the loop; each one becomes an
// error node. The returned error is reserved for misuse, cancellation and
// Abort. In those cases the children loaded so far are committed, the node
// stays collapsed and the next Expand resumes its edge loop, skipping the
// ids already known.
func (c *Crawler) Expand(ctx context.Context, id string) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	c.mu.Lock()
	node, ok := c.nodes[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	switch {
	case node.Status == model.StatusLoading:
		c.mu.Unlock()
		return nil
	case node.Status == model.StatusExpanded:
		node.Status = model.StatusCollapsed
		c.mu.Unlock()
		return nil
	case node.Status == model.StatusError:
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNodeFailed, id)
	case len(node.ChildIDs) > 0 && !c.unfinished[id]:
		node.Status = model.StatusExpanded
		c.mu.Unlock()
		return nil
	}
	node.Status = model.StatusLoading
	depth := node.Depth
	edges := append([]model.Edge(nil), node.OutwardEdges...)
	c.mu.Unlock()
	c.publishGauges()

	if depth >= c.maxDepth {
		c.mu.Lock()
		node.Status = model.StatusError
		node.LastError = model.ErrDepthLimitReached.Error()
		c.mu.Unlock()
		c.logger.Info("depth limit reached", "id", id, "depth", depth)
		c.publishGauges()
		return nil
	}

	children, pending, stopErr := c.visitEdges(ctx, id, depth, edges)

	c.mu.Lock()
	for _, child := range pending {
		if _, exists := c.nodes[child.ID]; exists {
			continue
		}
		c.nodes[child.ID] = child
		c.order = append(c.order, child.ID)
	}
	node.ChildIDs = children
	node.LastError = ""
	if stopErr != nil {
		node.Status = model.StatusCollapsed
		c.unfinished[id] = true
	} else {
		node.Status = model.StatusExpanded
		delete(c.unfinished, id)
	}
	c.mu.Unlock()

	if stopErr != nil {
		c.logger.Warn("expansion interrupted", "id", id, "children", len(children), "error", stopErr)
		c.publishGauges()
		return stopErr
	}

	c.logger.Info("expanded node",
		"id", id,
		"children", len(children),
		"new", len(pending),
		"edges", len(edges),
	)
	c.publishGauges()
	return nil
}

// visitEdges runs the sequential edge loop. It returns the child ids in
// edge order and the newly created nodes, uncommitted.
func (c *Crawler) visitEdges(ctx context.Context, parentID string, depth int, edges []model.Edge) ([]string, []*model.TreeNode, error) {
	children := make([]string, 0, len(edges))
	linked := make(map[string]bool, len(edges))
	pending := make([]*model.TreeNode, 0, len(edges))
	created := make(map[string]bool, len(edges))

	for i, edge := range edges {
		if c.aborted.Load() {
			return children, pending, ErrAborted
		}
		if err := ctx.Err(); err != nil {
			return children, pending, err
		}

		c.mu.RLock()
		total := len(c.nodes) + len(pending)
		c.mu.RUnlock()
		if total >= c.maxNodes {
			c.logger.Info("node budget reached", "id", parentID, "max_nodes", c.maxNodes, "remaining_edges", len(edges)-i)
			break
		}

		childID, ok := c.resolveID(edge)
		if !ok {
			metrics.CrawlEdgesTotal.WithLabelValues(metrics.EdgeSkipped).Inc()
			c.logger.Debug("edge without id", "url", edge.URL)
			continue
		}

		if created[childID] || c.known(childID) {
			if !linked[childID] {
				linked[childID] = true
				children = append(children, childID)
			}
			metrics.CrawlEdgesTotal.WithLabelValues(metrics.EdgeKnown).Inc()
			continue
		}

		child, err := c.loadChild(ctx, parentID, depth+1, childID, edge)
		if err != nil {
			return children, pending, err
		}
		pending = append(pending, child)
		created[childID] = true
		linked[childID] = true
		children = append(children, childID)

		if i < len(edges)-1 {
			if err := c.sleep(ctx, c.delay); err != nil {
				return children, pending, err
			}
		}
	}
	return children, pending, nil
}

// loadChild fetches one edge target. A failure yields an error node at the
// same position, unless the load failed because the session was cancelled
// or aborted: then no node is made and the stop reason is returned.
func (c *Crawler) loadChild(ctx context.Context, parentID string, depth int, id string, edge model.Edge) (*model.TreeNode, error) {
	child := &model.TreeNode{
		ID:           id,
		Name:         edge.Name,
		SourceURL:    edge.URL,
		OutwardEdges: []model.Edge{},
		ChildIDs:     []string{},
		Depth:        depth,
		ParentID:     parentID,
	}

	rec, err := c.loader.Load(ctx, edge.URL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if c.aborted.Load() {
			return nil, ErrAborted
		}
		child.Status = model.StatusError
		child.LastError = err.Error()
		metrics.CrawlEdgesTotal.WithLabelValues(metrics.EdgeFailed).Inc()
		c.logger.Warn("edge fetch failed", "id", id, "url", edge.URL, "error", err)
		return child, nil
	}

	child.ApplyRecord(rec)
	child.Status = model.StatusCollapsed
	metrics.CrawlEdgesTotal.WithLabelValues(metrics.EdgeFetched).Inc()
	return child, nil
}

func (c *Crawler) known(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.nodes[id]
	return ok
}

// Collapse hides the children of an expanded node. Other states are left
// alone.
func (c *Crawler) Collapse(ctx context.Context, id string) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	c.mu.Lock()
	defer c.mu.Unlock()
	node, ok := c.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if node.Status == model.StatusExpanded {
		node.Status = model.StatusCollapsed
	}
	return nil
}

// Retry reloads an error node from its own URL.
//
// On success the node is updated in place and becomes collapsed, ready to
// be expanded. On failure its error message is replaced. Parent and depth
// never change.
func (c *Crawler) Retry(ctx context.Context, id string) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	c.mu.Lock()
	node, ok := c.nodes[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if node.Status != model.StatusError || node.IsRoot() {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrNotRetryable, id, node.Status)
	}
	node.Status = model.StatusLoading
	sourceURL := node.SourceURL
	c.mu.Unlock()
	c.publishGauges()

	rec, err := c.loader.Load(ctx, sourceURL)

	c.mu.Lock()
	if err != nil {
		node.Status = model.StatusError
		node.LastError = err.Error()
	} else {
		node.ApplyRecord(rec)
		node.Status = model.StatusCollapsed
		node.LastError = ""
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("retry failed", "id", id, "error", err)
	} else {
		c.logger.Info("retry succeeded", "id", id)
	}
	c.publishGauges()
	return nil
}

// Abort stops any running and future expansion at the next edge.
func (c *Crawler) Abort() {
	c.aborted.Store(true)
}

// Aborted reports whether Abort was called.
func (c *Crawler) Aborted() bool {
	return c.aborted.Load()
}

// RootID returns the root id, empty before Seed.
func (c *Crawler) RootID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rootID
}

// Node returns a copy of one node.
func (c *Crawler) Node(id string) (*model.TreeNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	node, ok := c.nodes[id]
	if !ok {
		return nil, false
	}
	return node.Clone(), true
}

// Nodes returns copies of all nodes in discovery order.
func (c *Crawler) Nodes() []*model.TreeNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*model.TreeNode, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.nodes[id].Clone())
	}
	return out
}

// Stats returns aggregate counters over the node map.
func (c *Crawler) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{}
	for _, node := range c.nodes {
		s.add(node)
	}
	return s
}

// StatsOf computes Stats over a node list, such as a stored session.
func StatsOf(nodes []*model.TreeNode) Stats {
	s := Stats{}
	for _, node := range nodes {
		s.add(node)
	}
	return s
}

func (s *Stats) add(node *model.TreeNode) {
	s.TotalNodes++
	s.MaxDepth = max(s.MaxDepth, node.Depth)
	switch node.Status {
	case model.StatusLoading:
		s.LoadingCount++
	case model.StatusError:
		s.ErrorCount++
	case model.StatusExpanded:
		s.ExpandedCount++
	}
}

// IsAncestor reports whether candidate is a strict ancestor of id along
// stored parent pointers.
func (c *Crawler) IsAncestor(candidate, id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return isAncestor(c.nodes, candidate, id)
}

func isAncestor(nodes map[string]*model.TreeNode, candidate, id string) bool {
	node, ok := nodes[id]
	if !ok {
		return false
	}
	seen := map[string]bool{id: true}
	for p := node.ParentID; p != ""; {
		if p == candidate {
			return true
		}
		if seen[p] {
			return false
		}
		seen[p] = true
		parent, ok := nodes[p]
		if !ok {
			return false
		}
		p = parent.ParentID
	}
	return false
}

// ExpandTree expands owned collapsed nodes breadth-first from the root, up
// to levels expansion levels. Cross references are not followed.
func (c *Crawler) ExpandTree(ctx context.Context, levels int) error {
	rootID := c.RootID()
	if rootID == "" {
		return fmt.Errorf("%w: not seeded", ErrNodeNotFound)
	}

	type item struct {
		id    string
		level int
	}
	queue := []item{{id: rootID}}
	visited := map[string]bool{rootID: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.level >= levels {
			continue
		}

		node, ok := c.Node(cur.id)
		if !ok {
			continue
		}
		if node.Status == model.StatusCollapsed {
			if err := c.Expand(ctx, cur.id); err != nil && !errors.Is(err, ErrNodeFailed) {
				return err
			}
			if node, ok = c.Node(cur.id); !ok {
				continue
			}
		}
		if node.Status != model.StatusExpanded {
			continue
		}

		for _, childID := range node.ChildIDs {
			child, ok := c.Node(childID)
			if !ok || visited[childID] || child.ParentID != cur.id {
				continue
			}
			visited[childID] = true
			queue = append(queue, item{id: childID, level: cur.level + 1})
		}
	}
	return nil
}

// publishGauges mirrors Stats into the crawl gauges.
func (c *Crawler) publishGauges() {
	s := c.Stats()
	metrics.CrawlNodes.WithLabelValues("total").Set(float64(s.TotalNodes))
	metrics.CrawlNodes.WithLabelValues(model.StatusLoading.String()).Set(float64(s.LoadingCount))
	metrics.CrawlNodes.WithLabelValues(model.StatusError.String()).Set(float64(s.ErrorCount))
	metrics.CrawlNodes.WithLabelValues(model.StatusExpanded.String()).Set(float64(s.ExpandedCount))
}
