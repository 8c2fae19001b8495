package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/ideagraph/internal/model"
)

// Interest ids used across tests.
const (
	rootID = "100"
	idA    = "101"
	idB    = "102"
	idC    = "103"
)

func ideaURL(id string) string {
	return "https://www.pinterest.com/ideas/topic-" + id + "/" + id + "/"
}

// fakeLoader serves records by URL. Queued errors are returned first, one
// per call, before the record is served.
type fakeLoader struct {
	mu      sync.Mutex
	records map[string]*model.InterestRecord
	errs    map[string][]error
	calls   []string
	hook    func(pageURL string)
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		records: make(map[string]*model.InterestRecord),
		errs:    make(map[string][]error),
	}
}

// add registers an interest whose pivot edges point at the given ids.
func (f *fakeLoader) add(id string, pivots ...string) {
	edges := make([]model.Edge, 0, len(pivots))
	for _, p := range pivots {
		edges = append(edges, model.Edge{Name: "topic " + p, URL: ideaURL(p)})
	}
	f.records[ideaURL(id)] = &model.InterestRecord{
		ID:         id,
		Name:       "topic " + id,
		URL:        ideaURL(id),
		PivotEdges: edges,
	}
}

func (f *fakeLoader) fail(id string, errs ...error) {
	f.errs[ideaURL(id)] = append(f.errs[ideaURL(id)], errs...)
}

func (f *fakeLoader) Load(_ context.Context, pageURL string) (*model.InterestRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageURL)
	hook := f.hook
	var err error
	if q := f.errs[pageURL]; len(q) > 0 {
		err, f.errs[pageURL] = q[0], q[1:]
	}
	rec := f.records[pageURL]
	f.mu.Unlock()

	if hook != nil {
		hook(pageURL)
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("load %s: %w", pageURL, model.ErrNoEmbeddedState)
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeLoader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestCrawler(loader Loader, opts ...Option) *Crawler {
	base := []Option{
		WithSleeper(noSleep),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(loader, append(base, opts...)...)
}

func seed(t *testing.T, c *Crawler) string {
	t.Helper()
	id, err := c.Seed(context.Background(), ideaURL(rootID))
	require.NoError(t, err)
	require.Equal(t, rootID, id)
	return id
}

func mustNode(t *testing.T, c *Crawler, id string) *model.TreeNode {
	t.Helper()
	node, ok := c.Node(id)
	require.True(t, ok, "node %s", id)
	return node
}

func TestSeed(t *testing.T) {
	t.Parallel()

	t.Run("creates collapsed root", func(t *testing.T) {
		t.Parallel()

		loader := newFakeLoader()
		loader.add(rootID, idA)
		c := newTestCrawler(loader)

		seed(t, c)
		root := mustNode(t, c, rootID)
		assert.Equal(t, model.StatusCollapsed, root.Status)
		assert.Equal(t, 0, root.Depth)
		assert.True(t, root.IsRoot())
		assert.Equal(t, "topic "+rootID, root.Name)
		assert.Len(t, root.OutwardEdges, 1)
		assert.Equal(t, rootID, c.RootID())
		assert.NotEmpty(t, c.SessionID())
	})

	t.Run("failure creates no node", func(t *testing.T) {
		t.Parallel()

		loader := newFakeLoader()
		loader.add(rootID)
		loader.fail(rootID, model.ErrBlocked)
		c := newTestCrawler(loader)

		_, err := c.Seed(context.Background(), ideaURL(rootID))
		require.ErrorIs(t, err, model.ErrBlocked)
		assert.Empty(t, c.RootID())
		assert.Empty(t, c.Nodes())
	})

	t.Run("second seed is rejected", func(t *testing.T) {
		t.Parallel()

		loader := newFakeLoader()
		loader.add(rootID)
		c := newTestCrawler(loader)

		seed(t, c)
		_, err := c.Seed(context.Background(), ideaURL(rootID))
		assert.ErrorIs(t, err, ErrAlreadySeeded)
	})
}

func TestExpand_DedupAcrossParents(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA, idB)
	loader.add(idA, idC)
	loader.add(idB, idC)
	loader.add(idC)
	c := newTestCrawler(loader)
	ctx := context.Background()

	seed(t, c)
	require.NoError(t, c.Expand(ctx, rootID))
	require.NoError(t, c.Expand(ctx, idA))
	require.NoError(t, c.Expand(ctx, idB))

	assert.Equal(t, 4, c.Stats().TotalNodes)

	count := 0
	for _, n := range c.Nodes() {
		if n.ID == idC {
			count++
		}
	}
	assert.Equal(t, 1, count)

	assert.Contains(t, mustNode(t, c, idA).ChildIDs, idC)
	assert.Contains(t, mustNode(t, c, idB).ChildIDs, idC)

	nodeC := mustNode(t, c, idC)
	assert.Equal(t, idA, nodeC.ParentID, "first discovery keeps ownership")
	assert.Equal(t, 2, nodeC.Depth)

	// root + A + B + C, C fetched once.
	assert.Equal(t, 4, loader.callCount())
}

func TestExpand_DepthLimit(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA)
	loader.add(idA, idB)
	loader.add(idB)
	c := newTestCrawler(loader, WithMaxDepth(1))
	ctx := context.Background()

	seed(t, c)
	require.NoError(t, c.Expand(ctx, rootID))
	calls := loader.callCount()

	require.NoError(t, c.Expand(ctx, idA))

	assert.Equal(t, calls, loader.callCount(), "no network call at the depth limit")
	nodeA := mustNode(t, c, idA)
	assert.Equal(t, model.StatusError, nodeA.Status)
	assert.Equal(t, model.ErrDepthLimitReached.Error(), nodeA.LastError)
	assert.Empty(t, nodeA.ChildIDs)
	assert.Equal(t, 2, c.Stats().TotalNodes)
}

func TestExpand_NodeBudget(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	pivots := make([]string, 0, 10)
	for i := range 10 {
		id := fmt.Sprintf("2%02d", i)
		pivots = append(pivots, id)
		loader.add(id)
	}
	loader.add(rootID, pivots...)
	c := newTestCrawler(loader, WithMaxNodes(5))

	seed(t, c)
	require.NoError(t, c.Expand(context.Background(), rootID))

	assert.Equal(t, 5, c.Stats().TotalNodes)
	root := mustNode(t, c, rootID)
	assert.Equal(t, model.StatusExpanded, root.Status)
	assert.Equal(t, pivots[:4], root.ChildIDs)
	assert.Equal(t, 5, loader.callCount())

	// Collapse and re-expand keeps the children without fetching.
	require.NoError(t, c.Collapse(context.Background(), rootID))
	require.NoError(t, c.Expand(context.Background(), rootID))
	assert.Equal(t, pivots[:4], mustNode(t, c, rootID).ChildIDs)
	assert.Equal(t, 5, loader.callCount())
}

func TestExpand_FailuresBecomeErrorNodes(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA, idB, idC)
	loader.add(idA)
	loader.add(idB)
	loader.add(idC)
	loader.fail(idB, model.ErrChallengeRequired)
	c := newTestCrawler(loader)

	seed(t, c)
	require.NoError(t, c.Expand(context.Background(), rootID))

	root := mustNode(t, c, rootID)
	assert.Equal(t, []string{idA, idB, idC}, root.ChildIDs)

	nodeB := mustNode(t, c, idB)
	assert.Equal(t, model.StatusError, nodeB.Status)
	assert.Equal(t, model.ErrChallengeRequired.Error(), nodeB.LastError)
	assert.Equal(t, rootID, nodeB.ParentID)
	assert.Equal(t, 1, nodeB.Depth)
	assert.Equal(t, model.StatusCollapsed, mustNode(t, c, idC).Status)

	stats := c.Stats()
	assert.Equal(t, 1, stats.ErrorCount)
	assert.Equal(t, 1, stats.ExpandedCount)
	assert.Equal(t, 1, stats.MaxDepth)

	err := c.Expand(context.Background(), idB)
	assert.ErrorIs(t, err, ErrNodeFailed)
}

func TestExpand_ZeroEdges(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID)
	c := newTestCrawler(loader)

	seed(t, c)
	require.NoError(t, c.Expand(context.Background(), rootID))

	root := mustNode(t, c, rootID)
	assert.Equal(t, model.StatusExpanded, root.Status)
	assert.Empty(t, root.ChildIDs)
	assert.Empty(t, root.LastError)
}

func TestExpand_ToggleWithoutNetwork(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA)
	loader.add(idA)
	c := newTestCrawler(loader)
	ctx := context.Background()

	seed(t, c)
	require.NoError(t, c.Expand(ctx, rootID))
	calls := loader.callCount()

	require.NoError(t, c.Expand(ctx, rootID))
	assert.Equal(t, model.StatusCollapsed, mustNode(t, c, rootID).Status)

	require.NoError(t, c.Expand(ctx, rootID))
	assert.Equal(t, model.StatusExpanded, mustNode(t, c, rootID).Status)
	assert.Equal(t, calls, loader.callCount())

	assert.ErrorIs(t, c.Expand(ctx, "999"), ErrNodeNotFound)
	assert.ErrorIs(t, c.Collapse(ctx, "999"), ErrNodeNotFound)
}

func TestExpand_DelayAndSkippedEdges(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(idA)
	loader.add(idB)
	loader.records[ideaURL(rootID)] = &model.InterestRecord{
		ID:   rootID,
		Name: "root",
		PivotEdges: []model.Edge{
			{Name: "a", URL: ideaURL(idA)},
			{Name: "no id", URL: "https://www.pinterest.com/search/pins/?q=kitchen"},
			{Name: "a again", URL: ideaURL(idA) + "?utm=1"},
			{Name: "b", URL: "https://example.com/anything", ID: idB},
			{Name: "self", URL: ideaURL(rootID)},
		},
	}

	var (
		mu     sync.Mutex
		sleeps []time.Duration
	)
	c := newTestCrawler(loader,
		WithDelay(250*time.Millisecond),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			mu.Lock()
			sleeps = append(sleeps, d)
			mu.Unlock()
			return nil
		}),
	)

	seed(t, c)
	require.NoError(t, c.Expand(context.Background(), rootID))

	root := mustNode(t, c, rootID)
	assert.Equal(t, []string{idA, idB, rootID}, root.ChildIDs)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, sleeps,
		"one pause after each fetch that is not the last edge")
}

func TestExpand_LoadingIsVisibleDuringLoop(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA)
	loader.add(idA)
	c := newTestCrawler(loader)
	seed(t, c)

	var observed model.NodeStatus
	var childVisible bool
	loader.hook = func(string) {
		observed = mustNode(t, c, rootID).Status
		_, childVisible = c.Node(idA)
	}

	require.NoError(t, c.Expand(context.Background(), rootID))
	assert.Equal(t, model.StatusLoading, observed)
	assert.False(t, childVisible, "children are committed after the loop")
	assert.Equal(t, 1, c.Stats().ExpandedCount)
}

func TestExpand_Abort(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA, idB, idC)
	loader.add(idA)
	loader.add(idB)
	loader.add(idC)
	c := newTestCrawler(loader)
	seed(t, c)

	loader.hook = func(pageURL string) {
		if pageURL == ideaURL(idB) {
			c.Abort()
		}
	}

	err := c.Expand(context.Background(), rootID)
	require.ErrorIs(t, err, ErrAborted)
	assert.True(t, c.Aborted())

	root := mustNode(t, c, rootID)
	assert.Equal(t, model.StatusCollapsed, root.Status, "an aborted loop is not a finished expansion")
	assert.Equal(t, []string{idA, idB}, root.ChildIDs)
	_, ok := c.Node(idC)
	assert.False(t, ok)
}

func TestExpand_CanceledMidLoopResumes(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA, idB, idC)
	loader.add(idA)
	loader.add(idB)
	loader.add(idC)
	// A real loader reports the cancellation as its own error.
	loader.fail(idB, fmt.Errorf("fetch: %w", context.Canceled))
	c := newTestCrawler(loader)
	seed(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loader.hook = func(pageURL string) {
		if pageURL == ideaURL(idB) {
			cancel()
		}
	}

	err := c.Expand(ctx, rootID)
	require.ErrorIs(t, err, context.Canceled)

	root := mustNode(t, c, rootID)
	assert.Equal(t, model.StatusCollapsed, root.Status)
	assert.Equal(t, []string{idA}, root.ChildIDs)
	_, ok := c.Node(idB)
	assert.False(t, ok, "a cancelled load must not become an error node")
	assert.Zero(t, c.Stats().ErrorCount)

	loader.hook = nil
	require.NoError(t, c.Expand(context.Background(), rootID))

	root = mustNode(t, c, rootID)
	assert.Equal(t, model.StatusExpanded, root.Status)
	assert.Equal(t, []string{idA, idB, idC}, root.ChildIDs)
	assert.Equal(t, model.StatusCollapsed, mustNode(t, c, idC).Status)
	// seed, A, cancelled B, then B and C; A is not fetched again.
	assert.Equal(t, 5, loader.callCount())

	require.NoError(t, c.Collapse(context.Background(), rootID))
	require.NoError(t, c.Expand(context.Background(), rootID))
	assert.Equal(t, 5, loader.callCount(), "a finished expansion toggles without fetching")
}

func TestExpand_CustomIDResolver(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA, idB)
	loader.add(idA)
	loader.add(idB)

	// Keys nodes by keyword slug and ignores edges to idB.
	bySlug := func(edge model.Edge) (string, bool) {
		if strings.HasSuffix(edge.Name, idB) {
			return "", false
		}
		return "kw-" + strings.ReplaceAll(edge.Name, " ", "-"), true
	}
	c := newTestCrawler(loader, WithIDResolver(bySlug))
	seed(t, c)

	require.NoError(t, c.Expand(context.Background(), rootID))

	slug := "kw-topic-" + idA
	assert.Equal(t, []string{slug}, mustNode(t, c, rootID).ChildIDs)
	child := mustNode(t, c, slug)
	assert.Equal(t, model.StatusCollapsed, child.Status)
	assert.Equal(t, rootID, child.ParentID)
	assert.Equal(t, 2, loader.callCount(), "the rejected edge is never fetched")
}

func TestExpand_ContextCanceled(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA)
	c := newTestCrawler(loader)
	seed(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Expand(ctx, rootID)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRetry(t *testing.T) {
	t.Parallel()

	t.Run("repeated failures overwrite the message", func(t *testing.T) {
		t.Parallel()

		loader := newFakeLoader()
		loader.add(rootID, idA)
		loader.add(idA)
		loader.fail(idA,
			errors.New("initial failure"),
			errors.New("first retry failure"),
			errors.New("second retry failure"),
		)
		c := newTestCrawler(loader)
		ctx := context.Background()

		seed(t, c)
		require.NoError(t, c.Expand(ctx, rootID))
		require.Equal(t, "initial failure", mustNode(t, c, idA).LastError)

		require.NoError(t, c.Retry(ctx, idA))
		require.NoError(t, c.Retry(ctx, idA))

		nodeA := mustNode(t, c, idA)
		assert.Equal(t, model.StatusError, nodeA.Status)
		assert.Equal(t, "second retry failure", nodeA.LastError)
	})

	t.Run("success collapses in place", func(t *testing.T) {
		t.Parallel()

		loader := newFakeLoader()
		loader.add(rootID, idA)
		loader.add(idA, idB)
		loader.fail(idA, model.ErrTimeout)
		c := newTestCrawler(loader)
		ctx := context.Background()

		seed(t, c)
		require.NoError(t, c.Expand(ctx, rootID))
		require.NoError(t, c.Retry(ctx, idA))

		nodeA := mustNode(t, c, idA)
		assert.Equal(t, model.StatusCollapsed, nodeA.Status)
		assert.Empty(t, nodeA.LastError)
		assert.Equal(t, rootID, nodeA.ParentID)
		assert.Equal(t, 1, nodeA.Depth)
		assert.Len(t, nodeA.OutwardEdges, 1)

		require.NoError(t, c.Expand(ctx, idA))
		assert.Equal(t, []string{idB}, mustNode(t, c, idA).ChildIDs)
	})

	t.Run("only error nodes with a parent", func(t *testing.T) {
		t.Parallel()

		loader := newFakeLoader()
		loader.add(rootID, idA)
		loader.add(idA)
		c := newTestCrawler(loader)
		ctx := context.Background()

		seed(t, c)
		assert.ErrorIs(t, c.Retry(ctx, rootID), ErrNotRetryable)
		require.NoError(t, c.Expand(ctx, rootID))
		assert.ErrorIs(t, c.Retry(ctx, idA), ErrNotRetryable)
		assert.ErrorIs(t, c.Retry(ctx, "999"), ErrNodeNotFound)
	})
}

func TestWalk_CrossReferencesAndCycles(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA, idB)
	loader.add(idA, idC)
	loader.add(idB, idC, rootID)
	loader.add(idC)
	c := newTestCrawler(loader)
	ctx := context.Background()

	seed(t, c)
	require.NoError(t, c.Expand(ctx, rootID))
	require.NoError(t, c.Expand(ctx, idA))
	require.NoError(t, c.Expand(ctx, idB))

	var got []string
	c.Walk(func(v Visit) {
		got = append(got, fmt.Sprintf("%s:%s:%d", v.Node.ID, v.Ref, v.RenderDepth))
	})

	assert.Equal(t, []string{
		rootID + ":owned:0",
		idA + ":owned:1",
		idC + ":owned:2",
		idB + ":owned:1",
		idC + ":crossref:2",
		rootID + ":cycle:2",
	}, got)
}

func TestWalk_SkipsCollapsedSubtrees(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA)
	loader.add(idA, idB)
	loader.add(idB)
	c := newTestCrawler(loader)
	ctx := context.Background()

	seed(t, c)
	require.NoError(t, c.Expand(ctx, rootID))
	require.NoError(t, c.Expand(ctx, idA))
	require.NoError(t, c.Collapse(ctx, idA))

	var ids []string
	c.Walk(func(v Visit) { ids = append(ids, v.Node.ID) })
	assert.Equal(t, []string{rootID, idA}, ids)
}

func TestWalkNodes_MatchesLiveWalk(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA, idB)
	loader.add(idA, idC)
	loader.add(idB, idC, rootID)
	loader.add(idC)
	c := newTestCrawler(loader)
	ctx := context.Background()

	seed(t, c)
	require.NoError(t, c.ExpandTree(ctx, 2))

	render := func(walk func(fn func(Visit))) []string {
		var out []string
		walk(func(v Visit) {
			out = append(out, fmt.Sprintf("%s:%s:%d", v.Node.ID, v.Ref, v.RenderDepth))
		})
		return out
	}

	nodes := c.Nodes()
	live := render(c.Walk)
	stored := render(func(fn func(Visit)) { WalkNodes(c.RootID(), nodes, fn) })
	assert.Equal(t, live, stored)
	assert.Equal(t, c.Stats(), StatsOf(nodes))

	var none []string
	WalkNodes("missing", nodes, func(v Visit) { none = append(none, v.Node.ID) })
	assert.Empty(t, none)
}

func TestIsAncestor(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA, idB)
	loader.add(idA, idC)
	loader.add(idB)
	loader.add(idC)
	c := newTestCrawler(loader)
	ctx := context.Background()

	seed(t, c)
	require.NoError(t, c.Expand(ctx, rootID))
	require.NoError(t, c.Expand(ctx, idA))

	assert.True(t, c.IsAncestor(rootID, idC))
	assert.True(t, c.IsAncestor(idA, idC))
	assert.False(t, c.IsAncestor(idC, rootID))
	assert.False(t, c.IsAncestor(idA, idB))
	assert.False(t, c.IsAncestor(idC, idC))
	assert.False(t, c.IsAncestor(rootID, "999"))
}

func TestExpandTree(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA, idB)
	loader.add(idA, idC)
	loader.add(idB, idC)
	loader.add(idC, "104")
	loader.add("104")
	c := newTestCrawler(loader)

	seed(t, c)
	require.NoError(t, c.ExpandTree(context.Background(), 2))

	assert.Equal(t, model.StatusExpanded, mustNode(t, c, rootID).Status)
	assert.Equal(t, model.StatusExpanded, mustNode(t, c, idA).Status)
	assert.Equal(t, model.StatusExpanded, mustNode(t, c, idB).Status)
	assert.Equal(t, model.StatusCollapsed, mustNode(t, c, idC).Status)
	_, ok := c.Node("104")
	assert.False(t, ok)
}

func TestNode_ReturnsCopy(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA)
	loader.add(idA)
	c := newTestCrawler(loader)
	seed(t, c)
	require.NoError(t, c.Expand(context.Background(), rootID))

	node := mustNode(t, c, rootID)
	node.ChildIDs[0] = "mutated"
	node.Status = model.StatusError

	fresh := mustNode(t, c, rootID)
	assert.Equal(t, []string{idA}, fresh.ChildIDs)
	assert.Equal(t, model.StatusExpanded, fresh.Status)
}

func TestEntryPointsAreSerialized(t *testing.T) {
	t.Parallel()

	loader := newFakeLoader()
	loader.add(rootID, idA, idB)
	loader.add(idA, "201", "202", "203")
	loader.add(idB, "204", "205", "206")
	for _, id := range []string{"201", "202", "203", "204", "205", "206"} {
		loader.add(id)
	}
	c := newTestCrawler(loader, WithMaxNodes(6))
	ctx := context.Background()

	seed(t, c)
	require.NoError(t, c.Expand(ctx, rootID))

	var wg sync.WaitGroup
	for _, id := range []string{idA, idB} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Expand(ctx, id))
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, c.Stats().TotalNodes, "budget holds across concurrent callers")
}
