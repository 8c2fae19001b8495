// Package crawler incrementally expands the interest keyword graph.
//
// # Architecture
//
// A Crawler owns one crawl session: a map from interest id to TreeNode,
// rooted at the seeded page. The map only changes through three entry
// points (Expand, Collapse and Retry). Entry points are serialized by a
// weighted semaphore, so two expansions can never interleave their commits
// and race on the node budget.
//
// Expand walks a node's pivot edges strictly in order, one fetch at a time,
// sleeping a fixed delay between fetches. Parallel fetches would defeat the
// delay and get the whole session blocked upstream.
//
// # Node lifecycle
//
//	collapsed --Expand--> loading --> expanded | error
//	expanded  --Expand or Collapse--> collapsed (no network)
//	collapsed --Expand--> expanded (no network, children already known)
//	error     --Retry--> loading --> collapsed | error
//	loading   --cancel or Abort--> collapsed (resumed by the next Expand)
//
// The loading status is committed eagerly so readers can show progress;
// new children are committed in one batch when the edge loop ends.
//
// # Graph shape
//
// Every interest id appears at most once. A page reached from a second
// parent is linked as a child of both but keeps the depth and parent of its
// first discovery. Walk reports such links as cross references, and links
// back to an ancestor as cycles, and never descends into either.
//
// # Budgets
//
// A node at or past the maximum depth turns into an error node carrying
// model.ErrDepthLimitReached without any fetch. The node budget is checked
// before every edge; reaching it silently ends the loop.
//
// # Usage
//
//	c := crawler.New(loader, crawler.WithMaxNodes(50))
//	rootID, err := c.Seed(ctx, "https://www.pinterest.com/ideas/kitchen/912345/")
//	err = c.Expand(ctx, rootID)
//	c.Walk(func(v crawler.Visit) { fmt.Println(v.Node.Name) })
package crawler
