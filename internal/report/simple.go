package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/ideagraph/internal/crawler"
	"github.com/nao1215/ideagraph/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
type SimpleWriter struct {
	out io.Writer

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output: all pins and all edges.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		out: output,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// compactLimit is the number of list entries shown when not verbose.
const compactLimit = 5

// WriteJobs outputs the results of a scrape.
func (w *SimpleWriter) WriteJobs(jobs []*model.ScrapeJob) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "IDEAGRAPH SCRAPE REPORT")

	failed := 0
	for _, job := range jobs {
		if msg := jobError(job); msg != "" {
			failed++
			w.writeSection(&sb, job.URL)
			sb.WriteString(fmt.Sprintf("  Status: FAILED - %s\n\n", msg))
			continue
		}
		if interest := jobInterest(job); interest != nil {
			w.writeInterest(&sb, interest, job.IsNew)
		}
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Pages: %d  Extracted: %d  Failed: %d\n", len(jobs), len(jobs)-failed, failed))
	w.writeFooter(&sb)

	return w.out.Write([]byte(sb.String()))
}

// WriteInterests outputs stored interests.
func (w *SimpleWriter) WriteInterests(interests []*Interest) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "IDEAGRAPH INTERESTS")

	if len(interests) == 0 {
		sb.WriteString("  No interests stored\n\n")
	}
	for _, interest := range interests {
		w.writeInterest(&sb, interest, false)
	}
	w.writeFooter(&sb)

	return w.out.Write([]byte(sb.String()))
}

// WriteTree outputs the crawl tree with one line per rendered node.
func (w *SimpleWriter) WriteTree(tree *Tree) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "IDEAGRAPH CRAWL TREE")

	sb.WriteString(fmt.Sprintf("Session:   %s\n", tree.SessionID))
	sb.WriteString(fmt.Sprintf("Nodes:     %d (expanded %d, errors %d, loading %d)\n",
		tree.Stats.TotalNodes, tree.Stats.ExpandedCount, tree.Stats.ErrorCount, tree.Stats.LoadingCount))
	sb.WriteString(fmt.Sprintf("Max Depth: %d\n\n", tree.Stats.MaxDepth))

	for _, v := range tree.visits() {
		sb.WriteString(strings.Repeat("  ", v.RenderDepth))
		sb.WriteString(simpleNodeLine(v))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	w.writeFooter(&sb)

	return w.out.Write([]byte(sb.String()))
}

// simpleNodeLine renders one visit with a status marker.
func simpleNodeLine(v crawler.Visit) string {
	n := v.Node
	name := n.Name
	if name == "" {
		name = n.SourceURL
	}

	switch v.Ref {
	case crawler.RefCycle:
		return fmt.Sprintf("[^] %s (cycle)", name)
	case crawler.RefCrossRef:
		return fmt.Sprintf("[=] %s (see above)", name)
	}

	var marker, suffix string
	switch n.Status {
	case model.StatusExpanded:
		marker = "[-]"
	case model.StatusCollapsed:
		marker = "[+]"
	case model.StatusLoading:
		marker = "[~]"
	case model.StatusError:
		marker = "[!]"
		suffix = " - " + n.LastError
	default:
		marker = "[?]"
	}
	if n.SearchVolume > 0 {
		return fmt.Sprintf("%s %s (%d)%s", marker, name, n.SearchVolume, suffix)
	}
	return fmt.Sprintf("%s %s%s", marker, name, suffix)
}

// writeBanner writes the report header.
func (w *SimpleWriter) writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	pad := max(0, (70-len(title))/2)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

// writeSection writes a section divider with a title.
func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeInterest writes the details of one interest.
func (w *SimpleWriter) writeInterest(sb *strings.Builder, interest *Interest, isNew bool) {
	rec := interest.Record
	title := strings.ToUpper(rec.Name)
	if isNew {
		title += " [NEW]"
	}
	w.writeSection(sb, title)

	sb.WriteString(fmt.Sprintf("  ID:            %s\n", rec.ID))
	sb.WriteString(fmt.Sprintf("  URL:           %s\n", rec.URL))
	sb.WriteString(fmt.Sprintf("  Search Volume: %d\n", rec.SearchVolume))
	if len(rec.Breadcrumbs) > 0 {
		sb.WriteString(fmt.Sprintf("  Breadcrumbs:   %s\n", strings.Join(rec.Breadcrumbs, " > ")))
	}
	if rec.LastUpdate != nil {
		sb.WriteString(fmt.Sprintf("  Last Update:   %s\n", rec.LastUpdate.Format("2006-01-02 15:04:05 MST")))
	}
	sb.WriteString(fmt.Sprintf("  Last Scrape:   %s\n", rec.LastScrape.Format("2006-01-02 15:04:05 MST")))
	if interest.ScrapeCount > 0 {
		sb.WriteString(fmt.Sprintf("  Scraped:       %d time(s)\n", interest.ScrapeCount))
	}
	sb.WriteString("\n")

	w.writeEdges(sb, "Pivot topics", rec.PivotEdges)
	w.writeEdges(sb, "Related interests", rec.RelatedEdges)

	if len(rec.TopAnnotations) > 0 {
		sb.WriteString("  Top annotations:\n")
		for i, a := range rec.TopAnnotations {
			if !w.verbose && i == compactLimit {
				sb.WriteString(fmt.Sprintf("    ... %d more\n", len(rec.TopAnnotations)-compactLimit))
				break
			}
			sb.WriteString(fmt.Sprintf("    %-24s %d\n", a.Tag, a.Count))
		}
		sb.WriteString("\n")
	}

	if len(interest.Pins) > 0 {
		sb.WriteString(fmt.Sprintf("  Pins (%d):\n", len(interest.Pins)))
		for i, p := range interest.Pins {
			if !w.verbose && i == compactLimit {
				sb.WriteString(fmt.Sprintf("    ... %d more\n", len(interest.Pins)-compactLimit))
				break
			}
			title := p.Title
			if title == "" {
				title = "(untitled)"
			}
			sb.WriteString(fmt.Sprintf("    * %s  %s  saves=%d repins=%d\n",
				p.ID, truncateString(title, 40), p.Engagement.SaveCount, p.Engagement.RepinCount))
		}
		sb.WriteString("\n")
	}
}

// writeEdges writes a labeled edge list.
func (w *SimpleWriter) writeEdges(sb *strings.Builder, label string, edges []model.Edge) {
	if len(edges) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("  %s:\n", label))
	for i, e := range edges {
		if !w.verbose && i == compactLimit {
			sb.WriteString(fmt.Sprintf("    ... %d more\n", len(edges)-compactLimit))
			break
		}
		sb.WriteString(fmt.Sprintf("    [+] %s  %s\n", e.Name, e.URL))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by ideagraph\n")
	sb.WriteString("https://github.com/nao1215/ideagraph\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
