package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/ideagraph/internal/crawler"
	"github.com/nao1215/ideagraph/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	out io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		out: output,
	}
}

// WriteJobs outputs one section per scraped page.
func (w *MarkdownWriter) WriteJobs(jobs []*model.ScrapeJob) (int, error) {
	md := markdown.NewMarkdown(w.out)

	md.H1("ideagraph Scrape Report")
	md.PlainText("")
	w.writeJobSummary(md, jobs)

	for _, job := range jobs {
		if msg := jobError(job); msg != "" {
			md.H2(job.URL)
			md.PlainText("")
			md.Warningf("Scrape failed: %s", msg)
			md.PlainText("")
			continue
		}
		if interest := jobInterest(job); interest != nil {
			w.writeInterest(md, interest, job)
		}
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteInterests outputs one section per interest.
func (w *MarkdownWriter) WriteInterests(interests []*Interest) (int, error) {
	md := markdown.NewMarkdown(w.out)

	md.H1("ideagraph Interests")
	md.PlainText("")

	if len(interests) == 0 {
		md.Note("No interests stored yet. Run `ideagraph scrape URL` first.")
		md.PlainText("")
	}
	for _, interest := range interests {
		w.writeInterest(md, interest, nil)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteTree outputs the crawl tree as a nested list.
func (w *MarkdownWriter) WriteTree(tree *Tree) (int, error) {
	md := markdown.NewMarkdown(w.out)

	md.H1("ideagraph Crawl Tree")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Session", "`" + tree.SessionID + "`"},
			{"Root", "`" + tree.RootID + "`"},
			{"Nodes", strconv.Itoa(tree.Stats.TotalNodes)},
			{"Expanded", strconv.Itoa(tree.Stats.ExpandedCount)},
			{"Errors", strconv.Itoa(tree.Stats.ErrorCount)},
			{"Max Depth", strconv.Itoa(tree.Stats.MaxDepth)},
		},
	})
	md.PlainText("")

	if tree.Stats.ErrorCount > 0 {
		md.Warningf("%d node(s) failed to load. Run the crawl again with `--retry-failed` to try again.", tree.Stats.ErrorCount)
		md.PlainText("")
	}

	var sb strings.Builder
	for _, v := range tree.visits() {
		sb.WriteString(strings.Repeat("  ", v.RenderDepth))
		sb.WriteString("- ")
		sb.WriteString(markdownNodeLine(v))
		sb.WriteString("\n")
	}
	md.PlainText(sb.String())

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// markdownNodeLine renders one visit as a list item body.
func markdownNodeLine(v crawler.Visit) string {
	n := v.Node
	name := n.Name
	if name == "" {
		name = n.ID
	}
	line := markdown.Link(name, n.SourceURL)

	switch v.Ref {
	case crawler.RefCycle:
		return line + " _(cycle)_"
	case crawler.RefCrossRef:
		return line + " _(see above)_"
	}

	if n.SearchVolume > 0 {
		line += fmt.Sprintf(" (%d)", n.SearchVolume)
	}
	switch n.Status {
	case model.StatusError:
		line += " ❌ " + n.LastError
	case model.StatusLoading:
		line += " ⏳"
	case model.StatusCollapsed:
		if len(n.OutwardEdges) > 0 {
			line += fmt.Sprintf(" _(+%d)_", len(n.OutwardEdges))
		}
	}
	return line
}

// writeJobSummary writes the per-page status table.
func (w *MarkdownWriter) writeJobSummary(md *markdown.Markdown, jobs []*model.ScrapeJob) {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		status := "✅ Extracted"
		if msg := jobError(job); msg != "" {
			status = "❌ " + truncateString(msg, 60)
		} else if job.IsNew {
			status = "✅ New"
		}
		name := "-"
		if job.Record != nil {
			name = job.Record.Name
		}
		rows = append(rows, []string{truncateString(job.URL, 80), name, status})
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Interest", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeInterest writes the section of one interest.
func (w *MarkdownWriter) writeInterest(md *markdown.Markdown, interest *Interest, job *model.ScrapeJob) {
	rec := interest.Record
	md.H2(rec.Name)
	md.PlainText("")

	rows := [][]string{
		{"ID", "`" + rec.ID + "`"},
		{"URL", rec.URL},
		{"Search Volume", strconv.FormatInt(rec.SearchVolume, 10)},
		{"Breadcrumbs", orDash(strings.Join(rec.Breadcrumbs, " › "))},
		{"Last Scrape", rec.LastScrape.Format("2006-01-02 15:04:05 MST")},
	}
	if rec.LastUpdate != nil {
		rows = append(rows, []string{"Last Update", rec.LastUpdate.Format("2006-01-02 15:04:05 MST")})
	}
	if rec.LanguageHint != "" {
		rows = append(rows, []string{"Language", rec.LanguageHint})
	}
	if interest.ScrapeCount > 0 {
		rows = append(rows, []string{"Times Scraped", strconv.Itoa(interest.ScrapeCount)})
	}
	if job != nil && job.Marker != "" {
		rows = append(rows, []string{"Source", "`" + job.Marker + "` / `" + job.Strategy + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeEdges(md, "Pivot Topics", rec.PivotEdges)
	w.writeEdges(md, "Related Interests", rec.RelatedEdges)
	w.writeAnnotations(md, rec.TopAnnotations)
	w.writePins(md, interest.Pins)
}

// writeEdges writes a linked list of edges.
func (w *MarkdownWriter) writeEdges(md *markdown.Markdown, title string, edges []model.Edge) {
	if len(edges) == 0 {
		return
	}
	md.H3(title)
	md.PlainText("")

	items := make([]string, 0, len(edges))
	for _, e := range edges {
		items = append(items, markdown.Link(e.Name, e.URL))
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeAnnotations writes the annotation ranking with a pie chart.
func (w *MarkdownWriter) writeAnnotations(md *markdown.Markdown, annotations []model.Annotation) {
	if len(annotations) == 0 {
		return
	}
	md.H3("Top Annotations")
	md.PlainText("")

	rows := make([][]string, 0, len(annotations))
	for _, a := range annotations {
		rows = append(rows, []string{markdown.Link(a.Tag, a.URL), strconv.Itoa(a.Count)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Tag", "Pins"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Annotation Share"),
		piechart.WithShowData(true),
	)
	for _, a := range annotations {
		if a.Count > 0 {
			chart.LabelAndIntValue(a.Tag, uint64(a.Count))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePins writes the pin table.
func (w *MarkdownWriter) writePins(md *markdown.Markdown, pins []model.PinRecord) {
	if len(pins) == 0 {
		return
	}
	md.H3("Pins")
	md.PlainText("")

	rows := make([][]string, 0, len(pins))
	for _, p := range pins {
		title := p.Title
		if title == "" {
			title = p.Description
		}
		rows = append(rows, []string{
			"`" + p.ID + "`",
			orDash(truncateString(title, 50)),
			strconv.FormatInt(p.Engagement.SaveCount, 10),
			strconv.FormatInt(p.Engagement.RepinCount, 10),
			strconv.FormatInt(p.Engagement.CommentCount, 10),
			orDash(p.BoardName),
			orDash(p.SourceDomain),
			orDash(strings.Join(p.Tags, ", ")),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Title", "Saves", "Repins", "Comments", "Board", "Domain", "Tags"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [ideagraph](https://github.com/nao1215/ideagraph)*")
}

// orDash returns "-" for empty strings.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
