package report

import (
	"github.com/nao1215/ideagraph/internal/model"
)

// Writer renders the three kinds of command output: scrape results,
// stored interests and crawl trees. Each method returns the bytes written.
//
// Design decision: one interface per output format rather than per
// command, so --json, --markdown and the text default behave the same
// for scrape, show and crawl.
type Writer interface {
	WriteJobs(jobs []*model.ScrapeJob) (int, error)
	WriteInterests(interests []*Interest) (int, error)
	WriteTree(tree *Tree) (int, error)
}

// MultiWriter fans one report out to several Writers, e.g. a JSON file
// and a text summary on stdout.
type MultiWriter []Writer

// NewMultiWriter returns a MultiWriter over writers, called in order.
func NewMultiWriter(writers ...Writer) MultiWriter {
	return MultiWriter(writers)
}

// WriteJobs implements Writer.
func (m MultiWriter) WriteJobs(jobs []*model.ScrapeJob) (int, error) {
	return m.fanOut(func(w Writer) (int, error) { return w.WriteJobs(jobs) })
}

// WriteInterests implements Writer.
func (m MultiWriter) WriteInterests(interests []*Interest) (int, error) {
	return m.fanOut(func(w Writer) (int, error) { return w.WriteInterests(interests) })
}

// WriteTree implements Writer.
func (m MultiWriter) WriteTree(tree *Tree) (int, error) {
	return m.fanOut(func(w Writer) (int, error) { return w.WriteTree(tree) })
}

// fanOut stops at the first failing writer and returns the bytes written
// by all writers up to and including it.
func (m MultiWriter) fanOut(write func(Writer) (int, error)) (int, error) {
	total := 0
	for _, w := range m {
		n, err := write(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// jobInterest returns the interest view of a successful job, nil otherwise.
func jobInterest(job *model.ScrapeJob) *Interest {
	if job.Record == nil {
		return nil
	}
	return &Interest{Record: job.Record, Pins: job.Pins}
}

// jobError returns the error text of a job, empty when it succeeded.
func jobError(job *model.ScrapeJob) string {
	switch {
	case job.ErrorMessage != "":
		return job.ErrorMessage
	case job.Err != nil:
		return job.Err.Error()
	default:
		return ""
	}
}
