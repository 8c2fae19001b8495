package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/ideagraph/internal/model"
)

// JSONWriter writes each report as one JSON document followed by a newline.
// HTML characters are not escaped, so page URLs with query strings stay
// readable.
type JSONWriter struct {
	out     io.Writer
	pretty  bool
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents documents by two spaces.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.pretty = true
	}
}

// WithVersion wraps every document in an Envelope carrying version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter returns a compact, unwrapped JSONWriter unless opts say
// otherwise.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{out: output}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Envelope tags a document with the producing version and its kind
// ("scrape", "interests" or "crawl"). The model types stay free of output
// metadata.
type Envelope struct {
	Version string `json:"version"`
	Kind    string `json:"kind"`
	Data    any    `json:"data"`
}

// jsonJob adds the error text of jobs that only carry Err.
type jsonJob struct {
	*model.ScrapeJob
	ErrorMessage string `json:"error,omitempty"`
}

// jsonTree replaces the flat node list view with the nested root entry.
type jsonTree struct {
	*Tree
	Root *TreeEntry `json:"root"`
}

// WriteJobs writes the jobs as an array.
func (w *JSONWriter) WriteJobs(jobs []*model.ScrapeJob) (int, error) {
	doc := make([]jsonJob, len(jobs))
	for i, job := range jobs {
		doc[i] = jsonJob{ScrapeJob: job, ErrorMessage: jobError(job)}
	}
	return w.encode("scrape", doc)
}

// WriteInterests writes the interests as an array, [] when there are none.
func (w *JSONWriter) WriteInterests(interests []*Interest) (int, error) {
	if interests == nil {
		interests = []*Interest{}
	}
	return w.encode("interests", interests)
}

// WriteTree writes the tree with its entries nested below the root.
func (w *JSONWriter) WriteTree(tree *Tree) (int, error) {
	return w.encode("crawl", jsonTree{Tree: tree, Root: tree.nested()})
}

// encode buffers the whole document so a marshal error writes nothing.
func (w *JSONWriter) encode(kind string, doc any) (int, error) {
	if w.version != "" {
		doc = Envelope{Version: w.version, Kind: kind, Data: doc}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return 0, err
	}
	return w.out.Write(buf.Bytes())
}
