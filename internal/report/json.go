package report

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/nao1215/altscan/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one crawl summary in JSON format.
func (w *JSONWriter) Write(summary *model.Summary) (int, error) {
	return w.writeJSON(summary)
}

// WriteAll outputs the summaries as a JSON array.
func (w *JSONWriter) WriteAll(summaries []*model.Summary) (int, error) {
	if summaries == nil {
		summaries = make([]*model.Summary, 0)
	}
	return w.writeJSON(summaries)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps crawl summaries with the version of the tool that
// produced them.
type JSONReport struct {
	// Version is the altscan version that generated this report.
	Version string `json:"version"`

	// Crawls holds one summary per seed.
	Crawls []*model.Summary `json:"crawls"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(version string, summaries ...*model.Summary) *JSONReport {
	if summaries == nil {
		summaries = make([]*model.Summary, 0)
	}
	return &JSONReport{
		Version: version,
		Crawls:  summaries,
	}
}

// FullJSONWriter outputs summaries inside a versioned JSONReport.
type FullJSONWriter struct {
	*JSONWriter

	// version is the altscan version string.
	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs one summary wrapped with metadata.
func (w *FullJSONWriter) Write(summary *model.Summary) (int, error) {
	return w.writeJSON(NewJSONReport(w.version, summary))
}

// WriteAll outputs all summaries wrapped with metadata.
func (w *FullJSONWriter) WriteAll(summaries []*model.Summary) (int, error) {
	return w.writeJSON(NewJSONReport(w.version, summaries...))
}
