package report

import (
	"io"

	"github.com/nao1215/altscan/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report of one crawl.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary) (int, error)

	// WriteAll outputs the reports of several crawls as one document.
	WriteAll(summaries []*model.Summary) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAll outputs all reports to all configured Writers.
func (m *MultiWriter) WriteAll(summaries []*model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAll(summaries)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// imageRecords returns the images of one class (with or without alt).
// Summaries built without per-image records fall back to the bare URLs.
func imageRecords(summary *model.Summary, withAlt bool) []model.ImageRecord {
	result := summary.Result
	if result == nil {
		result = model.NewResult()
	}

	out := make([]model.ImageRecord, 0)
	if len(summary.Images) == result.Total() && len(summary.Images) > 0 {
		for _, img := range summary.Images {
			if img.HasAlt == withAlt {
				out = append(out, img)
			}
		}
		return out
	}

	urls := result.WithoutAlt
	if withAlt {
		urls = result.WithAlt
	}
	for _, u := range urls {
		out = append(out, model.ImageRecord{URL: u, HasAlt: withAlt})
	}
	return out
}

// counts returns the number of images with and without alt.
func counts(summary *model.Summary) (withAlt, withoutAlt int) {
	if summary.Result == nil {
		return 0, 0
	}
	return len(summary.Result.WithAlt), len(summary.Result.WithoutAlt)
}

// missingPercent returns the share of images without alt as a percentage.
func missingPercent(summary *model.Summary) float64 {
	if summary.Result == nil {
		return 0
	}
	return summary.Result.MissingRatio() * 100
}
