package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/altscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showWithAlt lists the images that do have alt text, not only the
	// offending ones.
	showWithAlt bool

	// verbose adds the page URL and alt text to each image line.
	verbose bool

	title cases.Caser
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowWithAlt lists images that have alt text too.
func WithShowWithAlt(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showWithAlt = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:  newBaseWriter(output),
		showWithAlt: true,
		title:       cases.Title(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one crawl report in human-readable format.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder
	w.writeReport(&sb, summary)
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

// WriteAll outputs several crawl reports followed by a batch total.
func (w *SimpleWriter) WriteAll(summaries []*model.Summary) (int, error) {
	var sb strings.Builder
	var withAlt, withoutAlt int
	for _, s := range summaries {
		w.writeReport(&sb, s)
		a, m := counts(s)
		withAlt += a
		withoutAlt += m
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "BATCH TOTAL: %d site(s), %d image(s) with alt, %d without alt\n",
		len(summaries), withAlt, withoutAlt)
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeReport(sb *strings.Builder, summary *model.Summary) {
	w.writeHeader(sb, summary)
	w.writeSummary(sb, summary)
	w.writeImages(sb, "IMAGES WITHOUT ALT", imageRecords(summary, false))
	if w.showWithAlt {
		w.writeImages(sb, "IMAGES WITH ALT", imageRecords(summary, true))
	}
	w.writeFailures(sb, summary)
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      ALT TEXT AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed:           %s\n", summary.Seed)
	if summary.CrawlID != "" {
		fmt.Fprintf(sb, "Crawl ID:       %s\n", summary.CrawlID)
	}
	fmt.Fprintf(sb, "Started:        %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", summary.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Pages Visited:  %d\n", summary.PagesVisited)
	fmt.Fprintf(sb, "Status:         %s\n", w.title.String(summary.Status.String()))
	if summary.Reason != "" {
		fmt.Fprintf(sb, "Reason:         %s\n", summary.Reason)
	}
	if summary.RobotsDegraded {
		sb.WriteString("Robots:         unavailable, fallback applied\n")
	}
	sb.WriteString("\n")
}

// writeSummary writes the image count section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	withAlt, withoutAlt := counts(summary)
	fmt.Fprintf(sb, "  WITH ALT:     %d\n", withAlt)
	fmt.Fprintf(sb, "  WITHOUT ALT:  %d\n", withoutAlt)
	fmt.Fprintf(sb, "  TOTAL:        %d images (%.1f%% missing alt)\n", withAlt+withoutAlt, missingPercent(summary))
	sb.WriteString("\n")
}

// writeImages writes one image list section.
func (w *SimpleWriter) writeImages(sb *strings.Builder, title string, images []model.ImageRecord) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(images) == 0 {
		sb.WriteString("  None\n\n")
		return
	}

	for _, img := range images {
		fmt.Fprintf(sb, "  [%s] %s\n", indicator(img.HasAlt), img.URL)
		if !w.verbose {
			continue
		}
		if img.PageURL != "" {
			fmt.Fprintf(sb, "      Page: %s\n", img.PageURL)
		}
		if img.HasAlt {
			fmt.Fprintf(sb, "      Alt:  %s\n", img.Alt)
		}
	}
	sb.WriteString("\n")
}

// writeFailures writes per-URL diagnostics.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, summary *model.Summary) {
	if len(summary.Failures) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, f := range summary.Failures {
		fmt.Fprintf(sb, "  [%s] %s\n", f.Kind, f.URL)
		if w.verbose && f.Message != "" {
			fmt.Fprintf(sb, "      %s\n", f.Message)
		}
	}
	sb.WriteString("\n")
}

// indicator returns a visual marker for an image line.
func indicator(hasAlt bool) string {
	if hasAlt {
		return "+"
	}
	return "-"
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by altscan\n")
	sb.WriteString("https://github.com/nao1215/altscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
