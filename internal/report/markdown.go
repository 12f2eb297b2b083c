package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/altscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing, e.g. as a pull
// request comment or a CI job summary.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one crawl report in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Alt Text Audit Report")
	md.PlainText("")

	w.writeReport(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteAll outputs several crawl reports as one Markdown document.
func (w *MarkdownWriter) WriteAll(summaries []*model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Alt Text Audit Report")
	md.PlainText("")

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		withAlt, withoutAlt := counts(s)
		rows[i] = []string{
			"`" + s.Seed + "`",
			statusText(s.Status),
			strconv.Itoa(withAlt),
			strconv.Itoa(withoutAlt),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Site", "Status", "With Alt", "Without Alt"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, s := range summaries {
		md.H2(s.Seed)
		md.PlainText("")
		w.writeReport(md, s)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeReport(md *markdown.Markdown, summary *model.Summary) {
	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeImages(md, "Images Without Alt", imageRecords(summary, false))
	w.writeImages(md, "Images With Alt", imageRecords(summary, true))
	w.writeFailures(md, summary)
}

// writeHeader writes the crawl information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	rows := [][]string{
		{"Seed", "`" + summary.Seed + "`"},
		{"Crawl ID", summary.CrawlID},
		{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", summary.Duration().Round(time.Millisecond).String()},
		{"Pages Visited", strconv.Itoa(summary.PagesVisited)},
		{"Status", statusText(summary.Status)},
	}
	if summary.Reason != "" {
		rows = append(rows, []string{"Reason", summary.Reason})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the status with a visual marker.
func statusText(status model.Status) string {
	switch status {
	case model.StatusCompleted:
		return "✅ Completed"
	case model.StatusCancelled:
		return "⚠️ Cancelled (partial results)"
	case model.StatusFailed:
		return "❌ Failed"
	default:
		return status.String()
	}
}

// writeSummary writes the image counts, chart and alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Summary")
	md.PlainText("")

	withAlt, withoutAlt := counts(summary)
	md.Table(markdown.TableSet{
		Header: []string{"Images", "Count"},
		Rows: [][]string{
			{"With alt", strconv.Itoa(withAlt)},
			{"Without alt", strconv.Itoa(withoutAlt)},
			{"**Total**", "**" + strconv.Itoa(withAlt+withoutAlt) + "**"},
		},
	})
	md.PlainText("")

	if withAlt+withoutAlt > 0 {
		w.writePieChart(md, withAlt, withoutAlt)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of alt coverage.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, withAlt, withoutAlt int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Alt Text Coverage"),
		piechart.WithShowData(true),
	)

	if withAlt > 0 {
		chart.LabelAndIntValue("With alt", uint64(withAlt))
	}
	if withoutAlt > 0 {
		chart.LabelAndIntValue("Without alt", uint64(withoutAlt))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the crawl outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	_, withoutAlt := counts(summary)

	switch {
	case summary.Status == model.StatusFailed:
		md.Cautionf("The crawl failed: %s", summary.Reason)
	case withoutAlt > 0:
		md.Warningf(
			"%d image(s) are missing alt text (%.1f%% of all images).",
			withoutAlt, missingPercent(summary),
		)
	case summary.Status == model.StatusCancelled:
		md.Importantf("The crawl was cancelled after %d page(s); results are partial.", summary.PagesVisited)
	default:
		md.Tip("Every image found has alt text.")
	}
	md.PlainText("")

	if summary.RobotsDegraded {
		md.Note("robots.txt could not be retrieved; the configured fallback policy was applied.")
		md.PlainText("")
	}
}

// writeImages writes one image table.
func (w *MarkdownWriter) writeImages(md *markdown.Markdown, title string, images []model.ImageRecord) {
	md.H2(title)
	md.PlainText("")

	if len(images) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(images))
	for i, img := range images {
		page := img.PageURL
		if page == "" {
			page = "-"
		}
		alt := img.Alt
		if alt == "" {
			alt = "-"
		}
		rows[i] = []string{
			truncateString(img.URL, 80),
			truncateString(alt, 40),
			truncateString(page, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Image", "Alt", "Page"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes per-URL diagnostics.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *model.Summary) {
	if len(summary.Failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(summary.Failures))
	for i, f := range summary.Failures {
		rows[i] = []string{
			string(f.Kind),
			truncateString(f.URL, 60),
			truncateString(f.Message, 80),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "URL", "Message"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [altscan](https://github.com/nao1215/altscan)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
