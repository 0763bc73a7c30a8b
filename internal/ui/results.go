package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/kwsearch/internal/search"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ValidFormat reports whether f is a known output format.
func ValidFormat(f string) bool {
	return f == FormatText || f == FormatJSON
}

// ResultRenderer prints search reports.
type ResultRenderer struct {
	out    io.Writer
	styles Styles
}

// NewResultRenderer creates a ResultRenderer. Color is used only when out
// is a terminal and noColor is false.
func NewResultRenderer(out io.Writer, noColor bool) *ResultRenderer {
	return &ResultRenderer{
		out:    out,
		styles: GetStyles(noColor || DetectNoColor() || !IsTTY(out)),
	}
}

// reportJSON is the wire form of a Report.
type reportJSON struct {
	*search.Report
	DurationMS float64 `json:"duration_ms"`
}

func toJSON(r *search.Report) reportJSON {
	return reportJSON{Report: r, DurationMS: float64(r.Duration.Microseconds()) / 1000}
}

// Render writes report in format.
func (r *ResultRenderer) Render(report *search.Report, format string) error {
	if format == FormatJSON {
		return r.encode(toJSON(report))
	}
	r.renderText(report)
	return nil
}

// RenderComparison writes both reports of a --compare run and whether their
// matches agree.
func (r *ResultRenderer) RenderComparison(shared, isolated *search.Report, format string) error {
	same := shared.Result.SameMatches(isolated.Result)

	if format == FormatJSON {
		return r.encode(struct {
			Shared      reportJSON `json:"shared"`
			Isolated    reportJSON `json:"isolated"`
			SameMatches bool       `json:"same_matches"`
		}{toJSON(shared), toJSON(isolated), same})
	}

	r.renderText(shared)
	_, _ = fmt.Fprintln(r.out)
	r.renderText(isolated)
	_, _ = fmt.Fprintln(r.out)

	if same {
		_, _ = fmt.Fprintln(r.out, r.styles.Success.Render("✓ shared and isolated strategies found the same matches"))
	} else {
		_, _ = fmt.Fprintln(r.out, r.styles.Error.Render("✗ shared and isolated strategies disagree"))
	}
	return nil
}

func (r *ResultRenderer) renderText(report *search.Report) {
	header := fmt.Sprintf("%s strategy: %d files, %d workers, %s",
		report.Strategy, report.Files, report.Workers, formatDuration(report.Duration))
	_, _ = fmt.Fprintln(r.out, r.styles.Header.Render(header))

	report.Result.Each(func(keyword string, paths []string) {
		count := r.styles.Count.Render(fmt.Sprintf("(%d)", len(paths)))
		_, _ = fmt.Fprintf(r.out, "%s %s\n", r.styles.Keyword.Render(keyword), count)
		if len(paths) == 0 {
			_, _ = fmt.Fprintln(r.out, r.styles.Dim.Render("  no matches"))
			return
		}
		for _, p := range paths {
			_, _ = fmt.Fprintln(r.out, "  "+r.styles.Path.Render(p))
		}
	})
}

func (r *ResultRenderer) encode(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Summary is a one-line description of a report, used by watch mode.
func Summary(report *search.Report) string {
	var parts []string
	report.Result.Each(func(keyword string, paths []string) {
		parts = append(parts, fmt.Sprintf("%s=%d", keyword, len(paths)))
	})
	return fmt.Sprintf("%d files, %s (%s)", report.Files, strings.Join(parts, " "), formatDuration(report.Duration))
}
