package ui

import (
	"fmt"
	"strings"

	"causelens/domain/rd"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// CaptionMarkdown describes a plot for readers of the chart
func CaptionMarkdown(plot *rd.Plot) string {
	var b strings.Builder
	w := plot.Request.Window

	fmt.Fprintf(&b, "%s around a cutoff of **%g** in %s, using rows within **%g** of the cutoff (%d of %d rows read).\n\n",
		codeSpan(plot.Request.Outcome), w.Cutoff, codeSpan(plot.Request.Running), w.Bandwidth, plot.RowsInWindow, plot.RowsRead)

	switch plot.Status {
	case rd.StatusNoRows:
		b.WriteString("No rows were returned for this dataset.\n\n")
	case rd.StatusEmptyWindow:
		b.WriteString("No usable rows fall inside the bandwidth window. Try a wider bandwidth.\n\n")
	case rd.StatusPartial:
		b.WriteString("One side of the cutoff has too few points for a fitted line.\n\n")
	}

	if plot.DroppedNonNumeric > 0 {
		fmt.Fprintf(&b, "- %d rows skipped for missing or non-numeric values\n", plot.DroppedNonNumeric)
	}
	if plot.Discontinuity != nil {
		fmt.Fprintf(&b, "- Visual jump at the cutoff: `%.4f`\n", *plot.Discontinuity)
	}
	if est := plot.Estimate; est != nil {
		fmt.Fprintf(&b, "- Estimated effect: `%.4f` (SE `%.4f`, p = `%.4g`)", est.Effect, est.StdError, est.PValue)
		if est.Kernel != "" {
			fmt.Fprintf(&b, ", %s kernel", codeSpan(est.Kernel))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n> Fitted lines are unweighted local ")
	if plot.Request.Order == rd.OrderQuadratic {
		b.WriteString("quadratic")
	} else {
		b.WriteString("linear")
	}
	b.WriteString(" fits over the window. ")
	switch est := plot.Estimate; {
	case est != nil && est.Kernel != "":
		fmt.Fprintf(&b, "The reported estimate uses a %s kernel, so the drawn jump can differ from it.\n", codeSpan(est.Kernel))
	case est != nil:
		b.WriteString("The reported estimate is weighted differently, so the drawn jump can differ from it.\n")
	default:
		b.WriteString("A kernel-weighted estimate can differ from the drawn jump.\n")
	}
	return b.String()
}

// codeSpan renders a value as inline code so markdown inside it stays literal
func codeSpan(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	longest, run := 0, 0
	for _, r := range v {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	fence := strings.Repeat("`", longest+1)
	if longest > 0 || v == "" {
		v = " " + v + " "
	}
	return fence + v + fence
}

// CaptionHTML renders the caption markdown
func CaptionHTML(plot *rd.Plot) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML | html.Safelink})
	return string(markdown.ToHTML([]byte(CaptionMarkdown(plot)), p, renderer))
}
