package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/provisioning"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	okStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	failedStyle  = lipgloss.NewStyle().Foreground(colorRed)
	warningStyle = lipgloss.NewStyle().Foreground(colorYellow)
)

// tierMarks label resources in the plan.
var tierMarks = map[manifest.Tier]string{
	manifest.TierNetwork: "net",
	manifest.TierData:    "dat",
	manifest.TierEdge:    "edg",
	manifest.TierCompute: "cmp",
}

type planView struct {
	Title    string
	Levels   [][]*manifest.Resource
	Total    int
	Errors   []provisioning.ValidationError
	Warnings []provisioning.ValidationError
}

// renderPlan formats the plan. Styles are only applied when styled is set,
// so piped output stays plain text.
func renderPlan(v planView, styled bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(style(titleStyle, "  tierctl plan: "+v.Title))
	b.WriteString("\n")
	b.WriteString(style(dimStyle, "  "+strings.Repeat("=", 40)))
	b.WriteString("\n")

	for i, level := range v.Levels {
		b.WriteString("\n")
		b.WriteString(style(sectionStyle, fmt.Sprintf("  Level %d", i+1)))
		b.WriteString(style(dimStyle, fmt.Sprintf("  (%d in parallel)", len(level))))
		b.WriteString("\n")
		for _, r := range level {
			fmt.Fprintf(&b, "    [%s] %-32s %s\n", tierMarks[r.Tier], r.Key, style(dimStyle, r.Name))
		}
	}

	if len(v.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(style(warningStyle, "  Warnings"))
		b.WriteString("\n")
		for _, w := range v.Warnings {
			b.WriteString("    " + style(warningStyle, "[??]") + " " + w.Error() + "\n")
		}
	}
	if len(v.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(style(failedStyle, "  Errors"))
		b.WriteString("\n")
		for _, e := range v.Errors {
			b.WriteString("    " + style(failedStyle, "[!!]") + " " + e.Error() + "\n")
		}
	}

	b.WriteString("\n")
	if len(v.Errors) == 0 {
		b.WriteString(style(okStyle, fmt.Sprintf("  %d resources in %d levels", v.Total, len(v.Levels))))
	} else {
		b.WriteString(style(failedStyle, fmt.Sprintf("  %d resources, plan is not applicable", v.Total)))
	}
	b.WriteString("\n")
	return b.String()
}
