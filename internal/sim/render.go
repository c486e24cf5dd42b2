package sim

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	offsetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(9).Align(lipgloss.Right)
	kindStyle   = lipgloss.NewStyle().Bold(true).Width(7).PaddingLeft(1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

	kindColors = map[string]lipgloss.Color{
		"input":  lipgloss.Color("33"),
		"phase":  lipgloss.Color("252"),
		"alarm":  lipgloss.Color("214"),
		"backup": lipgloss.Color("244"),
		"expect": lipgloss.Color("2"),
	}
)

// Render formats the replay timeline followed by a pass/fail summary.
func Render(result *Result) string {
	var builder strings.Builder
	if result.Name != "" {
		builder.WriteString(titleStyle.Render(result.Name))
		builder.WriteString("\n")
	}

	for _, entry := range result.Timeline {
		kind := kindStyle
		if color, ok := kindColors[entry.Kind]; ok {
			kind = kind.Foreground(color)
		}
		detail := entry.Detail
		if entry.Failed {
			kind = kind.Foreground(lipgloss.Color("1"))
			detail = failStyle.Render("FAIL " + detail)
		}
		builder.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			offsetStyle.Render(FormatOffset(entry.At)),
			kind.Render(entry.Kind),
			" "+detail,
		))
		builder.WriteString("\n")
	}

	if result.Passed() {
		builder.WriteString(passStyle.Render("PASS"))
	} else {
		builder.WriteString(failStyle.Render(fmt.Sprintf("FAIL: %d expectation(s) failed", result.Failures)))
	}
	builder.WriteString("\n")
	return builder.String()
}

// FormatOffset renders an offset as +m:ss with millisecond precision when needed.
func FormatOffset(offset time.Duration) string {
	if offset < 0 {
		offset = 0
	}
	minutes := int(offset / time.Minute)
	seconds := int((offset % time.Minute) / time.Second)
	millis := int((offset % time.Second) / time.Millisecond)
	if millis != 0 {
		return fmt.Sprintf("+%d:%02d.%03d", minutes, seconds, millis)
	}
	return fmt.Sprintf("+%d:%02d", minutes, seconds)
}
