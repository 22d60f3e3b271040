package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// stdout receives all user-facing command output.
var stdout io.Writer = os.Stdout

// Palette shared by the command output and the terminal explorer.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

const iconArrow = "→"

// statusLine is an icon-prefixed message kind.
type statusLine struct {
	icon  string
	style lipgloss.Style
	body  func(string) string
}

var (
	lineSuccess = statusLine{"✓", lipgloss.NewStyle().Foreground(colorGreen), plain}
	lineError   = statusLine{"✗", lipgloss.NewStyle().Foreground(colorRed), plain}
	lineWarning = statusLine{"!", lipgloss.NewStyle().Foreground(colorYellow), renderWith(StyleWarning)}
	lineInfo    = statusLine{"›", lipgloss.NewStyle().Foreground(colorGray), plain}
)

func plain(s string) string { return s }

func renderWith(st lipgloss.Style) func(string) string {
	return func(s string) string { return st.Render(s) }
}

func (l statusLine) print(format string, args ...any) {
	fmt.Fprintln(stdout, l.style.Render(l.icon)+" "+l.body(fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { lineSuccess.print(format, args...) }
func printError(format string, args ...any)   { lineError.print(format, args...) }
func printWarning(format string, args ...any) { lineWarning.print(format, args...) }
func printInfo(format string, args ...any)    { lineInfo.print(format, args...) }

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path an export was written to.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value in a fixed-width key column.
func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints the size of an exported view and whether it came from
// the artifact cache.
func printStats(nodeCount, edgeCount int, cached bool) {
	source := "rendered"
	if cached {
		source = "cached"
	}
	parts := []string{
		fmt.Sprintf("%d nodes", nodeCount),
		fmt.Sprintf("%d edges", edgeCount),
		source,
	}
	fmt.Fprintln(stdout, "  "+StyleDim.Render(strings.Join(parts, " · ")))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}
