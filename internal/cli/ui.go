package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// stdout receives all command output except logs. Tests swap it.
var stdout io.Writer = os.Stdout

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // completed
	colorYellow = lipgloss.Color("220") // budget pressure, interruption
	colorRed    = lipgloss.Color("167") // aborted
	colorBlue   = lipgloss.Color("75")  // links and commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // secondary text
)

// Exported styles.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleLink    = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleOK      = lipgloss.NewStyle().Foreground(colorGreen)
	styleFail    = lipgloss.NewStyle().Foreground(colorRed)
	styleMuted   = lipgloss.NewStyle().Foreground(colorGray)
	styleSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// numbers formats counts and quantities with grouping separators.
var numbers = message.NewPrinter(language.English)

// =============================================================================
// Status lines
// =============================================================================

// status prints one line led by a styled marker.
func status(marker string, style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(stdout, style.Render(marker)+" "+fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { status("✓", styleOK, format, args...) }
func printError(format string, args ...any)   { status("✗", styleFail, format, args...) }
func printInfo(format string, args ...any)    { status("›", styleMuted, format, args...) }

func printWarning(format string, args ...any) {
	status("!", StyleWarning, "%s", StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a path that was written.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() { fmt.Fprintln(stdout) }

// =============================================================================
// Run summaries
// =============================================================================

// printRunStats prints tile counts, throughput, retries and cache hits on
// one line.
func printRunStats(completed, total, retries int, tilesPerSecond float64, cacheHits int) {
	parts := []string{numbers.Sprintf("%d/%d tiles", completed, total)}
	if tilesPerSecond > 0 {
		parts = append(parts, numbers.Sprintf("%.2f tiles/s", tilesPerSecond))
	}
	if retries > 0 {
		parts = append(parts, numbers.Sprintf("%d retries", retries))
	}
	for i, p := range parts {
		parts[i] = StyleDim.Render(p)
	}

	cached := styleMuted.Render("uncached")
	if cacheHits > 0 {
		cached = styleOK.Render(numbers.Sprintf("%d cached", cacheHits))
	}
	parts = append(parts, cached)

	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// formatLitres formats a budget quantity.
func formatLitres(v float64) string {
	return numbers.Sprintf("%.6f L", v)
}
