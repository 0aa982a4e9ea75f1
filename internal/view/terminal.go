// Package view handles terminal presentation: colour, width, wrapping and
// paging of long output.
package view

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	ansiReset     = "\x1b[0m"
	ansiBoldWhite = "\x1b[1;97m"
	ansiMuted     = "\x1b[38;5;245m"
	ansiAccent    = "\x1b[38;5;44m"
	ansiKeyword   = "\x1b[38;5;220m"
)

// ColorChoice is the --color/--no-color outcome.
type ColorChoice int

const (
	ColorAuto ColorChoice = iota
	ColorAlways
	ColorNever
)

// UseColor resolves choice for out.
func UseColor(choice ColorChoice, out io.Writer) bool {
	switch choice {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return shouldUseColorAuto(out)
	}
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return IsTerminal(out)
}

// IsTerminal reports whether out is an interactive terminal.
func IsTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Width returns wrap when positive, otherwise the terminal width of out,
// then $COLUMNS, then 80.
func Width(out io.Writer, wrap int) int {
	if wrap > 0 {
		return wrap
	}
	if file, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func colorize(enabled bool, code string, text string) string {
	if !enabled {
		return text
	}
	return code + text + ansiReset
}

// Label styles a key in key/value output.
func Label(enabled bool, text string) string { return colorize(enabled, ansiBoldWhite, text) }

// Muted styles secondary text.
func Muted(enabled bool, text string) string { return colorize(enabled, ansiMuted, text) }

// Accent styles names the user is looking for, such as topics.
func Accent(enabled bool, text string) string { return colorize(enabled, ansiAccent, text) }

func wrapLines(lines []string, width int) []string {
	var out []string
	for _, line := range lines {
		out = append(out, wrapText(line, width)...)
	}
	return out
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	text = strings.TrimRight(text, " ")
	if text == "" {
		return []string{""}
	}
	var out []string
	var current strings.Builder
	currentWidth := 0

	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > width && current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
			currentWidth = 0
		}
		current.WriteRune(r)
		currentWidth += rw
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func visibleWidth(text string) int {
	return runewidth.StringWidth(ansiPattern.ReplaceAllString(text, ""))
}

// Page writes lines through $PAGER (or less) when out is a terminal and the
// text does not fit on one screen; otherwise it writes them directly.
func Page(out io.Writer, lines []string, colorEnabled bool) error {
	if !IsTerminal(out) || !exceedsScreen(out, lines) {
		return writeLines(out, lines)
	}

	text := strings.Join(lines, "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	pagerCmd := os.Getenv("PAGER")
	var cmd *exec.Cmd
	if pagerCmd == "" {
		args := []string{"less"}
		if colorEnabled {
			args = append(args, "-R")
		}
		cmd = exec.Command(args[0], args[1:]...) // #nosec G204
	} else {
		cmd = exec.Command("sh", "-c", pagerCmd) // #nosec G204
	}

	cmd.Stdout = out
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create pager pipe: %w", err)
	}
	go func() {
		defer stdin.Close()
		io.WriteString(stdin, text) //nolint:errcheck
	}()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run pager: %w", err)
	}
	return nil
}

func exceedsScreen(out io.Writer, lines []string) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	_, h, err := term.GetSize(int(file.Fd()))
	if err != nil || h <= 0 {
		return false
	}
	return len(lines) >= h
}

func writeLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
