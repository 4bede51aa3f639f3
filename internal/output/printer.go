// Package output formats CLI output: coloured status lines and tables.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ColorMode selects when colours are used.
type ColorMode int

const (
	// ColorAuto colours output unless NO_COLOR is set or TERM is dumb.
	ColorAuto ColorMode = iota
	// ColorAlways forces colours on.
	ColorAlways
	// ColorNever forces colours off.
	ColorNever
)

// ParseColorMode parses "auto", "always" or "never".
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors decides whether to colour output for the given mode.
func ResolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		return os.Getenv("TERM") != "dumb"
	}
}

// Printer writes status lines to stdout and errors to stderr.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer on stdout/stderr.
func NewPrinter(mode ColorMode) *Printer {
	return NewPrinterWithWriters(os.Stdout, os.Stderr, ResolveColors(mode))
}

// NewPrinterWithWriters creates a printer on the given writers.
func NewPrinterWithWriters(out, errw io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: errw, useColors: useColors}
}

// Out returns the standard output writer, for tables.
func (p *Printer) Out() io.Writer { return p.out }

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.out, color.FgCyan, "", "", format, args...)
}

// Success prints a success line.
func (p *Printer) Success(format string, args ...any) {
	p.line(p.out, color.FgGreen, "✓ ", "[OK] ", format, args...)
}

// Warning prints a warning line to stderr.
func (p *Printer) Warning(format string, args ...any) {
	p.line(p.err, color.FgYellow, "⚠ ", "[WARN] ", format, args...)
}

// Error prints an error line to stderr.
func (p *Printer) Error(format string, args ...any) {
	p.line(p.err, color.FgRed, "✗ ", "[ERROR] ", format, args...)
}

// Print prints a plain line.
func (p *Printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Header prints a section header underlined to its width.
func (p *Printer) Header(title string) {
	if p.useColors {
		color.New(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		fmt.Fprintf(p.out, "%s\n", strings.Repeat("─", len([]rune(title))))
		return
	}
	fmt.Fprintf(p.out, "\n%s\n%s\n", title, strings.Repeat("-", len([]rune(title))))
}

// Sentiment colours a sentiment label: green, red or yellow.
func (p *Printer) Sentiment(label string) string {
	if !p.useColors {
		return label
	}
	switch strings.ToLower(label) {
	case "positive":
		return color.GreenString(label)
	case "negative":
		return color.RedString(label)
	case "neutral":
		return color.YellowString(label)
	default:
		return label
	}
}

// Bold returns text in bold.
func (p *Printer) Bold(text string) string {
	if p.useColors {
		return color.New(color.Bold).Sprint(text)
	}
	return text
}

func (p *Printer) line(w io.Writer, attr color.Attribute, colorPrefix, plainPrefix, format string, args ...any) {
	if p.useColors {
		c := color.New(attr)
		c.EnableColor()
		c.Fprintf(w, colorPrefix+format+"\n", args...)
		return
	}
	fmt.Fprintf(w, plainPrefix+format+"\n", args...)
}
