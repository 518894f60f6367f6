package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer handles colored output
type Printer struct {
	out      io.Writer
	err      io.Writer
	useColor bool

	success *color.Color
	failure *color.Color
	warning *color.Color
	info    *color.Color
	step    *color.Color
	detail  *color.Color
	key     *color.Color
}

// NewPrinter creates a new printer with color support
func NewPrinter() *Printer {
	return NewPrinterWithWriters(os.Stdout, os.Stderr, !color.NoColor)
}

// NewPrinterWithWriters creates a printer with custom writers (for testing)
func NewPrinterWithWriters(out, err io.Writer, useColor bool) *Printer {
	p := &Printer{
		out:      out,
		err:      err,
		useColor: useColor,
		success:  color.New(color.Bold, color.FgGreen),
		failure:  color.New(color.Bold, color.FgRed),
		warning:  color.New(color.Bold, color.FgYellow),
		info:     color.New(color.Bold, color.FgCyan),
		step:     color.New(color.Bold, color.FgBlue),
		detail:   color.New(color.FgHiBlack),
		key:      color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.success, p.failure, p.warning, p.info, p.step, p.detail, p.key} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Success prints a success message in green
func (p *Printer) Success(format string, args ...interface{}) {
	_, _ = p.success.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message in red
func (p *Printer) Error(format string, args ...interface{}) {
	_, _ = p.failure.Fprintf(p.err, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(format string, args ...interface{}) {
	_, _ = p.warning.Fprintf(p.err, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an info message in cyan
func (p *Printer) Info(format string, args ...interface{}) {
	_, _ = p.info.Fprintf(p.out, "→ %s\n", fmt.Sprintf(format, args...))
}

// Step prints a step message in blue
func (p *Printer) Step(format string, args ...interface{}) {
	_, _ = p.step.Fprintf(p.out, "▶ %s\n", fmt.Sprintf(format, args...))
}

// Detail prints a detail message in gray
func (p *Printer) Detail(format string, args ...interface{}) {
	_, _ = p.detail.Fprintf(p.out, "  %s\n", fmt.Sprintf(format, args...))
}

// KeyValue prints an aligned "key: value" line
func (p *Printer) KeyValue(key, value string) {
	_, _ = fmt.Fprintf(p.out, "  %s %s\n", p.key.Sprintf("%-14s", key+":"), value)
}

// JSON pretty-prints v to stdout
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// Print prints a plain message without color
func (p *Printer) Print(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Println prints a plain message with newline
func (p *Printer) Println(args ...interface{}) {
	_, _ = fmt.Fprintln(p.out, args...)
}
