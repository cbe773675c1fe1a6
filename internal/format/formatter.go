// Package format renders command output as a table, JSON, YAML or plain text.
package format

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const (
	Table       = "table"
	JSON        = "json"
	JSONCompact = "json-compact"
	YAML        = "yaml"
	Text        = "text"
)

// Formatter writes data in one output format.
type Formatter interface {
	Format(data any) error
}

// New returns the formatter for name writing to out.
func New(name string, out io.Writer, useColors bool) (Formatter, error) {
	switch name {
	case Table, "":
		return NewTableFormatter(out, useColors), nil
	case JSON:
		return NewJSONFormatter(out, true), nil
	case JSONCompact:
		return NewJSONFormatter(out, false), nil
	case YAML:
		return NewYAMLFormatter(out), nil
	case Text:
		return NewTextFormatter(out), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", name)
	}
}

// Printer writes status lines, colored when enabled.
type Printer struct {
	Out       io.Writer
	UseColors bool
}

// Success prints a success message.
func (p Printer) Success(message string, args ...any) {
	p.print(color.FgGreen, "", message, args...)
}

// Error prints an error message.
func (p Printer) Error(message string, args ...any) {
	p.print(color.FgRed, "Error: ", message, args...)
}

// Warning prints a warning message.
func (p Printer) Warning(message string, args ...any) {
	p.print(color.FgYellow, "Warning: ", message, args...)
}

// Info prints an info message.
func (p Printer) Info(message string, args ...any) {
	p.print(color.FgBlue, "", message, args...)
}

func (p Printer) print(attribute color.Attribute, prefix string, message string, args ...any) {
	if p.UseColors {
		c := color.New(attribute)
		c.EnableColor()
		c.Fprintf(p.Out, message+"\n", args...)
		return
	}
	fmt.Fprintf(p.Out, prefix+message+"\n", args...)
}
