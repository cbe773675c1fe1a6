package format

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter handles JSON output formatting
type JSONFormatter struct {
	out    io.Writer
	pretty bool
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(out io.Writer, pretty bool) *JSONFormatter {
	return &JSONFormatter{out: out, pretty: pretty}
}

// Format formats data as JSON
func (f *JSONFormatter) Format(data any) error {
	var output []byte
	var err error

	if f.pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, err = fmt.Fprintln(f.out, string(output))
	return err
}
