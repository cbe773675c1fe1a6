package format

import (
	"fmt"
	"io"
	"reflect"
	"sort"
)

// TextFormatter prints key: value lines, one block per item.
type TextFormatter struct {
	out io.Writer
}

func NewTextFormatter(out io.Writer) *TextFormatter {
	return &TextFormatter{out: out}
}

func (f *TextFormatter) Format(data any) error {
	if data == nil {
		fmt.Fprintln(f.out, "No data")
		return nil
	}

	switch v := data.(type) {
	case []map[string]any:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return f.formatList(items)
	case map[string]any:
		f.formatMap(v, "")
		return nil
	case []any:
		return f.formatList(v)
	case string:
		fmt.Fprintln(f.out, v)
		return nil
	}

	value := reflect.ValueOf(data)
	if value.Kind() == reflect.Ptr && !value.IsNil() {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		fmt.Fprintf(f.out, "%v\n", data)
		return nil
	}
	t := value.Type()
	for i := 0; i < value.NumField(); i++ {
		name, ok := fieldName(t.Field(i))
		if !ok {
			continue
		}
		fmt.Fprintf(f.out, "%s: %v\n", name, textValue(value.Field(i).Interface()))
	}
	return nil
}

func (f *TextFormatter) formatList(items []any) error {
	if len(items) == 0 {
		fmt.Fprintln(f.out, "No data")
		return nil
	}
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			fmt.Fprintf(f.out, "%v\n", textValue(item))
			continue
		}
		if i > 0 {
			fmt.Fprintln(f.out)
		}
		fmt.Fprintf(f.out, "Item %d:\n", i+1)
		f.formatMap(m, "  ")
	}
	return nil
}

func (f *TextFormatter) formatMap(data map[string]any, indent string) {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(f.out, "%s%s: %v\n", indent, key, textValue(data[key]))
	}
}

func textValue(value any) any {
	if value == nil {
		return "N/A"
	}
	if s, ok := value.(*string); ok {
		if s == nil {
			return "N/A"
		}
		return *s
	}
	return value
}
