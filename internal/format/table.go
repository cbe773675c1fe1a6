package format

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// TableFormatter handles table output formatting
type TableFormatter struct {
	out       io.Writer
	useColors bool
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(out io.Writer, useColors bool) *TableFormatter {
	return &TableFormatter{out: out, useColors: useColors}
}

// Format formats data as a table
func (f *TableFormatter) Format(data any) error {
	if data == nil {
		fmt.Fprintln(f.out, "No data to display")
		return nil
	}

	switch v := data.(type) {
	case []map[string]any:
		return f.formatMapSlice(v)
	case map[string]any:
		return f.formatSingleMap(v)
	case []any:
		return f.formatInterfaceSlice(v)
	default:
		return f.formatReflection(data)
	}
}

// formatMapSlice prints one row per map. Columns are the union of keys,
// id first and the rest sorted.
func (f *TableFormatter) formatMapSlice(data []map[string]any) error {
	if len(data) == 0 {
		fmt.Fprintln(f.out, "No data to display")
		return nil
	}

	headers := columns(data)
	table := f.newTable(headers)
	for _, row := range data {
		values := make([]string, len(headers))
		for i, key := range headers {
			values[i] = f.formatValue(row[key])
		}
		table.Append(values)
	}
	table.Render()
	return nil
}

// formatSingleMap formats a single map as a vertical table
func (f *TableFormatter) formatSingleMap(data map[string]any) error {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	table := f.newTable([]string{"Property", "Value"})
	for _, key := range keys {
		table.Append([]string{key, f.formatValue(data[key])})
	}
	table.Render()
	return nil
}

func (f *TableFormatter) formatInterfaceSlice(data []any) error {
	if len(data) == 0 {
		fmt.Fprintln(f.out, "No data to display")
		return nil
	}

	mapData := make([]map[string]any, 0, len(data))
	for _, item := range data {
		m, ok := item.(map[string]any)
		if !ok {
			return f.formatSimpleList(data)
		}
		mapData = append(mapData, m)
	}
	return f.formatMapSlice(mapData)
}

func (f *TableFormatter) formatSimpleList(data []any) error {
	table := f.newTable([]string{"Value"})
	for _, item := range data {
		table.Append([]string{f.formatValue(item)})
	}
	table.Render()
	return nil
}

// formatReflection uses reflection to format unknown types
func (f *TableFormatter) formatReflection(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			fmt.Fprintln(f.out, "No data to display")
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return f.formatStruct(v)
	case reflect.Slice:
		items := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			items[i] = v.Index(i).Interface()
		}
		return f.formatInterfaceSlice(items)
	default:
		fmt.Fprintf(f.out, "%v\n", data)
		return nil
	}
}

// formatStruct prints exported fields under their json names.
func (f *TableFormatter) formatStruct(v reflect.Value) error {
	t := v.Type()
	table := f.newTable([]string{"Field", "Value"})
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		name, ok := fieldName(field)
		if !ok {
			continue
		}
		table.Append([]string{name, f.formatValue(v.Field(i).Interface())})
	}
	table.Render()
	return nil
}

func (f *TableFormatter) newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(f.out)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	if f.useColors {
		colors := make([]tablewriter.Colors, len(headers))
		for i := range colors {
			colors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiBlueColor}
		}
		table.SetHeaderColor(colors...)
	}
	return table
}

// formatValue formats a value for display
func (f *TableFormatter) formatValue(value any) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', 2, 32)
	case bool:
		if f.useColors {
			if v {
				return color.GreenString("true")
			}
			return color.RedString("false")
		}
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func columns(rows []map[string]any) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		for key := range row {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "id" || keys[j] == "id" {
			return keys[i] == "id"
		}
		return keys[i] < keys[j]
	})
	return keys
}

func fieldName(field reflect.StructField) (string, bool) {
	if !field.IsExported() {
		return "", false
	}
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return "", false
	case "":
		return field.Name, true
	}
	return name, true
}
