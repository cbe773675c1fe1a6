package listquery

import (
	"net/url"
	"strconv"
	"strings"
)

// Patch maps plain filter names to new values. An empty value unsets the key.
type Patch map[string]string

// Apply merges patch into current and returns a new set of parameters.
// Touching any key other than page sends the view back to page 1, even when
// several keys change at once. Keys the view does not know are ignored.
func Apply(current url.Values, view View, patch Patch) url.Values {
	next := cloneValues(current)

	filterChanged := false
	for name, value := range patch {
		if name == KeyPage || !view.Accepts(name) {
			continue
		}
		filterChanged = true
		key := view.Key(name)
		value = strings.TrimSpace(value)
		if value == "" {
			next.Del(key)
			continue
		}
		next.Set(key, value)
	}

	switch {
	case filterChanged:
		next.Set(view.PageKey(), "1")
	default:
		if page, ok := patch[KeyPage]; ok {
			next.Set(view.PageKey(), strconv.Itoa(ParsePage(page)))
		}
	}
	return next
}

// Clear unsets every clearable filter of the view in one mutation.
func Clear(current url.Values, view View) url.Values {
	patch := make(Patch, len(view.Clearable))
	for _, name := range view.Clearable {
		patch[name] = ""
	}
	return Apply(current, view, patch)
}

func HasActiveFilters(current url.Values, view View) bool {
	for _, name := range view.Clearable {
		if current.Get(view.Key(name)) != "" {
			return true
		}
	}
	return false
}

// CurrentPage reads the view's page, defaulting to 1.
func CurrentPage(current url.Values, view View) int {
	return ParsePage(current.Get(view.PageKey()))
}

func ParsePage(value string) int {
	page, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// JoinValues encodes a multi-valued filter such as roles into one parameter.
func JoinValues(values []string) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, ",")
}

func SplitValues(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, list := range values {
		out[key] = append([]string(nil), list...)
	}
	return out
}
