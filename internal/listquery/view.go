// Package listquery keeps list views (users, agents, logs, reports...) in
// sync with filters and a page number expressed as URL query parameters.
package listquery

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	KeyPage   = "page"
	KeySearch = "search"
	KeyRole   = "role"
	KeyFilter = "filter"
)

// View describes one list. Namespace prefixes every key so several views can
// share a page: namespace "logs" turns "page" into "logsPage" and
// "start_date" into "logsStartDate".
type View struct {
	Name      string
	Namespace string
	Resource  string
	Filters   []string
	Clearable []string
}

func (v View) Key(name string) string {
	if v.Namespace == "" {
		return name
	}
	var builder strings.Builder
	builder.WriteString(v.Namespace)
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(part)
		builder.WriteRune(unicode.ToUpper(first))
		builder.WriteString(part[size:])
	}
	return builder.String()
}

func (v View) PageKey() string {
	return v.Key(KeyPage)
}

// Accepts reports whether name is the page or one of the view's filters.
func (v View) Accepts(name string) bool {
	if name == KeyPage {
		return true
	}
	for _, filter := range v.Filters {
		if filter == name {
			return true
		}
	}
	return false
}

// Values returns the view's current filter values keyed by plain name.
func (v View) Values(current url.Values) map[string]string {
	values := make(map[string]string, len(v.Filters))
	for _, name := range v.Filters {
		if value := current.Get(v.Key(name)); value != "" {
			values[name] = value
		}
	}
	return values
}

// RemoteParams strips the namespace so the platform API sees plain keys.
func (v View) RemoteParams(current url.Values) url.Values {
	params := url.Values{}
	for _, name := range append([]string{KeyPage}, v.Filters...) {
		if value := strings.TrimSpace(current.Get(v.Key(name))); value != "" {
			params.Set(name, value)
		}
	}
	return params
}

var views = []View{
	{
		Name:      "users",
		Resource:  "users",
		Filters:   []string{KeySearch, KeyRole, KeyFilter},
		Clearable: []string{KeySearch, KeyRole, KeyFilter},
	},
	{
		Name:      "agents",
		Resource:  "agents",
		Filters:   []string{KeySearch, KeyFilter},
		Clearable: []string{KeySearch, KeyFilter},
	},
	{
		Name:      "wallets",
		Resource:  "wallets",
		Filters:   []string{KeySearch, KeyFilter},
		Clearable: []string{KeySearch, KeyFilter},
	},
	{
		Name:      "orders",
		Resource:  "orders",
		Filters:   []string{KeySearch, "status", "start_date", "end_date"},
		Clearable: []string{KeySearch, "status"},
	},
	{
		Name:      "logs",
		Namespace: "logs",
		Resource:  "logs",
		Filters:   []string{KeySearch, "type", "level", "start_date", "end_date"},
		Clearable: []string{KeySearch, "type", "level"},
	},
	{
		Name:      "reports",
		Namespace: "relatorio",
		Resource:  "reports",
		Filters:   []string{"start_date", "end_date"},
		Clearable: []string{"start_date", "end_date"},
	},
}

func Lookup(name string) (View, bool) {
	for _, view := range views {
		if view.Name == name {
			return view, true
		}
	}
	return View{}, false
}

func Views() []View {
	out := make([]View, len(views))
	copy(out, views)
	return out
}
