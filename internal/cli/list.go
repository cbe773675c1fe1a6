package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/fillipgms/admin-playfiver-sub001/internal/entity"
	"github.com/fillipgms/admin-playfiver-sub001/internal/format"
	"github.com/fillipgms/admin-playfiver-sub001/internal/listquery"
	"github.com/fillipgms/admin-playfiver-sub001/internal/service"

	"github.com/spf13/cobra"
)

type listOptions struct {
	page   int
	search string
	filter string
	roles  []string
	where  map[string]string
}

func (o listOptions) patch() listquery.Patch {
	patch := listquery.Patch{}
	if o.search != "" {
		patch[listquery.KeySearch] = o.search
	}
	if o.filter != "" {
		patch[listquery.KeyFilter] = o.filter
	}
	if len(o.roles) > 0 {
		patch[listquery.KeyRole] = listquery.JoinValues(o.roles)
	}
	for name, value := range o.where {
		patch[name] = value
	}
	return patch
}

// query builds the view's parameters: filters first, which reset the page,
// then the requested page.
func (o listOptions) query(view listquery.View) url.Values {
	query := listquery.Apply(url.Values{}, view, o.patch())
	if o.page > 0 {
		query = listquery.Apply(query, view, listquery.Patch{listquery.KeyPage: strconv.Itoa(o.page)})
	}
	return query
}

func viewNames() []string {
	views := listquery.Views()
	names := make([]string, 0, len(views))
	for _, view := range views {
		names = append(names, view.Name)
	}
	return names
}

func (a *App) listCommand() *cobra.Command {
	var options listOptions
	cmd := &cobra.Command{
		Use:       "list <view>",
		Short:     "Show one page of a dashboard list",
		Long:      "Show one page of a dashboard list. Views: " + strings.Join(viewNames(), ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: viewNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, ok := listquery.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown view %q, expected one of %s", args[0], strings.Join(viewNames(), ", "))
			}
			for name := range options.where {
				if name == listquery.KeyPage || !view.Accepts(name) {
					return fmt.Errorf("view %s has no filter %q", view.Name, name)
				}
			}
			return a.showList(cmd.Context(), view, options.query(view))
		},
	}
	cmd.Flags().IntVarP(&options.page, "page", "p", 0, "page number")
	cmd.Flags().StringVarP(&options.search, "search", "s", "", "search text")
	cmd.Flags().StringVar(&options.filter, "filter", "", "status filter")
	cmd.Flags().StringSliceVar(&options.roles, "role", nil, "roles to include (users view)")
	cmd.Flags().StringToStringVar(&options.where, "where", nil, "other filters as name=value, e.g. start_date=2024-01-01")
	return cmd
}

func (a *App) dashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.clients()
			session, err := a.requireSession(c)
			if err != nil {
				return err
			}
			metrics, err := c.lists.Dashboard(cmd.Context(), session)
			if err != nil {
				return a.platformFailure(c, session, err)
			}
			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			return formatter.Format(metrics)
		},
	}
}

func (a *App) showList(ctx context.Context, view listquery.View, query url.Values) error {
	c := a.clients()
	session, err := a.requireSession(c)
	if err != nil {
		return err
	}
	result, err := c.lists.Fetch(ctx, session, view.Name, query)
	if err != nil {
		return a.platformFailure(c, session, err)
	}
	return a.renderList(result)
}

func (a *App) renderList(result *service.ListResult) error {
	formatter, err := a.formatter()
	if err != nil {
		return err
	}
	rows := decodeRows(result.Items)

	switch formatter.(type) {
	case *format.TableFormatter, *format.TextFormatter:
		if err := formatter.Format(rows); err != nil {
			return err
		}
		page := result.Pagination
		a.printer().Info("Page %d of %d, %d total", page.CurrentPage, page.LastPage, page.Total)
		if len(result.Filters) > 0 {
			a.printer().Info("Filters: %s", describeFilters(result.Filters))
		}
		return nil
	default:
		return formatter.Format(map[string]any{
			"view":       result.View,
			"filters":    result.Filters,
			"pagination": result.Pagination,
			"items":      rows,
		})
	}
}

func (a *App) requireSession(c *clients) (*entity.Session, error) {
	session, err := c.sessions.Current()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errNotLoggedIn
	}
	return session, nil
}

// platformFailure drops the stored session once the platform stops
// accepting its token.
func (a *App) platformFailure(c *clients, session *entity.Session, err error) error {
	if errors.Is(err, service.ErrSessionNotFound) {
		if clearErr := c.sessions.Delete(context.Background(), session.ID); clearErr != nil {
			return clearErr
		}
		return fmt.Errorf("session expired, run dashctl login")
	}
	return err
}

func decodeRows(items []json.RawMessage) []map[string]any {
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		var row map[string]any
		if err := json.Unmarshal(item, &row); err != nil {
			var value any
			_ = json.Unmarshal(item, &value)
			row = map[string]any{"value": value}
		}
		rows = append(rows, row)
	}
	return rows
}

func describeFilters(filters map[string]string) string {
	parts := make([]string, 0, len(filters))
	for name, value := range filters {
		parts = append(parts, name+"="+value)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
