package cli

import (
	"bufio"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/internal/listquery"

	"github.com/spf13/cobra"
)

// searchCommand reads search text line by line, as if typed into the
// dashboard's search box, and only queries once the input goes quiet.
func (a *App) searchCommand() *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "search <view>",
		Short: "Incremental search over a list, one query per pause in the input",
		Long: `Reads search text from stdin, one line per keystroke batch. A query is
sent only after the input has been quiet for --wait, and always for the
last line before the input closes.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: viewNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, ok := listquery.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown view %q, expected one of %s", args[0], strings.Join(viewNames(), ", "))
			}
			if !view.Accepts(listquery.KeySearch) {
				return fmt.Errorf("view %s has no search", view.Name)
			}

			var (
				mutex   sync.Mutex
				lastErr error
			)
			run := func(term string) {
				mutex.Lock()
				defer mutex.Unlock()

				fmt.Fprintf(a.Out, "search: %q\n", term)
				query := listquery.Apply(nil, view, listquery.Patch{listquery.KeySearch: term})
				if err := a.showList(cmd.Context(), view, query); err != nil {
					a.printer().Error("%s", err)
					lastErr = err
				}
			}

			debouncer := listquery.NewDebouncer(wait, run)
			scanner := bufio.NewScanner(a.lineReader())
			for scanner.Scan() {
				debouncer.Push(strings.TrimSpace(scanner.Text()))
			}
			debouncer.Flush()
			debouncer.Stop()

			mutex.Lock()
			defer mutex.Unlock()
			if err := scanner.Err(); err != nil {
				return err
			}
			return lastErr
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", listquery.SearchDebounce, "quiet period before a query is sent")
	return cmd
}
