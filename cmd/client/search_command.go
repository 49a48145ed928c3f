package main

import (
	"bufio"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/VoiceNotes/internal/client/view"
	"github.com/atinyakov/VoiceNotes/internal/models"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		sort   string
		delay  time.Duration
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search notes as you type",
		Long: "Reads search text line by line from stdin. The list refreshes once typing\n" +
			"pauses for --debounce; end input (Ctrl-D) to quit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authed()
			if err != nil {
				return err
			}
			v := view.NewNotesView(client, limit)
			if err := v.Open(cmd.Context(), 1, sort, ""); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			jsonOut := asJSON || !isTerminal(out)
			var mu sync.Mutex
			var lastErr error
			live := view.NewLiveSearch(v, delay, func(s view.State, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					lastErr = err
					fmt.Fprintln(cmd.ErrOrStderr(), describeError(err))
					return
				}
				lastErr = nil
				if jsonOut {
					_ = writeJSON(cmd, models.NoteList{
						Notes: s.Notes, Total: s.Total, TotalPages: s.TotalPages, CurrentPage: s.Page,
					})
					return
				}
				fmt.Fprintln(out, renderNotes(s, time.Now()))
			})
			defer live.Close()

			fmt.Fprintln(cmd.ErrOrStderr(), "Type to search, Ctrl-D to quit")
			scanner := bufio.NewScanner(ctx.stdin)
			for scanner.Scan() {
				live.Type(cmd.Context(), scanner.Text())
			}
			live.Flush()
			if err := scanner.Err(); err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return lastErr
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "notes per page")
	cmd.Flags().StringVar(&sort, "sort", models.DefaultSort, "sort field, prefix with - for descending")
	cmd.Flags().DurationVar(&delay, "debounce", view.DefaultDebounce, "pause after typing before searching")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
