package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/VoiceNotes/internal/client/capture"
	"github.com/atinyakov/VoiceNotes/internal/client/view"
	"github.com/atinyakov/VoiceNotes/internal/models"
)

// locatePageSize is the largest page the server accepts; it keeps the scan
// for a note by id short.
const locatePageSize = 100

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		page   int
		limit  int
		sort   string
		search string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authed()
			if err != nil {
				return err
			}
			v := view.NewNotesView(client, limit)
			if err := v.Open(cmd.Context(), page, sort, search); err != nil {
				return err
			}
			state := v.State()
			if asJSON || !isTerminal(cmd.OutOrStdout()) {
				return writeJSON(cmd, models.NoteList{
					Notes:       state.Notes,
					Total:       state.Total,
					TotalPages:  state.TotalPages,
					CurrentPage: state.Page,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderNotes(state, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "notes per page")
	cmd.Flags().StringVar(&sort, "sort", models.DefaultSort, "sort field, prefix with - for descending")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only notes whose title or content contains this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title, content string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a text note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authed()
			if err != nil {
				return err
			}
			p := ctx.prompter(cmd)
			if strings.TrimSpace(title) == "" {
				if title, err = p.Ask("Title: "); err != nil {
					return err
				}
			}
			if strings.TrimSpace(content) == "" {
				if content, err = p.NoteContent(); err != nil {
					return err
				}
			}
			note, err := view.ComposeTextNote(time.Now(), title, content)
			if err != nil {
				return err
			}
			created, err := client.CreateNote(cmd.Context(), note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created note %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "note title (prompted when empty)")
	cmd.Flags().StringVarP(&content, "content", "m", "", "note text (prompted when empty)")
	return cmd
}

func newRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Change a note's title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authed()
			if err != nil {
				return err
			}
			if err := view.NewNotesView(client, 0).Rename(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Note renamed")
			return nil
		},
	}
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var title, content string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a note's title or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authed()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("title") && !cmd.Flags().Changed("content") {
				return fmt.Errorf("%w: pass --title or --content", models.ErrValidation)
			}
			v := view.NewNotesView(client, locatePageSize)
			n, err := v.Locate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("title") {
				title = n.Title
			}
			if !cmd.Flags().Changed("content") {
				content = n.Content
			}
			if err := v.Edit(cmd.Context(), n.ID, title, content); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Note updated")
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&content, "content", "m", "", "new content")
	return cmd
}

func newFavoriteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle a note's favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authed()
			if err != nil {
				return err
			}
			v := view.NewNotesView(client, locatePageSize)
			n, err := v.Locate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := v.ToggleFavorite(cmd.Context(), n.ID); err != nil {
				return err
			}
			if n.IsFavorite {
				fmt.Fprintln(cmd.OutOrStdout(), "Removed from favorites")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Added to favorites")
			}
			return nil
		},
	}
}

func newAttachCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <image-file>",
		Short: "Append an image to a note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authed()
			if err != nil {
				return err
			}
			dataURL, err := loadImage(args[1])
			if err != nil {
				return err
			}
			v := view.NewNotesView(client, locatePageSize)
			if _, err := v.Locate(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := v.AppendImage(cmd.Context(), args[0], dataURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Image attached")
			return nil
		},
	}
}

// loadImage reads an image file and inlines it as a data URL.
func loadImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: %s is not an image (%s)", models.ErrValidation, path, mimeType)
	}
	return capture.EncodeDataURL(mimeType, data), nil
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authed()
			if err != nil {
				return err
			}
			if err := view.NewNotesView(client, 0).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Note deleted successfully")
			return nil
		},
	}
}
