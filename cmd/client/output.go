package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/atinyakov/VoiceNotes/internal/client/view"
	"github.com/atinyakov/VoiceNotes/internal/models"
)

const maxTitleWidth = 40

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderNotes draws one page of notes as a table followed by a paging line.
func renderNotes(s view.State, now time.Time) string {
	if len(s.Notes) == 0 {
		if s.Search != "" {
			return fmt.Sprintf("No notes match %q", s.Search)
		}
		return "No notes yet"
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "", "Title", "Type", "Length", "Media", "Modified"})
	for _, n := range s.Notes {
		fav := ""
		if n.IsFavorite {
			fav = "*"
		}
		tw.AppendRow(table.Row{
			n.ID,
			fav,
			text.Trim(n.Title, maxTitleWidth),
			string(n.Type),
			noteLength(n),
			mediaSummary(n),
			humanize.RelTime(n.LastModified, now, "ago", "from now"),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
	})

	footer := fmt.Sprintf("Page %d of %d, %s", s.Page, max(s.TotalPages, 1), pluralNotes(s.Total))
	return tw.Render() + "\n" + footer
}

func noteLength(n models.Note) string {
	if n.Type == models.RecordingNote {
		return n.Duration
	}
	return humanize.Comma(int64(len([]rune(n.Content)))) + " chars"
}

func mediaSummary(n models.Note) string {
	var parts []string
	if n.AudioData != "" {
		parts = append(parts, "audio "+humanize.IBytes(uint64(dataURLSize(n.AudioData))))
	}
	if len(n.Images) > 0 {
		parts = append(parts, humanize.Comma(int64(len(n.Images)))+" img")
	}
	return strings.Join(parts, ", ")
}

// dataURLSize estimates the decoded size of a base64 data URL.
func dataURLSize(dataURL string) int {
	_, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return 0
	}
	return base64.StdEncoding.DecodedLen(len(payload)) - strings.Count(payload, "=")
}

func pluralNotes(n int) string {
	if n == 1 {
		return "1 note"
	}
	return humanize.Comma(int64(n)) + " notes"
}
