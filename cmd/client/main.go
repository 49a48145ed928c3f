// Package main is the command-line client of the notes API. It keeps the
// session on disk between invocations and can record voice notes from audio
// files.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/atinyakov/VoiceNotes/internal/models"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	cmd := newRootCommand(os.Stdin)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, describeError(err))
		}
		os.Exit(1)
	}
}

// describeError adds a hint for errors the user can fix by logging in.
func describeError(err error) string {
	switch {
	case errors.Is(err, models.ErrAuthRequired), errors.Is(err, models.ErrUnauthorized):
		return err.Error() + "; run `voicenotes login` first"
	default:
		return err.Error()
	}
}
