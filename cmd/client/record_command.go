package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/VoiceNotes/internal/client/capture"
)

// cliNotifier prints pipeline notifications for the terminal user.
type cliNotifier struct {
	out io.Writer
}

func (n cliNotifier) Alert(msg string) {
	fmt.Fprintln(n.out, msg)
}

func (n cliNotifier) RedirectToLogin() {
	fmt.Fprintln(n.out, "Run `voicenotes login` to sign in.")
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var (
		from      string
		maxLength time.Duration
		threshold int
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a voice note from an audio file",
		Long: "Plays an audio file through the capture pipeline as if it were a microphone.\n" +
			"Recording stops at the end of the file, at --max, or on Ctrl-C; the note is saved once.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authed()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p := capture.NewPipeline(capture.Deps{
				Microphone: capture.FileMicrophone{Path: from},
				Creator:    client,
				Sessions:   ctx.sessions,
				Reducer:    capture.WAVReducer{},
				Notifier:   cliNotifier{out: cmd.ErrOrStderr()},
				Log:        ctx.log,
			}, capture.Config{
				MaxDuration:       maxLength,
				CompressThreshold: threshold,
			})
			return recordNote(runCtx, cmd, p, from)
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "audio file to record from")
	cmd.Flags().DurationVar(&maxLength, "max", capture.DefaultMaxDuration, "recording ceiling")
	cmd.Flags().IntVar(&threshold, "compress-above", capture.DefaultCompressThreshold, "reduce audio larger than this many bytes")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func recordNote(ctx context.Context, cmd *cobra.Command, p *capture.Pipeline, source string) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Recording from %s (Ctrl-C to stop)\n", source)

	res := <-p.Done()
	if res.Err != nil {
		return res.Err
	}
	n := res.Note
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %q (%s) as %s\n", n.Title, n.Duration, n.ID)
	return nil
}
