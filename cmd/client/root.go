package main

import (
	"cmp"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/VoiceNotes/internal/client/api"
	"github.com/atinyakov/VoiceNotes/internal/client/prompt"
	"github.com/atinyakov/VoiceNotes/internal/client/session"
	"github.com/atinyakov/VoiceNotes/internal/logger"
)

const defaultBaseURL = "http://localhost:8080"

func newRootCommand(stdin io.Reader) *cobra.Command {
	ctx := &commandContext{stdin: stdin}

	rootCmd := &cobra.Command{
		Use:           "voicenotes",
		Short:         "Command-line client for the VoiceNotes API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.baseURL, "url", cmp.Or(os.Getenv("VOICENOTES_URL"), defaultBaseURL), "API base URL (env VOICENOTES_URL)")
	flags.StringVar(&ctx.caFile, "ca", "", "PEM file with the CA certificate trusted for HTTPS")
	flags.StringVar(&ctx.sessionPath, "session", "", "session file (default ~/.voicenotes/session.json)")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(
		newRegisterCommand(ctx),
		newLoginCommand(ctx),
		newLogoutCommand(ctx),
		newWhoamiCommand(ctx),
		newListCommand(ctx),
		newSearchCommand(ctx),
		newAddCommand(ctx),
		newRenameCommand(ctx),
		newEditCommand(ctx),
		newFavoriteCommand(ctx),
		newAttachCommand(ctx),
		newDeleteCommand(ctx),
		newRecordCommand(ctx),
		newVersionCommand(),
	)
	return rootCmd
}

// commandContext lazily builds the collaborators shared by all commands.
type commandContext struct {
	baseURL     string
	caFile      string
	sessionPath string
	verbose     bool
	stdin       io.Reader

	once     sync.Once
	log      *zap.Logger
	sessions *session.Manager
	client   *api.Client
	err      error
}

func (c *commandContext) ensure() error {
	c.once.Do(func() {
		lg := logger.New()
		level := "warn"
		if c.verbose {
			level = "debug"
		}
		if c.err = lg.Init(level); c.err != nil {
			return
		}
		c.log = lg.Log

		path := strings.TrimSpace(c.sessionPath)
		if path == "" {
			if path, c.err = session.DefaultPath(); c.err != nil {
				return
			}
		}
		if c.sessions, c.err = session.NewManager(session.NewFileStore(path)); c.err != nil {
			return
		}

		httpClient, err := api.NewHTTPClient(c.caFile)
		if err != nil {
			c.err = err
			return
		}
		c.client = api.New(c.baseURL, httpClient, c.sessions)
		c.log.Debug("client ready", zap.String("url", c.baseURL), zap.String("session", path))
	})
	return c.err
}

// authed returns the API client once a session exists.
func (c *commandContext) authed() (*api.Client, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	if _, err := session.RequireSession(c.sessions); err != nil {
		return nil, err
	}
	return c.client, nil
}

func (c *commandContext) prompter(cmd *cobra.Command) *prompt.Prompter {
	return prompt.New(c.stdin, cmd.ErrOrStderr())
}
