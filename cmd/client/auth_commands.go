package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type credentialFlags struct {
	email    string
	password string
	name     string
}

func (f *credentialFlags) bind(cmd *cobra.Command, withName bool) {
	cmd.Flags().StringVar(&f.email, "email", "", "account email (prompted when empty)")
	cmd.Flags().StringVar(&f.password, "password", "", "account password (prompted when empty)")
	if withName {
		cmd.Flags().StringVar(&f.name, "name", "", "display name (prompted when empty)")
	}
}

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			email, password, name, err := ctx.prompter(cmd).Credentials(creds.email, creds.password, creds.name, true)
			if err != nil {
				return err
			}
			res, err := ctx.client.Register(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s <%s>\n", res.User.Name, res.User.Email)
			return nil
		},
	}
	creds.bind(cmd, true)
	return cmd
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			email, password, _, err := ctx.prompter(cmd).Credentials(creds.email, creds.password, "", false)
			if err != nil {
				return err
			}
			res, err := ctx.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", res.User.Name, res.User.Email)
			return nil
		},
	}
	creds.bind(cmd, false)
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			if err := ctx.client.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.authed(); err != nil {
				return err
			}
			s, _ := ctx.sessions.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", s.User.Name, s.User.Email, s.User.ID)
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\nBuild date: %s\n", valueOrNA(version), valueOrNA(buildDate))
		},
	}
}

func valueOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
