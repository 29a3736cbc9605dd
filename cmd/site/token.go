package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sentrycore/site/internal/config"
	"github.com/sentrycore/site/internal/service"
)

// NewTokenCmd creates the token command.
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <editor>",
		Short: "Issue a bearer token for the admin API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			conf, err := config.Load(path)
			if err != nil {
				return err
			}

			domainConf := conf.Domain()
			auth := service.NewAuthService(&domainConf)
			token, err := auth.IssueJwt(cmd.Context(), args[0], ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", humanize.Time(time.Now().Add(ttl)))
			return nil
		},
	}
	cmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	return cmd
}
