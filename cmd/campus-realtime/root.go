package main

import (
	"strings"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	server    string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "campus-realtime",
		Short:         "Realtime campus event hub",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:4000", "hub base URL for client commands")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")

	cmd.AddCommand(
		newServeCmd(opts),
		newListenCmd(opts),
		newPublishCmd(opts),
		newRoomsCmd(opts),
	)
	return cmd
}

func (o *rootOptions) baseURL() string {
	return strings.TrimSuffix(o.server, "/")
}

func (o *rootOptions) wsURL() string {
	u := o.baseURL()
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}
