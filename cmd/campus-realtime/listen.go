package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/campus-realtime/client"
	"github.com/vovakirdan/campus-realtime/internal/log"
)

type listenOptions struct {
	userID string
	role   string
	kinds  []string
	count  int
}

func newListenCmd(root *rootOptions) *cobra.Command {
	opts := &listenOptions{}

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Connect as a client, join rooms and print incoming events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.userID == "" && opts.role == "" {
				return errors.New("--user or --role is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := client.DefaultConfig()
			cfg.URL = root.wsURL()
			logLevel := root.logLevel
			if logLevel == "" {
				logLevel = "warn"
			}
			c := client.New(cfg, log.New(logLevel, root.logFormat))
			defer c.Close()

			return listen(ctx, c, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.userID, "user", "", "user id to join as")
	f.StringVar(&opts.role, "role", "", "role to join as (Student, Faculty, HOD, DEAN)")
	f.StringSliceVar(&opts.kinds, "kind", nil, "only print these event kinds (default all)")
	f.IntVar(&opts.count, "count", 0, "exit after this many events (0 = run until interrupted)")
	return cmd
}

func listen(ctx context.Context, c *client.Client, opts *listenOptions, out io.Writer) error {
	var (
		mu       sync.Mutex
		received int
		done     = make(chan struct{})
		doneOnce sync.Once
	)

	say := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, line)
	}
	show := func(ev client.Event) {
		mu.Lock()
		defer mu.Unlock()
		received++
		fmt.Fprintf(out, "%s %s %s\n",
			color.New(color.FgGray).Render(time.Now().Format(time.TimeOnly)),
			color.New(color.FgGreen, color.OpBold).Render(ev.Kind),
			string(ev.Data))
		if opts.count > 0 && received >= opts.count {
			doneOnce.Do(func() { close(done) })
		}
	}

	kinds := opts.kinds
	if len(kinds) == 0 {
		kinds = []string{client.AnyKind}
	}
	for _, kind := range kinds {
		sub := c.Subscribe(kind, show)
		defer sub.Unsubscribe()
	}

	c.OnConnect(func(id string) {
		say(color.New(color.FgCyan).Render("connected as " + id))
	})
	c.OnDisconnect(func(err error) {
		say(color.New(color.FgYellow).Render(fmt.Sprintf("disconnected: %v", err)))
	})
	c.OnConnectError(func(err error) {
		say(color.New(color.FgRed).Render(fmt.Sprintf("connect error: %v", err)))
	})

	if err := c.Connect(ctx); err != nil {
		return err
	}
	rooms, err := c.Join(ctx, opts.userID, opts.role)
	if err != nil {
		return err
	}
	say(fmt.Sprintf("joined %v", rooms))

	select {
	case <-ctx.Done():
	case <-done:
	}
	return nil
}
