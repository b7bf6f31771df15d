package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/campus-realtime/internal/log"
	"github.com/vovakirdan/campus-realtime/internal/proto"
	transportnats "github.com/vovakirdan/campus-realtime/internal/transport/nats"
)

type publishOptions struct {
	env        proto.PublishEnvelope
	data       string
	natsURL    string
	natsPrefix string
}

func newPublishCmd(root *rootOptions) *cobra.Command {
	opts := &publishOptions{}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish an event through the REST API or NATS",
		Example: `  campus-realtime publish --kind announcement:new --room role:faculty \
    --data '{"id":1,"title":"Exam Schedule","priority":"high"}'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !json.Valid([]byte(opts.data)) {
				return errors.New("--data must be a JSON object")
			}
			opts.env.Data = json.RawMessage(opts.data)

			var summary proto.PublishSummary
			if opts.natsURL != "" {
				nc, err := transportnats.Connect(opts.natsURL, "campus-realtime-cli", log.New(root.logLevel, root.logFormat))
				if err != nil {
					return err
				}
				defer nc.Close()
				if summary, err = transportnats.Request(cmd.Context(), nc, opts.natsPrefix, opts.env); err != nil {
					return err
				}
			} else if err := callAPI(cmd.Context(), http.MethodPost, root.baseURL()+"/api/events", opts.env, &summary); err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.env.Kind, "kind", "", "event kind, e.g. assignment:new")
	f.StringSliceVar(&opts.env.Rooms, "room", nil, "target room (user:<id> or role:<role>), repeatable")
	f.StringVar(&opts.env.UserID, "user", "", "target the room of this user id")
	f.StringVar(&opts.env.Role, "role", "", "target the room of this role")
	f.BoolVar(&opts.env.Broadcast, "broadcast", false, "deliver to every connection")
	f.StringVar(&opts.data, "data", "{}", "event payload as JSON")
	f.StringVar(&opts.natsURL, "nats", "", "publish over this NATS server instead of HTTP")
	f.StringVar(&opts.natsPrefix, "subject-prefix", "campus.events", "NATS subject prefix")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func printSummary(w io.Writer, s proto.PublishSummary) {
	if s.Duplicate {
		fmt.Fprintf(w, "%s suppressed as duplicate\n", s.Kind)
		return
	}
	fmt.Fprintf(w, "%s delivered to %d connection(s), %d failed\n", s.Kind, len(s.Delivered), len(s.Failed))

	rows := make([][]string, 0, len(s.Delivered)+len(s.Failed))
	for _, id := range s.Delivered {
		rows = append(rows, []string{id, "delivered"})
	}
	failed := make([]string, 0, len(s.Failed))
	for id := range s.Failed {
		failed = append(failed, id)
	}
	slices.Sort(failed)
	for _, id := range failed {
		rows = append(rows, []string{id, s.Failed[id]})
	}
	if len(rows) > 0 {
		renderTable(w, []string{"Connection", "Outcome"}, rows)
	}
}
