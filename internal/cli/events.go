package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/prismeai/prisme-cli/internal/api"
	"github.com/prismeai/prisme-cli/internal/dateformat"
	"github.com/prismeai/prisme-cli/internal/events"
	"github.com/prismeai/prisme-cli/internal/model"
)

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "events", Short: "Read the workspace activity feed"}
	cmd.AddCommand(newEventsListCmd(app))
	cmd.AddCommand(newEventsTailCmd(app))
	cmd.AddCommand(newEventsEmitCmd(app))
	return cmd
}

func eventItem(ev model.Event, f dateformat.Formatter, now time.Time) map[string]any {
	item := map[string]any{
		"id":        ev.ID,
		"type":      ev.Type,
		"createdAt": ev.CreatedAt,
		"time":      f.Format(ev.CreatedAt, dateformat.Options{Format: "p"}),
		"ago":       dateformat.Ago(ev.CreatedAt, now),
	}
	if ev.Source.UserID != "" {
		item["userId"] = ev.Source.UserID
	}
	if ev.Source.AutomationSlug != "" {
		item["automation"] = ev.Source.AutomationSlug
	}
	if len(ev.Payload) > 0 {
		item["payload"] = ev.Payload
	}
	if ev.Failed() {
		item["failed"] = true
		if ev.Error != nil {
			item["error"] = ev.Error
		}
	}
	return item
}

func newEventsListCmd(app *App) *cobra.Command {
	var q api.EventsQuery
	var pages int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent events grouped by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			c := app.client()
			feed := events.NewFeed(time.Local)
			fetch := func(ctx context.Context, before time.Time) ([]model.Event, error) {
				page := q
				page.BeforeDate = before
				return c.GetEvents(ctx, app.WorkspaceID, page), nil
			}
			for i := 0; i < pages && feed.HasMore(); i++ {
				if _, _, err := feed.FetchNext(ctx, fetch); err != nil {
					return writeFailure(cmd, app, "request_failed", err, "", nil)
				}
			}

			f := dateformat.New(app.Lang)
			now := time.Now()
			days := make([]map[string]any, 0)
			for _, d := range feed.Days() {
				items := make([]map[string]any, 0, len(d.Events))
				for _, ev := range d.Events {
					items = append(items, eventItem(ev, f, now))
				}
				days = append(days, map[string]any{
					"day":    d.Key,
					"label":  f.Format(d.Date, dateformat.Options{Format: "PPP"}),
					"events": items,
				})
			}
			meta := map[string]any{"total": feed.Len(), "hasMore": feed.HasMore()}
			return writeData(cmd, app, meta, map[string]any{"days": days})
		},
	}
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "Events per page")
	cmd.Flags().IntVar(&pages, "pages", 1, "How many pages to load")
	cmd.Flags().StringSliceVar(&q.Types, "type", nil, "Only these event types (prefix.* allowed)")
	cmd.Flags().StringVar(&q.Text, "text", "", "Full-text filter")
	return cmd
}

func newEventsTailCmd(app *App) *cobra.Command {
	var count int
	var types []string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream live events (one JSON document per event)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmdContext(cmd))
			defer cancel()
			if timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			stream := events.Dial(ctx, events.Options{
				BaseURL:     app.APIURL,
				WorkspaceID: app.WorkspaceID,
				Token:       app.Token,
				Logger:      app.logger(),
			})
			defer stream.Destroy()

			received := make(chan model.Event, 64)
			push := func(ev model.Event) {
				select {
				case received <- ev:
				default:
					app.logger().Warn("dropping event, output is too slow", "type", ev.Type)
				}
			}
			if len(types) == 0 {
				defer stream.All(push)()
			}
			for _, t := range types {
				defer stream.On(t, push)()
			}

			f := dateformat.New(app.Lang)
			seen := 0
			for {
				select {
				case ev := <-received:
					seen++
					if err := writeData(cmd, app, nil, map[string]any{"event": eventItem(ev, f, time.Now())}); err != nil {
						return err
					}
					if count > 0 && seen >= count {
						return nil
					}
				case <-stream.Done():
					if err := stream.Err(); err != nil && ctx.Err() == nil {
						return writeFailure(cmd, app, "stream_failed", err, "Check --api and your token.", nil)
					}
					return nil
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many events (0 = follow)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Only these event types")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop after this duration")
	return cmd
}

func newEventsEmitCmd(app *App) *cobra.Command {
	var set []string
	cmd := &cobra.Command{
		Use:   "emit <type>",
		Short: "Emit a custom event in the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireWorkspace(cmd, app); err != nil {
				return err
			}
			payload, err := parseAssignments(set)
			if err != nil {
				return writeFailure(cmd, app, "invalid_input", err, "Use --set key=value.", nil)
			}
			ev, err := app.client().EmitEvent(cmdContext(cmd), app.WorkspaceID, args[0], payload)
			if err != nil {
				return writeAPIFailure(cmd, app, err)
			}
			return writeData(cmd, app, nil, map[string]any{"event": ev})
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "Payload value key=value (repeatable)")
	return cmd
}
