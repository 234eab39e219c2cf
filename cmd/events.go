package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pitchlog/internal/formatter"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/urfave/cli/v3"
)

// EventsList prints logged events, oldest first.
func (r *Runner) EventsList(ctx context.Context, cmd *cli.Command) error {
	eventLog, err := r.eventLog()
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if team := cmd.String("team"); team != "" {
		criteria["team"] = team
	}
	if player := cmd.String("player"); player != "" {
		criteria["player_id"] = player
	}
	if limit := int(cmd.Int("limit")); limit > 0 {
		criteria["limit"] = limit
	}

	events, err := eventLog.Events(ctx, criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(events, true)
	}

	data, err := formatter.ExportToText("", events)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// EventsDelete removes one logged event by id.
func (r *Runner) EventsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: event id", shared.ErrMissingArgument)
	}

	eventLog, err := r.eventLog()
	if err != nil {
		return err
	}
	if err := eventLog.Remove(ctx, id); err != nil {
		return err
	}

	r.writePlain("✓ Removed event %s\n", id)
	return nil
}

// EventsExport writes the whole match log to a file.
func (r *Runner) EventsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	eventLog, err := r.eventLog()
	if err != nil {
		return err
	}
	events, err := eventLog.Events(ctx, nil)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(format, cmd.String("title"), events, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("match log exported", "path", path, "events", len(events), "format", format)
	r.writePlain("✓ Exported %d event(s) to %s\n", len(events), path)
	return nil
}
