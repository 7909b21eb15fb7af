package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/topgenres/internal/formatter"
	"github.com/desertthunder/topgenres/internal/genres"
	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/session"
	"github.com/desertthunder/topgenres/internal/shared"
	"github.com/desertthunder/topgenres/internal/ui"
	"github.com/urfave/cli/v3"
)

// Genres loads the genre table for the stored credential, or for a pasted redirect fragment, and prints it.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		format = formatter.FormatJSON
	}

	limit := cmd.Int("limit")
	if limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", shared.ErrInvalidFlag)
	}

	var aggregate func([]models.Artist) models.GenreTable
	if label := strings.TrimSpace(cmd.String("uncategorized")); label != "" {
		opts := genres.Options{Uncategorized: label}
		aggregate = func(artists []models.Artist) models.GenreTable {
			return genres.AggregateWith(artists, opts)
		}
	}

	ctrl, err := r.controller(ctx, nil, aggregate)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.Start(ctx, cmd.String("fragment")); err != nil {
		return err
	}
	ctrl.Wait()

	state := ctrl.State()
	if state.Status != session.Ready {
		return sessionError(state)
	}
	table := state.Genres.Top(limit)
	r.logger.Debug("genres ready", "shown", len(table), "total", len(state.Genres))

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(table, format, path, cmd.Bool("pretty")); err != nil {
			return err
		}
		r.writePlain("✓ Wrote %d genres to %s\n", len(table), path)
		return nil
	}

	switch format {
	case formatter.FormatText:
		return r.writePlain("%s\n", formatter.Render(table, formatter.DefaultBarWidth, ui.BarStyle()))
	case formatter.FormatJSON:
		data, err := formatter.ExportToJSON(table, cmd.Bool("pretty"))
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", data)
	default:
		data, err := formatter.Export(table, format, cmd.Bool("pretty"))
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}
}
