package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pitchlog/internal/session"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/desertthunder/pitchlog/internal/ui"
	"github.com/desertthunder/pitchlog/internal/wizard"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive match logger.
//
// Taxonomy changes made elsewhere reach the open wizard through the store's watch loop.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	store, err := r.taxonomyStore(ctx)
	if err != nil {
		return err
	}
	snap, err := store.Load(ctx)
	if err != nil {
		r.logger.Warn("starting without a taxonomy", "error", err)
	}

	eventLog, err := r.eventLog()
	if err != nil {
		return err
	}

	wizardCfg := r.config.Wizard
	model := ui.NewModel(ctx, ui.Deps{
		Snapshot:   snap,
		Session:    session.New(nil, eventLog),
		Rules:      wizard.RulesFromConfig(wizardCfg),
		Roster:     r.roster(),
		Observer:   r.metrics,
		SaveKeys:   wizardCfg.SaveKeys,
		CancelKeys: wizardCfg.CancelKeys,
		Logger:     shared.WithLogger(r.logger, "component", "ui"),
	})
	store.OnReload(model.OnReload)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := store.Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("taxonomy watch stopped", "error", err)
		}
	}()

	if addr := cmd.String("metrics-addr"); addr != "" {
		srv := &http.Server{Addr: addr, Handler: r.metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer srv.Close()
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
