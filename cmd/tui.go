package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/topgenres/internal/session"
	"github.com/desertthunder/topgenres/internal/shared"
	"github.com/desertthunder/topgenres/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiAuthTimeout = 2 * time.Minute

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	conn := &tuiConnector{runner: r, ctx: ctx, state: shared.GenerateID()}
	ctrl, err := r.controller(ctx, conn.navigate, nil)
	if err != nil {
		return err
	}
	conn.ctrl = ctrl
	defer ctrl.Close()
	defer conn.stop()

	if err := ctrl.Start(ctx, ""); err != nil {
		return err
	}

	model := ui.NewModel(ctx, ctrl, conn.state)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// tuiConnector is the TUI's [session.Navigator]. Each call starts a fresh callback server
// that hands the captured credential to the controller, then opens the browser.
type tuiConnector struct {
	runner *Runner
	ctx    context.Context
	state  string
	ctrl   *session.Controller

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (c *tuiConnector) navigate(authURL string) error {
	c.stop()

	flow, err := c.runner.listenForCallback(c.runner.codec(), c.state)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.ctx)
	done := make(chan struct{})
	c.mu.Lock()
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	go func() {
		defer close(done)
		cred, err := flow.await(ctx, c.runner, tuiAuthTimeout)
		if err != nil {
			c.runner.logger.Warn("authorization did not complete", "error", err)
			return
		}
		if err := c.ctrl.Receive(c.ctx, cred); err != nil {
			c.runner.logger.Error("failed to accept credential", "error", err)
		}
	}()

	return c.runner.navigate(authURL)
}

// stop abandons a pending authorization and waits for its server to shut down.
func (c *tuiConnector) stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
