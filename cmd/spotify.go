package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/desertthunder/topgenres/internal/auth"
	"github.com/desertthunder/topgenres/internal/formatter"
	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/server"
	"github.com/desertthunder/topgenres/internal/session"
	"github.com/desertthunder/topgenres/internal/shared"
	"github.com/desertthunder/topgenres/internal/ui"
	"github.com/urfave/cli/v3"
)

// Connect authorizes through the browser, stores the credential and loads the genre table once.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	if err := r.cfg().Validate(); err != nil {
		return err
	}

	nav := r.navigate
	if cmd.Bool("no-browser") {
		nav = nil
	}

	ctrl, err := r.controller(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	oauthState := shared.GenerateID()
	callback, err := r.listenForCallback(r.codec(), oauthState)
	if err != nil {
		return err
	}

	authURL, err := ctrl.Connect(oauthState)
	if err != nil {
		callback.stop(r)
		return err
	}

	if nav == nil {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Spotify...\n")
		if err := nav(authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	timeout := cmd.Duration("timeout")
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	cred, err := callback.await(ctx, r, timeout)
	if err != nil {
		return err
	}

	if err := ctrl.Receive(ctx, cred); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	r.writePlain("%s\n", ui.Success("✓ Connected to Spotify"))
	r.writePlain("  Expires: %s\n", cred.ExpiresAt.Local().Format(time.RFC1123))

	ctrl.Wait()
	state := ctrl.State()
	if state.Status != session.Ready {
		return sessionError(state)
	}

	r.writePlain("  Genres: %d across your top artists\n\n", len(state.Genres))
	r.writePlain("%s\n", formatter.Render(state.Genres.Top(10), formatter.DefaultBarWidth, ui.BarStyle()))
	r.writePlainln("Run 'topgenres genres' for the full table.")
	return nil
}

// callbackFlow is one running callback server waiting for a single redirect.
type callbackFlow struct {
	srv     *server.Server
	handler *server.CallbackHandler
}

// listenForCallback starts the callback server on the configured host and port.
func (r *Runner) listenForCallback(codec *auth.Codec, state string) (*callbackFlow, error) {
	handler := server.NewCallbackHandler(codec, state, r.logger)

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.WithRequestID(), server.Logging(r.logger))
	router.Handler(handler)

	cfg := r.cfg().Server
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	srv := server.NewServer(addr, router, r.logger)
	if err := srv.Start(); err != nil {
		return nil, err
	}

	return &callbackFlow{srv: srv, handler: handler}, nil
}

// await blocks until the redirect arrives, the server fails, ctx ends or timeout elapses.
// The server is shut down before returning.
func (f *callbackFlow) await(ctx context.Context, r *Runner, timeout time.Duration) (*models.Credential, error) {
	defer f.stop(r)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.CallbackResult
	select {
	case result = <-f.handler.Result():
	case err := <-f.srv.Errors():
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Credential == nil {
		return nil, fmt.Errorf("%w: no credential received", shared.ErrAuthFailed)
	}
	return result.Credential, nil
}

func (f *callbackFlow) stop(r *Runner) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.srv.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}
}

type statusReport struct {
	Connected   bool      `json:"connected"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
	Remaining   string    `json:"remaining,omitempty"`
	User        string    `json:"user,omitempty"`
	VerifyError string    `json:"verify_error,omitempty"`
}

// Status reports whether a usable credential is stored. Expired records are purged by the lookup.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials(ctx)
	if err != nil {
		return err
	}

	cred, err := creds.Load(ctx)
	if err != nil {
		return err
	}

	report := statusReport{Connected: cred != nil}
	if cred != nil {
		report.ExpiresAt = cred.ExpiresAt
		report.Remaining = cred.Remaining(r.now()).Truncate(time.Second).String()

		if cmd.Bool("verify") {
			user, err := r.profiles().CurrentUser(ctx, cred)
			if err != nil {
				r.logger.Warn("credential verification failed", "error", err)
				report.VerifyError = session.FailureMessage(err)
			} else {
				report.User = user.DisplayName
				if report.User == "" {
					report.User = user.ID
				}
			}
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	if !report.Connected {
		r.writePlain("%s\n", ui.Warning("Not connected. Run 'topgenres connect'."))
		return nil
	}

	r.writePlain("%s\n", ui.Success("✓ Connected"))
	r.writePlain("  Expires: %s (in %s)\n", report.ExpiresAt.Local().Format(time.RFC1123), report.Remaining)
	if report.User != "" {
		r.writePlain("  User: %s\n", report.User)
	}
	if report.VerifyError != "" {
		r.writePlain("  %s\n", ui.Warning("Verification failed: "+report.VerifyError))
	}
	return nil
}

// Disconnect deletes the stored credential.
func (r *Runner) Disconnect(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.controller(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.Disconnect(ctx); err != nil {
		return err
	}

	r.writePlain("%s\n", ui.Success("✓ Disconnected"))
	return nil
}
