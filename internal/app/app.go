// Package app assembles the token lifecycle: store, session manager,
// refresh scheduler, transport interceptor, and the API clients that ride
// on top of them.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/footballerweb/ligaclient/internal/api"
	"github.com/footballerweb/ligaclient/internal/config"
	"github.com/footballerweb/ligaclient/internal/refresh"
	"github.com/footballerweb/ligaclient/internal/session"
	"github.com/footballerweb/ligaclient/internal/store"
	"github.com/footballerweb/ligaclient/internal/transport"
	"github.com/footballerweb/ligaclient/pkg/slogx"
)

const (
	// BuildVersion is overridden at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the lifecycle components together for the CLI.
type Application struct {
	cfg    *config.Config
	logger *slog.Logger

	storage   *store.BoltStore
	Session   *session.Manager
	Scheduler *refresh.Scheduler

	// API talks to the remote liga service through the intercepted
	// client, so every call participates in token attachment, rotation,
	// and refresh-and-replay.
	API *api.Client

	// OnTokensRefreshed and OnAuthRequired stand in for the browser
	// custom events of the same names. Set before the first API call.
	OnTokensRefreshed func(access, refresh string)
	OnAuthRequired    func()
}

// New creates an Application from cfg. The returned Application owns the
// token database; call Close when done.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "ligactl",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	storage, err := store.OpenBolt(cfg.StateFile)
	if err != nil {
		return nil, err
	}
	app.storage = storage

	// The auth endpoints are exempt from interception, so the same
	// client is safe for validate and refresh calls.
	bootstrapAPI := api.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.HTTPTimeout})

	app.Session = session.New(storage,
		session.WithLogger(app.logger),
		session.WithValidator(bootstrapAPI),
	)

	app.Scheduler = refresh.New(app.Session, bootstrapAPI,
		refresh.WithBuffer(cfg.RefreshBuffer),
		refresh.WithLogger(app.logger),
		refresh.OnTokensRefreshed(func(access, refreshToken string) {
			if app.OnTokensRefreshed != nil {
				app.OnTokensRefreshed(access, refreshToken)
			}
		}),
	)

	interceptor := transport.New(slogx.HTTPTransport(app.logger, nil), app.Session, app.Scheduler,
		transport.WithLogger(app.logger),
		transport.OnAuthRequired(func() {
			if app.OnAuthRequired != nil {
				app.OnAuthRequired()
			}
		}),
		transport.OnTokensRotated(func(access, refreshToken string) {
			if app.OnTokensRefreshed != nil {
				app.OnTokensRefreshed(access, refreshToken)
			}
		}),
	)

	httpClient := interceptor.Client()
	httpClient.Timeout = cfg.HTTPTimeout

	app.API = api.New(cfg.APIBaseURL, httpClient)

	return app, nil
}

// Initialize rehydrates the session from storage, confirms it with the
// remote API, and arms the proactive refresh for an adopted token.
func (app *Application) Initialize(ctx context.Context) {
	app.Session.Initialize(ctx)

	if token := app.Session.AccessToken(); token != "" {
		app.Scheduler.Schedule(token)
	}
}

// Login adopts a token pair obtained from the OAuth callback and arms the
// proactive refresh.
func (app *Application) Login(ctx context.Context, access, refreshToken string) {
	app.Session.SetTokens(ctx, access, refreshToken)

	if app.Session.IsAuthenticated() {
		app.Scheduler.Schedule(app.Session.AccessToken())
	}
}

// Logout clears the session, cancels the pending refresh timer, and
// wipes the persisted token record.
func (app *Application) Logout(ctx context.Context) {
	app.Scheduler.Stop()
	app.Session.SetUnauthenticated(ctx)
}

// Close releases the token database.
func (app *Application) Close() error {
	app.Scheduler.Stop()

	return app.storage.Close()
}

// Logger exposes the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}
