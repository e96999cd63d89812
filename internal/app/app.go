// Package app assembles the application's services with a samber/do
// injector and owns their startup and shutdown order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/roomchat/internal/chat"
	"github.com/nfrund/roomchat/internal/config"
	"github.com/nfrund/roomchat/internal/database"
	"github.com/nfrund/roomchat/internal/identity"
	"github.com/nfrund/roomchat/internal/pubsub"
	"github.com/nfrund/roomchat/internal/rendering"
	"github.com/nfrund/roomchat/internal/server"
	"github.com/nfrund/roomchat/internal/summary"
	"github.com/samber/do/v2"
)

var errNoRooms = errors.New("no rooms configured")

const (
	connectTimeout = 30 * time.Second
	closeTimeout   = 5 * time.Second
)

// App is a fully wired roomchat process.
type App struct {
	injector *do.RootScope
	cfg      *config.Config
	conn     *database.Connection
	bridge   *pubsub.WatermillBridge
	manager  *chat.Manager
	server   *server.Server

	closeOnce sync.Once
}

// New connects to the database, applies the schema and builds the HTTP
// server. The caller must Close the App when New succeeds.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	injector := newInjector(cfg)

	conn := do.MustInvoke[*database.Connection](injector)
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := conn.Connect(connectCtx); err != nil {
		injector.Shutdown()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(connectCtx, conn); err != nil {
		_ = conn.Close(ctx)
		injector.Shutdown()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	conn.StartMonitoring()

	srv, err := do.Invoke[*server.Server](injector)
	if err != nil {
		_ = conn.Close(ctx)
		injector.Shutdown()
		return nil, fmt.Errorf("failed to build server: %w", err)
	}

	if !do.MustInvoke[*summary.GeminiClient](injector).IsConfigured() {
		slog.Warn("SUMMARY_API_KEY not set, summaries are disabled", "event", "summary_disabled")
	}

	return &App{
		injector: injector,
		cfg:      cfg,
		conn:     conn,
		bridge:   do.MustInvoke[*pubsub.WatermillBridge](injector),
		manager:  do.MustInvoke[*chat.Manager](injector),
		server:   srv,
	}, nil
}

// Run serves HTTP until ctx is cancelled and then releases every resource.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	return a.server.Start(ctx, a.cfg.GetServerAddr())
}

// Close tears services down in reverse dependency order. It is safe to
// call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()

		a.manager.Close()
		if err := a.bridge.Close(); err != nil {
			slog.Error("Failed to close event bus", "event", "shutdown_error", "component", "pubsub", "error", err)
		}
		if err := a.conn.Close(ctx); err != nil {
			slog.Error("Failed to close database connection", "event", "shutdown_error", "component", "database", "error", err)
		}
		a.injector.Shutdown()
		slog.Info("Shutdown complete", "event", "shutdown_complete")
	})
}

// newInjector registers a lazy provider for every service. Nothing is
// constructed or connected until it is invoked.
func newInjector(cfg *config.Config) *do.RootScope {
	i := do.New()

	do.ProvideValue(i, cfg)
	do.Provide(i, provideConnection)
	do.Provide(i, provideLiveQueries)
	do.Provide(i, provideAccounts)
	do.Provide(i, provideProfiles)
	do.Provide(i, provideMessages)
	do.Provide(i, provideGate)
	do.Provide(i, provideGemini)
	do.Provide(i, provideSummarizer)
	do.Provide(i, provideBridge)
	do.Provide(i, provideManager)
	do.Provide(i, provideRenderer)
	do.Provide(i, provideServer)

	return i
}

func provideConnection(i do.Injector) (*database.Connection, error) {
	return database.NewConnection(do.MustInvoke[*config.Config](i)), nil
}

func provideLiveQueries(i do.Injector) (database.LiveQueryService, error) {
	return database.NewSurrealLiveQueryService(do.MustInvoke[*database.Connection](i)), nil
}

func provideAccounts(i do.Injector) (*database.AccountStore, error) {
	return database.NewAccountStore(do.MustInvoke[*database.Connection](i)), nil
}

func provideProfiles(i do.Injector) (*database.ProfileStore, error) {
	return database.NewProfileStore(do.MustInvoke[*database.Connection](i)), nil
}

func provideMessages(i do.Injector) (*database.MessageStore, error) {
	return database.NewMessageStore(
		do.MustInvoke[*database.Connection](i),
		do.MustInvoke[database.LiveQueryService](i),
	), nil
}

func provideGate(i do.Injector) (*chat.Gate, error) {
	rooms := do.MustInvoke[*config.Config](i).GetRooms()
	if len(rooms) == 0 {
		return nil, errNoRooms
	}
	return chat.NewGate(rooms), nil
}

func provideGemini(i do.Injector) (*summary.GeminiClient, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return summary.NewGeminiClient(
		cfg.GetSummaryAPIKey(),
		cfg.GetSummaryBaseURL(),
		cfg.GetSummaryModel(),
		cfg.GetSummaryRatePerMinute(),
	), nil
}

func provideSummarizer(i do.Injector) (*summary.Summarizer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return summary.NewSummarizer(do.MustInvoke[*summary.GeminiClient](i), cfg.GetDisplayLocation()), nil
}

func provideBridge(do.Injector) (*pubsub.WatermillBridge, error) {
	return pubsub.NewWatermillBridge(), nil
}

// provideManager gives every browser session its own auth provider and
// controller over the shared stores.
func provideManager(i do.Injector) (*chat.Manager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	accounts := do.MustInvoke[*database.AccountStore](i)
	messages := do.MustInvoke[*database.MessageStore](i)
	deps := chat.Deps{
		Profiles:        do.MustInvoke[*database.ProfileStore](i),
		Messages:        messages,
		Feed:            messages,
		Gate:            do.MustInvoke[*chat.Gate](i),
		Summarizer:      do.MustInvoke[*summary.Summarizer](i),
		Bus:             do.MustInvoke[*pubsub.WatermillBridge](i),
		NotificationTTL: cfg.GetNotificationTTL(),
	}

	return chat.NewManager(func(sessionID string) *chat.Controller {
		return chat.NewController(sessionID, identity.NewProvider(accounts, cfg.GetRegistrationKey()), deps)
	}), nil
}

func provideRenderer(do.Injector) (*rendering.UniversalRenderer, error) {
	return rendering.NewUniversalRenderer(), nil
}

func provideServer(i do.Injector) (*server.Server, error) {
	return server.New(server.Deps{
		Config:     do.MustInvoke[*config.Config](i),
		Manager:    do.MustInvoke[*chat.Manager](i),
		Gate:       do.MustInvoke[*chat.Gate](i),
		Renderer:   do.MustInvoke[*rendering.UniversalRenderer](i),
		Subscriber: do.MustInvoke[*pubsub.WatermillBridge](i),
		Health:     do.MustInvoke[*database.Connection](i),
	}), nil
}
