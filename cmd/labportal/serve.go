package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/config"
	"github.com/HerbHall/labportal/internal/dashboard"
	"github.com/HerbHall/labportal/internal/edge"
	"github.com/HerbHall/labportal/internal/event"
	"github.com/HerbHall/labportal/internal/fetch"
	"github.com/HerbHall/labportal/internal/hass"
	"github.com/HerbHall/labportal/internal/poller"
	"github.com/HerbHall/labportal/internal/portal"
	"github.com/HerbHall/labportal/internal/server"
	"github.com/HerbHall/labportal/internal/store"
	"github.com/HerbHall/labportal/internal/theme"
	"github.com/HerbHall/labportal/internal/version"
	"github.com/HerbHall/labportal/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the portal server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Configuration comes first so the logger can honour logging.*.
	v, err := server.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg, err := config.New(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("labportal starting", zap.String("version", version.Short()))
	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("component", "config"), zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults", zap.String("component", "config"))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}

// app is the composition root: every long-lived component and the wiring
// between them.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	db       *store.SQLiteStore
	bus      *event.Bus
	resolver *theme.Resolver
	observer *poller.ThemeObserver
	board    *poller.PresenceBoard
	docs     *portal.Store
	source   *portal.Source
	loader   *portal.ResilientLoader
	stream   *ws.Handler
	srv      *server.Server

	unsubscribe []func()
}

// newApp opens the database and builds every component. ctx bounds the
// lifetime of the pollers started when a config document arrives.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		db.Close()
		return nil, err
	}
	settings, err := store.NewSettings(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize settings: %w", err)
	}
	logger.Info("database initialized", zap.String("component", "database"), zap.String("path", cfg.Database.Path))

	a.bus = event.NewBus(logger.Named("event"))

	fc := fetch.NewClient(nil, "labportal/"+version.Short())
	ha := hass.NewClient(fc, cfg.HomeAssistant.URL, cfg.HomeAssistant.StatesPath, cfg.HomeAssistant.Token)

	// Theme: persisted choice, browser preference, optional HA entity.
	systemDefault, err := theme.Parse(cfg.Theme.SystemDefault)
	if err != nil {
		systemDefault = theme.Light
	}
	a.observer = poller.NewThemeObserver(ha, cfg.Poller.Interval, cfg.Poller.Timeout, logger.Named("poller"))
	a.resolver = theme.NewResolver(
		theme.NewSettingsStore(settings),
		theme.NewSystemPreference(systemDefault),
		a.bus,
		logger.Named("theme"),
		theme.WithEntityWatcher(a.observer.Watch),
	)
	a.board = poller.NewPresenceBoard(ha, a.bus, cfg.Poller.Interval, cfg.Poller.Timeout, logger.Named("presence"))

	// Portal config: file on disk, served over HTTP, fetched with backoff.
	a.docs = portal.NewStore(a.bus)
	a.source = portal.NewSource(cfg.Portal.ConfigFile, logger.Named("portal"))
	a.loader = portal.NewResilientLoader(fc, portal.ResilientConfig{
		ConfigURL:       orDefault(cfg.Portal.ConfigURL, cfg.Server.BaseURL()+portal.DefaultConfigPath),
		PingURL:         orDefault(cfg.Portal.PingURL, cfg.Server.BaseURL()+portal.DefaultPingPath),
		ManifestVersion: cfg.Portal.ManifestVersion,
		Backoff: fetch.Backoff{
			MaxAttempts:        cfg.Portal.Fetch.MaxAttempts,
			BaseDelay:          cfg.Portal.Fetch.BaseDelay,
			AttemptTimeout:     cfg.Portal.Fetch.AttemptTimeout,
			AttemptTimeoutStep: cfg.Portal.Fetch.AttemptTimeoutStep,
		},
	}, a.docs, logger.Named("portal"))

	a.unsubscribe = append(a.unsubscribe,
		a.bus.SubscribeAll(event.Trace(logger.Named("event"))),
		a.bus.Subscribe(portal.TopicConfigLoaded, a.onConfigLoaded(ctx)),
	)

	edgeHandler, err := edge.New(edge.Config{
		OriginURL:          cfg.Edge.OriginURL,
		NoStorePrefix:      cfg.Edge.NoStorePrefix,
		HomeAssistantURL:   cfg.HomeAssistant.URL,
		HomeAssistantToken: cfg.HomeAssistant.Token,
	}, logger.Named("edge"))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.stream = ws.NewHandler(a.bus, a.snapshot, logger.Named("ws"))

	dash, err := dashboard.New(dashboard.Deps{
		Documents: a.docs,
		Theme:     a.resolver,
		Presence:  a.board,
		States:    ha,
	}, logger.Named("dashboard"))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.srv = server.New(cfg.Server.Addr(), logger, a.ready, edgeHandler, dash, cfg.Server.DevMode,
		portal.NewHandler(a.source, a.docs, a.loader, logger.Named("portal"),
			portal.WithOneShotLoader(portal.NewLoader(fc, a.loader.URL(), portal.WithAutoThemer(a.resolver)))),
		theme.NewHandler(a.resolver, logger.Named("theme")),
		a.board,
		a.stream,
	)
	return a, nil
}

// onConfigLoaded initialises the theme from the first document and keeps the
// presence pollers in step with every document. Pollers run under ctx rather
// than the publisher's context, which may be a short-lived reload.
func (a *app) onConfigLoaded(ctx context.Context) event.Handler {
	var once sync.Once
	return func(_ context.Context, e event.Event) {
		doc, ok := e.Payload.(*portal.Document)
		if !ok || doc == nil {
			return
		}
		once.Do(func() { a.resolver.Init(ctx, doc.Appearance) })
		a.board.Sync(ctx, doc.Presence)
	}
}

// snapshot is what a new WebSocket client receives before live events.
func (a *app) snapshot() []ws.Message {
	now := time.Now().UTC()
	var msgs []ws.Message
	if t := a.resolver.Active(); t.Valid() {
		msgs = append(msgs, ws.Message{
			Type:      ws.MessageThemeChanged,
			Timestamp: now,
			Data:      ws.ThemeData{Theme: t, Marker: t.Marker(), Following: a.resolver.Following()},
		})
	}
	for _, p := range a.board.Snapshot() {
		msgs = append(msgs, ws.Message{Type: ws.MessagePresenceChanged, Timestamp: now, Data: p})
	}
	return msgs
}

// ready gates /readyz on a loaded config document and a reachable database.
func (a *app) ready(ctx context.Context) error {
	if a.docs.Document() == nil {
		return errors.New("portal config not loaded")
	}
	return a.db.Ping(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *app) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.srv.Start() }()

	// The default config URL is this server, so the first attempts may race
	// the listener; the backoff absorbs that.
	go func() {
		ready := a.loader.Init(ctx)
		a.logger.Info("portal startup complete",
			zap.Bool("config", ready.Config != nil),
			zap.Bool("auth", ready.Auth),
		)
	}()

	if a.cfg.Portal.Watch {
		go func() {
			err := a.source.Watch(ctx, func() {
				a.logger.Info("portal config file changed, reloading", zap.String("path", a.source.Path()))
				a.loader.Fetch(ctx)
			})
			if err != nil {
				a.logger.Warn("portal config watch disabled", zap.Error(err))
			}
		}()
	}

	a.logger.Info("labportal ready", zap.String("addr", a.srv.Addr()))

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	a.logger.Info("labportal stopped")
	return runErr
}

// Close stops the pollers and releases the database.
func (a *app) Close() {
	for _, unsubscribe := range a.unsubscribe {
		unsubscribe()
	}
	if a.observer != nil {
		a.observer.Stop()
	}
	if a.board != nil {
		a.board.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("close database", zap.Error(err))
		}
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
