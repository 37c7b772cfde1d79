// Package server wires nexbot's components.
//
// This is the composition root: it creates concrete implementations from
// config and injects them into the workflows, commands and transports that
// depend on abstractions. No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/nexio-dev/nexbot/internal/access"
	"github.com/nexio-dev/nexbot/internal/commands"
	"github.com/nexio-dev/nexbot/internal/config"
	"github.com/nexio-dev/nexbot/internal/console"
	"github.com/nexio-dev/nexbot/internal/discord"
	"github.com/nexio-dev/nexbot/internal/health"
	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/store"
	"github.com/nexio-dev/nexbot/internal/store/mongo"
	"github.com/nexio-dev/nexbot/internal/store/sqlite"
	"github.com/nexio-dev/nexbot/internal/telemetry"
	"github.com/nexio-dev/nexbot/internal/workflow"
)

// Version is set at build time via ldflags.
var Version = "dev"

const closeTimeout = 5 * time.Second

// noop is the cleanup returned when nothing was opened.
func noop() {}

// OpenStore opens the configured record store. The returned cleanup closes
// it and is always non-nil.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		st, err = sqlite.Open(cfg.SQLitePath, logger)
	case config.BackendMongo:
		st, err = mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, noop, fmt.Errorf("opening %s store: %w", cfg.StoreBackend, err)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := st.Close(ctx); err != nil {
			logger.Warn("closing store failed", zap.Error(err))
		}
	}
	logger.Info("store opened", zap.String("backend", cfg.StoreBackend))
	return st, cleanup, nil
}

// services are the workflows shared by the bot and the console.
type services struct {
	projects *workflow.Projects
	tasks    *workflow.Tasks
	profiles *workflow.Profiles
}

func newServices(st store.Store, p platform.Platform, cfg *config.Config, logger *zap.Logger) *services {
	resolver := access.NewResolver(cfg.StaffRoles, cfg.ManagerRoles)
	return &services{
		projects: workflow.NewProjects(st, p, resolver, workflow.ProjectsConfig{
			CategoryID:            cfg.ProjectCategoryID,
			AnnouncementChannelID: cfg.AnnouncementChannelID,
		}, logger),
		tasks:    workflow.NewTasks(st, p, resolver, logger),
		profiles: workflow.NewProfiles(st, resolver, logger),
	}
}

// App is the running bot: the Discord gateway plus the keep-alive server.
type App struct {
	bot      *discord.Bot
	health   *health.Server
	registry *commands.Registry
	logger   *zap.Logger
}

// NewApp builds the bot from cfg. The returned cleanup closes the store and
// flushes error reports; it must be called on shutdown (typically via defer)
// and is always non-nil.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}

	// --- Create shared dependencies ---

	reporter, err := telemetry.New(telemetry.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     Version,
	}, logger)
	if err != nil {
		return nil, noop, err
	}

	st, closeStore, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() {
		closeStore()
		reporter.Flush()
	}

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	guild := discord.NewGuild(session, cfg.GuildID)
	svc := newServices(st, guild, cfg, logger)

	// --- Register commands ---

	registry := commands.NewRegistry(logger, reporterOrNil(reporter))
	bot := discord.NewBot(session, guild, registry, cfg.Presence, logger)
	registry.Register(commands.All(svc.projects, svc.tasks, svc.profiles, bot.Latency)...)

	// --- Keep-alive ---

	app := &App{
		bot:      bot,
		health:   health.NewServer(cfg.HealthAddr, st, logger),
		registry: registry,
		logger:   logger,
	}
	return app, cleanup, nil
}

// reporterOrNil keeps a nil *telemetry.Reporter from becoming a non-nil
// commands.Reporter.
func reporterOrNil(r *telemetry.Reporter) commands.Reporter {
	if r == nil {
		return nil
	}
	return r
}

// Run connects to Discord and serves the keep-alive endpoint until ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.bot.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := a.bot.Stop(); err != nil {
			a.logger.Warn("closing discord session failed", zap.Error(err))
		}
	}()
	a.logger.Info("nexbot running", zap.String("version", Version))
	return a.health.Run(ctx)
}

// NewConsole builds the read-only MCP console over the configured store.
// Platform calls are unavailable there; only lookups are exposed.
func NewConsole(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*mcpserver.MCPServer, func(), error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, noop, err
	}
	st, cleanup, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, noop, err
	}
	svc := newServices(st, platform.Unavailable{}, cfg, logger)
	return console.New(svc.projects, svc.tasks, svc.profiles, Version), cleanup, nil
}
