// Package daemon composes the headless client: backend REST client,
// realtime transport, chat core and cache mirror, wired through fx.
package daemon

import (
	"context"
	"errors"
	"io/fs"

	"github.com/velorent/rentchat/internal/bus"
	"github.com/velorent/rentchat/internal/chat"
	"github.com/velorent/rentchat/internal/config"
	"github.com/velorent/rentchat/internal/identity"
	"github.com/velorent/rentchat/internal/lock"
	"github.com/velorent/rentchat/internal/logging"
	"github.com/velorent/rentchat/internal/mirror"
	"github.com/velorent/rentchat/internal/profile"
	"github.com/velorent/rentchat/internal/realtime"
	"github.com/velorent/rentchat/internal/rest"
	"github.com/velorent/rentchat/internal/status"
	"github.com/velorent/rentchat/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideStateMachine,
			provideLock,
			provideIdentity,
			provideStore,
			provideRESTClient,
			provideTransport,
			provideChatCore,
			provideMirror,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.DaemonLogPath(p.ProfileName), p.ProfileName)
}

func provideConfig(logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.Load(profile.ConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("no config file, using defaults")
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideIdentity(logger *zap.Logger) (*identity.Identity, error) {
	config.LoadEnv(profile.BaseDir())
	id, err := identity.FromEnv()
	if err != nil {
		return nil, err
	}
	logger.Info("identity loaded", zap.String("user_id", id.UserID))
	return id, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.CacheDBPath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("cache initialized", zap.String("path", dbPath))
	return db, nil
}

func provideRESTClient(cfg *config.Config, id *identity.Identity, logger *zap.Logger) *rest.Client {
	return rest.New(cfg.Backend.APIURL, id, cfg.HTTPTimeout(), logger)
}

func provideTransport(cfg *config.Config, id *identity.Identity, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *realtime.Manager {
	return realtime.NewManager(cfg.Backend.WSURL, id, b, machine, logger,
		cfg.ReconnectInterval(), cfg.Realtime.MaxAttempts)
}

func provideChatCore(id *identity.Identity, api *rest.Client, b *bus.Bus, logger *zap.Logger) *chat.Client {
	return chat.NewClient(id, api, b, logger)
}

func provideMirror(db *store.DB, core *chat.Client, b *bus.Bus, logger *zap.Logger) *mirror.Engine {
	return mirror.NewEngine(db, core, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, db *store.DB, core *chat.Client, engine *mirror.Engine, transport *realtime.Manager, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Mirror first so the initial refresh already lands in the cache.
			engine.Start(context.Background())
			core.Start(context.Background())
			transport.Connect()

			go core.Refresh(context.Background())

			logger.Info("daemon started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			transport.Close()
			core.Stop()
			engine.Stop()
			_ = db.Close()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
