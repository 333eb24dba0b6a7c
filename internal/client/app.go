// Package client wires configuration, session state, transport, cache and
// services into a single client application runtime used by the CLI.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/ospolov/go-dm-client/internal/adapter"
	"github.com/ospolov/go-dm-client/internal/config"
	"github.com/ospolov/go-dm-client/internal/crypto"
	"github.com/ospolov/go-dm-client/internal/device"
	"github.com/ospolov/go-dm-client/internal/logger"
	"github.com/ospolov/go-dm-client/internal/service"
	"github.com/ospolov/go-dm-client/internal/session"
	"github.com/ospolov/go-dm-client/internal/store"
)

// App is the assembled client: one session, one transport, one cache and the
// services on top of them.
type App struct {
	Config   *config.StructuredConfig
	Session  *session.State
	Services *service.Services
	Logger   *logger.Logger

	cacheDB *store.DB
}

// NewApp loads configuration, restores (or creates) the session and builds
// the full service stack. configFlags are forwarded to the config layer,
// where they take precedence over environment variables. A broken cache
// database degrades to running without a cache instead of failing startup.
func NewApp(ctx context.Context, log *logger.Logger, configFlags ...string) (*App, error) {
	cfg, err := config.GetClientConfig(configFlags...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	snapshots := session.NewFileStore(cfg.Session.FilePath)
	sess, err := snapshots.Load()
	if err != nil {
		if !errors.Is(err, session.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("restore session: %w", err)
		}

		// fresh profile: the device identity is derived from the seed and
		// stays stable across runs
		identity, genErr := device.Generate(cfg.Session.Seed)
		if genErr != nil {
			return nil, fmt.Errorf("generate device identity: %w", genErr)
		}
		sess = session.New(identity)
	}

	sealer, err := crypto.NewSealedBoxSealer(cfg.App.ServerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("create password sealer: %w", err)
	}

	api, err := adapter.NewHTTPAPIClient(cfg.Adapter, cfg.App, sess, log)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	var (
		cache   store.ThreadCache
		cacheDB *store.DB
	)
	if cfg.Cache.Path != "" {
		cacheDB, err = store.NewConnectSQLite(ctx, cfg.Cache, log)
		if err != nil {
			log.Warn().Err(err).Msg("local cache unavailable, continuing without it")
			cacheDB = nil
		} else {
			cache = store.NewThreadCache(cacheDB, log)
		}
	}

	return &App{
		Config:   cfg,
		Session:  sess,
		Services: service.NewServices(api, sess, snapshots, sealer, cache, cfg, log),
		Logger:   log,
		cacheDB:  cacheDB,
	}, nil
}

// Close releases the cache database connection.
func (a *App) Close() error {
	if a.cacheDB == nil {
		return nil
	}
	return a.cacheDB.Close()
}
