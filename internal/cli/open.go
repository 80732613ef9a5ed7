package cli

import (
	"github.com/redis/go-redis/v9"

	"github.com/taskweave/taskweave/internal/config"
	"github.com/taskweave/taskweave/internal/state"
	"github.com/taskweave/taskweave/internal/storage"
)

// openStore builds a state.Store from config + flags.
// The returned cleanup function closes the underlying adapter.
func openStore(opts *RootOptions) (*state.Store, func(), error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "loading config", err)
	}
	if opts.DB != "" {
		cfg.DBPath = opts.DB
	}

	var adapter storage.Adapter
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		adapter = storage.NewRedis(client, storage.RedisConfig{Prefix: cfg.Redis.Prefix})
	} else {
		sqlite, err := storage.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "opening database", err)
		}
		adapter = sqlite
	}

	store := state.New(adapter,
		state.WithBackupRetention(cfg.BackupRetention),
		state.WithSweepInterval(cfg.SweepInterval),
	)
	cleanup := func() { _ = adapter.Close() }
	return store, cleanup, nil
}
