package main

import (
	"context"
	"fmt"
	"strings"

	"backend-everywhere/internal/config"
	"backend-everywhere/internal/db"
	"backend-everywhere/internal/store"

	"github.com/rs/zerolog/log"
)

type backend struct {
	name  string
	store store.Store
	close func()
}

var (
	migrateFn          = db.Migrate
	connectPostgresFn  = db.ConnectPostgres
	connectFirestoreFn = db.ConnectFirestore
)

// openStore opens the backend named by STORE_BACKEND.
func openStore(ctx context.Context, cfg config.Config) (backend, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	switch name {
	case store.BackendPostgres, "":
		if cfg.RunMigrations {
			if err := migrateFn(cfg.PostgresURL); err != nil {
				return backend{}, err
			}
		}
		pool, err := connectPostgresFn(cfg)
		if err != nil {
			return backend{}, err
		}
		return backend{name: store.BackendPostgres, store: store.NewPostgres(pool), close: pool.Close}, nil

	case store.BackendFirestore:
		client, err := connectFirestoreFn(ctx, cfg)
		if err != nil {
			return backend{}, err
		}
		return backend{name: name, store: store.NewFirestore(client), close: func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("firestore close failed")
			}
		}}, nil

	case store.BackendMemory:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return backend{name: name, store: store.NewMemory(), close: func() {}}, nil
	}
	return backend{}, fmt.Errorf("%w: %q", store.ErrUnknownBackend, cfg.StoreBackend)
}
