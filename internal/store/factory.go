package store

import (
	"context"

	"git.home.luguber.info/inful/repodoc/internal/config"
	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
)

// Open returns the backend selected by cfg.Store. The filesystem backend
// writes below cfg.Output.Directory.
func Open(ctx context.Context, cfg *config.Config) (ArtifactStore, error) {
	switch cfg.Store.Backend {
	case config.StoreFS, "":
		return NewFSStore(cfg.Output.Directory)
	case config.StoreNATS:
		return NewNATSStore(ctx, cfg.Store.NATS)
	case config.StoreS3:
		return NewS3Store(cfg.Store.S3)
	default:
		return nil, errors.ConfigError("unknown store backend").
			WithContext("backend", string(cfg.Store.Backend)).
			Build()
	}
}
