package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/config"
	"github.com/justyntemme/filespanel/internal/fs"
	"github.com/justyntemme/filespanel/internal/gateway"
	"github.com/justyntemme/filespanel/internal/s3tree"
	"github.com/justyntemme/filespanel/internal/store"
)

// OpenDriver builds the driver named by cfg.Driver.Kind. The returned
// closer releases it and is never nil.
func OpenDriver(ctx context.Context, cfg config.Config, logger *zap.Logger) (gateway.Driver, func(), error) {
	noop := func() {}
	switch cfg.Driver.Kind {
	case config.DriverLocal, "":
		return fs.NewLocal(cfg.Project.Ignore...), noop, nil

	case config.DriverSQLite:
		db := store.NewDB()
		if err := db.Open(cfg.Driver.SQLitePath); err != nil {
			return nil, noop, fmt.Errorf("open sqlite tree %s: %w", cfg.Driver.SQLitePath, err)
		}
		return db, db.Close, nil

	case config.DriverS3:
		b, err := s3tree.NewBucket(ctx, cfg.Driver.S3, logger.Named("s3"))
		if err != nil {
			return nil, noop, err
		}
		return b, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown driver kind %q", cfg.Driver.Kind)
}
