// Package persist stores saved-party slots, either in an embedded bbolt
// file (default) or in PostgreSQL.
package persist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/config"
)

// PartyStore is a saved-party slot backend.
type PartyStore interface {
	SaveSlot(ctx context.Context, slot int32, actorIDs []int32) error
	LoadSlot(ctx context.Context, slot int32) ([]int32, bool, error)
	DeleteSlot(ctx context.Context, slot int32) error
	Slots(ctx context.Context) ([]int32, error)
	Close() error
}

// Open returns the backend selected by storage.driver.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (PartyStore, error) {
	switch cfg.Storage.Driver {
	case "bolt":
		s, err := OpenBolt(cfg.Storage.BoltPath, cfg.Storage.Timeout)
		if err != nil {
			return nil, err
		}
		log.Info("party store opened", zap.String("driver", "bolt"), zap.String("path", s.Path()))
		return s, nil
	case "postgres":
		db, err := NewDB(ctx, cfg.Database, cfg.Storage.Timeout, log)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("party store opened", zap.String("driver", "postgres"))
		return NewPartyRepo(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
