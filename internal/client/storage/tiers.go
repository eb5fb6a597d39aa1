package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vitalkeeper/internal/client/config"
	"github.com/dmitrijs2005/vitalkeeper/internal/client/repositories/kv"
)

// Tiers are the three repositories behind the secure and profile stores.
type Tiers struct {
	Secure    kv.Repository
	Plain     kv.Repository
	Ephemeral kv.Repository

	db   *sql.DB
	bolt *kv.BoltRepository
}

// OpenTiers opens the secure tier in the SQLite database at
// cfg.SecureDBPath(), the plain tier in the configured backend and a fresh
// in-memory ephemeral tier. The data directory must already exist.
func OpenTiers(ctx context.Context, cfg *config.Config) (*Tiers, error) {
	db, err := InitDatabase(ctx, cfg.SecureDBPath())
	if err != nil {
		return nil, err
	}

	t := &Tiers{
		Secure:    kv.NewSQLiteRepository(db, kv.TableSecure),
		Ephemeral: kv.NewMemoryRepository(),
		db:        db,
	}

	switch cfg.PlainBackend {
	case config.BackendSQLite:
		t.Plain = kv.NewSQLiteRepository(db, kv.TablePlain)
	case config.BackendBolt:
		b, err := kv.OpenBoltRepository(cfg.PlainDBPath(), "plain")
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		t.Plain = b
		t.bolt = b
	default:
		_ = db.Close()
		return nil, fmt.Errorf("unknown plain backend %q", cfg.PlainBackend)
	}

	return t, nil
}

// Close releases the database handles. The ephemeral tier is discarded.
func (t *Tiers) Close() error {
	var errs []error
	if t.bolt != nil {
		errs = append(errs, t.bolt.Close())
	}
	if t.db != nil {
		errs = append(errs, t.db.Close())
	}
	return errors.Join(errs...)
}
