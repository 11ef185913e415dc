package persistence

import (
	"context"
	"errors"

	"github.com/flarexio/useradmin/conf"
	"github.com/flarexio/useradmin/persistence/db"
	"github.com/flarexio/useradmin/persistence/inmem"
	"github.com/flarexio/useradmin/persistence/kv"
	"github.com/flarexio/useradmin/persistence/mongo"
	"github.com/flarexio/useradmin/persistence/pg"
	"github.com/flarexio/useradmin/persistence/redis"
	"github.com/flarexio/useradmin/user"
)

var ErrDriverNotSupported = errors.New("driver not supported")

func NewUserStore(ctx context.Context, cfg conf.Persistence) (user.Store, error) {
	switch cfg.Driver {
	case conf.SQLite:
		return db.NewStore(cfg)
	case conf.BadgerDB:
		return kv.NewStore(cfg)
	case conf.InMem:
		return inmem.NewStore()
	case conf.Postgres:
		return pg.NewStore(ctx, cfg)
	case conf.Redis:
		return redis.NewStore(cfg)
	case conf.Mongo:
		return mongo.NewStore(ctx, cfg)
	default:
		return nil, ErrDriverNotSupported
	}
}
