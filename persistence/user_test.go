package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarexio/useradmin/conf"
	"github.com/flarexio/useradmin/user"
)

func TestNewUserStore(t *testing.T) {
	ctx := context.Background()

	drivers := []conf.PersistenceDriver{conf.InMem, conf.SQLite, conf.BadgerDB}
	for _, driver := range drivers {
		t.Run(driver.String(), func(t *testing.T) {
			cfg := conf.Persistence{
				Driver: driver,
				Name:   "useradmin",
				InMem:  true,
			}

			store, err := NewUserStore(ctx, cfg)
			require.NoError(t, err)
			defer store.Close()

			users := user.NewRepository(store)

			u, err := users.Insert(ctx, user.User{Name: "Ana", Email: "ana@x.com"})
			require.NoError(t, err)

			found, err := users.FindOneByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, u, found)

			require.NoError(t, users.DeleteAll(ctx))
		})
	}
}

func TestNewUserStoreNotSupported(t *testing.T) {
	cfg := conf.Persistence{
		Driver: conf.PersistenceDriver(-1),
	}

	_, err := NewUserStore(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrDriverNotSupported)
}
