package redis

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/flarexio/useradmin/conf"
	"github.com/flarexio/useradmin/persistence/storetest"
	"github.com/flarexio/useradmin/user"
)

func TestStoreTestSuite(t *testing.T) {
	addr := os.Getenv("USERADMIN_TEST_REDIS_URL")
	if addr == "" {
		t.Skip("USERADMIN_TEST_REDIS_URL not set")
	}

	suite.Run(t, &storetest.StoreTestSuite{
		NewStore: func() (user.Store, error) {
			cfg := conf.Persistence{
				Driver: conf.Redis,
				Name:   "useradmin-test",
				URI:    addr,
			}

			return NewStore(cfg)
		},
	})
}

func TestDeleteManyLeavesNoUnindexedUsers(t *testing.T) {
	addr := os.Getenv("USERADMIN_TEST_REDIS_URL")
	if addr == "" {
		t.Skip("USERADMIN_TEST_REDIS_URL not set")
	}

	cfg := conf.Persistence{
		Driver: conf.Redis,
		Name:   "useradmin-test-race",
		URI:    addr,
	}

	s, err := NewStore(cfg)
	require.NoError(t, err)
	defer s.Close()

	store := s.(*userStore)
	ctx := context.Background()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		for i := 0; i < 200; i++ {
			store.InsertOne(ctx, &user.Document{Name: "N", Email: "n@x.com"})
		}
	}()

	for i := 0; i < 20; i++ {
		_, err := store.DeleteMany(ctx)
		if err != nil && !errors.Is(err, redis.TxFailedErr) {
			t.Fatal(err)
		}
	}

	wg.Wait()

	hashes, err := store.client.Keys(ctx, store.userKey("*")).Result()
	require.NoError(t, err)

	indexed, err := store.client.ZCard(ctx, store.index()).Result()
	require.NoError(t, err)

	assert.Equal(t, int64(len(hashes)), indexed)

	_, err = store.DeleteMany(ctx)
	assert.NoError(t, err)
}
