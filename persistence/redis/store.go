package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flarexio/useradmin/conf"
	"github.com/flarexio/useradmin/user"
)

const maxRetries = 10

func NewStore(cfg conf.Persistence) (user.Store, error) {
	opts := &redis.Options{
		Addr:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Username: cfg.Username,
		Password: cfg.Password,
	}

	if cfg.Port == 0 {
		opts.Addr = cfg.Host + ":6379"
	}

	if cfg.URI != "" {
		parsed, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, err
		}

		opts = parsed
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	return &userStore{
		client: client,
		prefix: cfg.Name,
	}, nil
}

// Every user lives in a hash; a sorted set with equal scores indexes them
// in identity order.
type userStore struct {
	client *redis.Client
	prefix string
}

func (store *userStore) key(k string) string {
	if store.prefix == "" {
		return k
	}
	return store.prefix + ":" + k
}

func (store *userStore) index() string {
	return store.key("users")
}

func (store *userStore) userKey(id string) string {
	return store.key("users:" + id)
}

func (store *userStore) InsertOne(ctx context.Context, doc *user.Document) (user.ObjectID, error) {
	oid := user.MakeID()
	id := oid.String()

	_, err := store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, store.userKey(id),
			"id", id,
			"name", doc.Name,
			"email", doc.Email,
		)
		pipe.ZAdd(ctx, store.index(), redis.Z{Score: 0, Member: id})
		return nil
	})

	if err != nil {
		return user.ObjectID{}, err
	}

	return oid, nil
}

func (store *userStore) FindOneAndUpdate(ctx context.Context, id user.ObjectID, p user.Patch) (*user.Document, error) {
	k := store.userKey(id.String())

	var merged *user.Document
	err := store.client.Watch(ctx, func(tx *redis.Tx) error {
		doc, err := get(ctx, tx, k)
		if err != nil {
			return err
		}

		merged = doc.Apply(p)

		if p.IsEmpty() {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, p.Fields())
			return nil
		})

		return err
	}, k)

	if err != nil {
		return nil, err
	}

	return merged, nil
}

func (store *userStore) DeleteOne(ctx context.Context, id user.ObjectID) (int64, error) {
	var del *redis.IntCmd

	_, err := store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, store.userKey(id.String()))
		pipe.ZRem(ctx, store.index(), id.String())
		return nil
	})

	if err != nil {
		return 0, err
	}

	return del.Val(), nil
}

// DeleteMany removes every indexed user together with the index. The index
// is watched, so an insert racing with the removal retries the transaction
// instead of leaving an unindexed hash behind.
func (store *userStore) DeleteMany(ctx context.Context) (int64, error) {
	index := store.index()

	var n int64
	deleteAll := func(tx *redis.Tx) error {
		ids, err := tx.ZRange(ctx, index, 0, -1).Result()
		if err != nil {
			return err
		}

		n = int64(len(ids))
		if n == 0 {
			return nil
		}

		keys := make([]string, 0, len(ids)+1)
		for _, id := range ids {
			keys = append(keys, store.userKey(id))
		}
		keys = append(keys, index)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			return nil
		})

		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := store.client.Watch(ctx, deleteAll, index)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return 0, err
		}

		return n, nil
	}

	return 0, redis.TxFailedErr
}

func (store *userStore) FindOne(ctx context.Context, filter user.Filter) (*user.Document, error) {
	if filter.ID != nil {
		doc, err := get(ctx, store.client, store.userKey(filter.ID.String()))
		if err != nil {
			return nil, err
		}

		if !filter.Match(doc) {
			return nil, user.ErrNoDocuments
		}

		return doc, nil
	}

	docs, err := store.Find(ctx)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if filter.Match(doc) {
			return doc, nil
		}
	}

	return nil, user.ErrNoDocuments
}

func (store *userStore) Find(ctx context.Context) ([]*user.Document, error) {
	ids, err := store.client.ZRange(ctx, store.index(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	cmds := make([]*redis.MapStringStringCmd, 0, len(ids))
	_, err = store.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			cmds = append(cmds, pipe.HGetAll(ctx, store.userKey(id)))
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	docs := make([]*user.Document, 0, len(cmds))
	for _, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) == 0 {
			// removed between the index read and the fetch
			continue
		}

		doc, err := reconstitute(vals)
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func (store *userStore) Close() error {
	return store.client.Close()
}

func get(ctx context.Context, c redis.Cmdable, k string) (*user.Document, error) {
	vals, err := c.HGetAll(ctx, k).Result()
	if err != nil {
		return nil, err
	}

	if len(vals) == 0 {
		return nil, user.ErrNoDocuments
	}

	return reconstitute(vals)
}

func reconstitute(vals map[string]string) (*user.Document, error) {
	oid, err := user.ParseID(vals["id"])
	if err != nil {
		return nil, err
	}

	return &user.Document{
		OID:   oid,
		Name:  vals["name"],
		Email: vals["email"],
	}, nil
}
