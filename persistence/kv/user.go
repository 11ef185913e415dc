package kv

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/flarexio/useradmin/conf"
	"github.com/flarexio/useradmin/user"
)

var prefix = []byte("users/")

func key(id user.ObjectID) []byte {
	return append(append([]byte{}, prefix...), id.String()...)
}

func NewStore(cfg conf.Persistence) (user.Store, error) {
	opts := badger.DefaultOptions(cfg.Host + "/" + cfg.Name)
	if cfg.InMem {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}

	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := new(userStore)
	store.db = db
	return store, nil
}

type userStore struct {
	db *badger.DB
}

func (store *userStore) InsertOne(ctx context.Context, doc *user.Document) (user.ObjectID, error) {
	saved := *doc
	saved.OID = user.MakeID()

	bs, err := json.Marshal(&saved)
	if err != nil {
		return user.ObjectID{}, err
	}

	err = store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(saved.OID), bs)
	})

	if err != nil {
		return user.ObjectID{}, err
	}

	return saved.OID, nil
}

func (store *userStore) FindOneAndUpdate(ctx context.Context, id user.ObjectID, p user.Patch) (*user.Document, error) {
	var merged *user.Document

	err := store.db.Update(func(txn *badger.Txn) error {
		doc, err := get(txn, id)
		if err != nil {
			return err
		}

		merged = doc.Apply(p)

		bs, err := json.Marshal(merged)
		if err != nil {
			return err
		}

		return txn.Set(key(id), bs)
	})

	if err != nil {
		return nil, err
	}

	return merged, nil
}

func (store *userStore) DeleteOne(ctx context.Context, id user.ObjectID) (int64, error) {
	var n int64

	err := store.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}

			return err
		}

		n = 1
		return txn.Delete(key(id))
	})

	if err != nil {
		return 0, err
	}

	return n, nil
}

func (store *userStore) DeleteMany(ctx context.Context) (int64, error) {
	var n int64

	err := store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	if n == 0 {
		return 0, nil
	}

	if err := store.db.DropPrefix(prefix); err != nil {
		return 0, err
	}

	return n, nil
}

func (store *userStore) FindOne(ctx context.Context, filter user.Filter) (*user.Document, error) {
	var result *user.Document

	err := store.db.View(func(txn *badger.Txn) error {
		if filter.ID != nil {
			doc, err := get(txn, *filter.ID)
			if err != nil {
				return err
			}

			if !filter.Match(doc) {
				return user.ErrNoDocuments
			}

			result = doc
			return nil
		}

		return scan(txn, func(doc *user.Document) bool {
			if filter.Match(doc) {
				result = doc
				return false
			}

			return true
		})
	})

	if err != nil {
		return nil, err
	}

	if result == nil {
		return nil, user.ErrNoDocuments
	}

	return result, nil
}

func (store *userStore) Find(ctx context.Context) ([]*user.Document, error) {
	docs := make([]*user.Document, 0)

	err := store.db.View(func(txn *badger.Txn) error {
		return scan(txn, func(doc *user.Document) bool {
			docs = append(docs, doc)
			return true
		})
	})

	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (store *userStore) Close() error {
	return store.db.Close()
}

func get(txn *badger.Txn, id user.ObjectID) (*user.Document, error) {
	item, err := txn.Get(key(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, user.ErrNoDocuments
		}

		return nil, err
	}

	var doc *user.Document
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	})

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// scan walks every user in key order until fn returns false.
func scan(txn *badger.Txn, fn func(doc *user.Document) bool) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var doc *user.Document
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})

		if err != nil {
			return err
		}

		if !fn(doc) {
			return nil
		}
	}

	return nil
}
