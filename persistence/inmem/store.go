package inmem

import (
	"context"
	"sync"

	"github.com/flarexio/useradmin/user"
)

func NewStore() (user.Store, error) {
	store := new(userStore)
	store.docs = make(map[user.ObjectID]*user.Document)
	store.order = make([]user.ObjectID, 0)
	return store, nil
}

type userStore struct {
	docs  map[user.ObjectID]*user.Document
	order []user.ObjectID
	sync.RWMutex
}

func (store *userStore) InsertOne(ctx context.Context, doc *user.Document) (user.ObjectID, error) {
	store.Lock()
	defer store.Unlock()

	saved := *doc
	saved.OID = user.MakeID()

	store.docs[saved.OID] = &saved
	store.order = append(store.order, saved.OID)

	return saved.OID, nil
}

func (store *userStore) FindOneAndUpdate(ctx context.Context, id user.ObjectID, p user.Patch) (*user.Document, error) {
	store.Lock()
	defer store.Unlock()

	doc, ok := store.docs[id]
	if !ok {
		return nil, user.ErrNoDocuments
	}

	merged := doc.Apply(p)
	store.docs[id] = merged

	result := *merged
	return &result, nil
}

func (store *userStore) DeleteOne(ctx context.Context, id user.ObjectID) (int64, error) {
	store.Lock()
	defer store.Unlock()

	if _, ok := store.docs[id]; !ok {
		return 0, nil
	}

	delete(store.docs, id)

	for i, oid := range store.order {
		if oid == id {
			store.order = append(store.order[:i], store.order[i+1:]...)
			break
		}
	}

	return 1, nil
}

func (store *userStore) DeleteMany(ctx context.Context) (int64, error) {
	store.Lock()
	defer store.Unlock()

	n := int64(len(store.docs))

	store.docs = make(map[user.ObjectID]*user.Document)
	store.order = make([]user.ObjectID, 0)

	return n, nil
}

func (store *userStore) FindOne(ctx context.Context, filter user.Filter) (*user.Document, error) {
	store.RLock()
	defer store.RUnlock()

	if filter.ID != nil {
		doc, ok := store.docs[*filter.ID]
		if !ok || !filter.Match(doc) {
			return nil, user.ErrNoDocuments
		}

		result := *doc
		return &result, nil
	}

	for _, oid := range store.order {
		doc := store.docs[oid]
		if filter.Match(doc) {
			result := *doc
			return &result, nil
		}
	}

	return nil, user.ErrNoDocuments
}

func (store *userStore) Find(ctx context.Context) ([]*user.Document, error) {
	store.RLock()
	defer store.RUnlock()

	docs := make([]*user.Document, 0, len(store.order))
	for _, oid := range store.order {
		doc := *store.docs[oid]
		docs = append(docs, &doc)
	}

	return docs, nil
}

func (store *userStore) Close() error {
	return nil
}
