package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flarexio/useradmin/conf"
	"github.com/flarexio/useradmin/user"
)

const collection = "users"

func URI(cfg conf.Persistence) string {
	if cfg.URI != "" {
		return cfg.URI
	}

	port := cfg.Port
	if port == 0 {
		port = 27017
	}

	u := url.URL{
		Scheme: "mongodb",
		Host:   cfg.Host + ":" + strconv.Itoa(port),
	}

	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	return u.String()
}

func NewStore(ctx context.Context, cfg conf.Persistence) (user.Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(URI(cfg)))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping failed: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "useradmin"
	}

	coll := client.Database(name).Collection(collection)

	return &userStore{client, coll}, nil
}

type record struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
}

func (r *record) reconstitute() (*user.Document, error) {
	oid, err := user.ParseID(r.ID)
	if err != nil {
		return nil, err
	}

	return &user.Document{
		OID:   oid,
		Name:  r.Name,
		Email: r.Email,
	}, nil
}

type userStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func (store *userStore) InsertOne(ctx context.Context, doc *user.Document) (user.ObjectID, error) {
	oid := user.MakeID()

	r := &record{
		ID:    oid.String(),
		Name:  doc.Name,
		Email: doc.Email,
	}

	if _, err := store.coll.InsertOne(ctx, r); err != nil {
		return user.ObjectID{}, err
	}

	return oid, nil
}

func (store *userStore) FindOneAndUpdate(ctx context.Context, id user.ObjectID, p user.Patch) (*user.Document, error) {
	if p.IsEmpty() {
		return store.FindOne(ctx, user.ByID(id))
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var r record
	err := store.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": p.Fields()},
		opts,
	).Decode(&r)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrNoDocuments
		}

		return nil, err
	}

	return r.reconstitute()
}

func (store *userStore) DeleteOne(ctx context.Context, id user.ObjectID) (int64, error) {
	result, err := store.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

func (store *userStore) DeleteMany(ctx context.Context) (int64, error) {
	result, err := store.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

func (store *userStore) FindOne(ctx context.Context, filter user.Filter) (*user.Document, error) {
	query := bson.M{}

	if filter.ID != nil {
		query["_id"] = filter.ID.String()
	}

	if filter.Email != nil {
		query["email"] = *filter.Email
	}

	var r record
	if err := store.coll.FindOne(ctx, query).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrNoDocuments
		}

		return nil, err
	}

	return r.reconstitute()
}

func (store *userStore) Find(ctx context.Context) ([]*user.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := store.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var records []*record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	docs := make([]*user.Document, 0, len(records))
	for _, r := range records {
		doc, err := r.reconstitute()
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func (store *userStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return store.client.Disconnect(ctx)
}
