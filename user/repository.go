package user

import (
	"context"
	"errors"
	"fmt"
)

type Repository interface {
	// Command

	Insert(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, id string, p Patch) (User, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error

	// Query

	FindAll(ctx context.Context) ([]User, error)
	FindOneByID(ctx context.Context, id string) (User, error)
	FindOneByEmail(ctx context.Context, email string) (User, error)
}

func NewRepository(store Store) Repository {
	return &repository{store}
}

type repository struct {
	store Store
}

func (repo *repository) FindOneByEmail(ctx context.Context, email string) (User, error) {
	doc, err := repo.store.FindOne(ctx, ByEmail(email))
	if err != nil {
		if errors.Is(err, ErrNoDocuments) {
			return User{}, fmt.Errorf("%w: email %s", ErrUserNotFound, email)
		}

		return User{}, err
	}

	return doc.User(), nil
}

func (repo *repository) FindOneByID(ctx context.Context, id string) (User, error) {
	oid, err := parseID(id)
	if err != nil {
		return User{}, err
	}

	return repo.findOne(ctx, oid)
}

func (repo *repository) findOne(ctx context.Context, oid ObjectID) (User, error) {
	doc, err := repo.store.FindOne(ctx, ByID(oid))
	if err != nil {
		if errors.Is(err, ErrNoDocuments) {
			return User{}, fmt.Errorf("%w: id %s", ErrUserNotFound, oid)
		}

		return User{}, err
	}

	return doc.User(), nil
}

func (repo *repository) Insert(ctx context.Context, u User) (User, error) {
	doc := NewDocument(u)

	oid, err := repo.store.InsertOne(ctx, doc)
	if err != nil {
		return User{}, err
	}

	doc.OID = oid
	return doc.User(), nil
}

// Update merges p into the stored user, then reads it back so the result
// always reflects what is persisted.
func (repo *repository) Update(ctx context.Context, id string, p Patch) (User, error) {
	oid, err := parseID(id)
	if err != nil {
		return User{}, err
	}

	if _, err := repo.store.FindOneAndUpdate(ctx, oid, p); err != nil {
		if errors.Is(err, ErrNoDocuments) {
			return User{}, fmt.Errorf("%w: id %s", ErrUserNotFound, oid)
		}

		return User{}, err
	}

	return repo.findOne(ctx, oid)
}

func (repo *repository) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	n, err := repo.store.DeleteOne(ctx, oid)
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%w: id %s", ErrUserNotFound, oid)
	}

	return nil
}

func (repo *repository) FindAll(ctx context.Context) ([]User, error) {
	docs, err := repo.store.Find(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.User())
	}

	return users, nil
}

func (repo *repository) DeleteAll(ctx context.Context) error {
	_, err := repo.store.DeleteMany(ctx)
	return err
}

func parseID(id string) (ObjectID, error) {
	oid, err := ParseID(id)
	if err != nil {
		return ObjectID{}, fmt.Errorf("%w: %q", ErrInvalidIdentity, id)
	}

	return oid, nil
}
