package user

import (
	"context"
	"errors"
)

// ErrNoDocuments is reported by a Store when nothing matched.
var ErrNoDocuments = errors.New("no documents in result")

// Filter selects a single document either by identity or by email.
type Filter struct {
	ID    *ObjectID
	Email *string
}

func ByID(id ObjectID) Filter {
	return Filter{ID: &id}
}

func ByEmail(email string) Filter {
	return Filter{Email: &email}
}

func (f Filter) Match(doc *Document) bool {
	if f.ID != nil && doc.OID != *f.ID {
		return false
	}

	if f.Email != nil && doc.Email != *f.Email {
		return false
	}

	return true
}

// Store is the capability set a persistence backend must offer.
type Store interface {
	// Command

	InsertOne(ctx context.Context, doc *Document) (ObjectID, error)
	FindOneAndUpdate(ctx context.Context, id ObjectID, p Patch) (*Document, error)
	DeleteOne(ctx context.Context, id ObjectID) (int64, error)
	DeleteMany(ctx context.Context) (int64, error)

	// Query

	FindOne(ctx context.Context, filter Filter) (*Document, error)
	Find(ctx context.Context) ([]*Document, error)

	Close() error
}
