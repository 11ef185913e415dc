package db

import (
	"context"
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/flarexio/useradmin/conf"
	"github.com/flarexio/useradmin/user"
)

func NewStore(cfg conf.Persistence) (user.Store, error) {
	filename := cfg.Host + "/" + cfg.Name + ".db"
	if cfg.InMem {
		filename = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(filename), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, err
	}

	store := new(userStore)
	store.db = db
	return store, nil
}

type User struct {
	ID    string `gorm:"primaryKey"`
	Name  string
	Email string `gorm:"index"`
	DataModel
}

func NewUser(doc *user.Document) *User {
	return &User{
		ID:    doc.OID.String(),
		Name:  doc.Name,
		Email: doc.Email,
	}
}

func (u *User) reconstitute() (*user.Document, error) {
	oid, err := user.ParseID(u.ID)
	if err != nil {
		return nil, err
	}

	return &user.Document{
		OID:   oid,
		Name:  u.Name,
		Email: u.Email,
	}, nil
}

type userStore struct {
	db *gorm.DB
}

func (store *userStore) DB() *gorm.DB {
	return store.db
}

func (store *userStore) InsertOne(ctx context.Context, doc *user.Document) (user.ObjectID, error) {
	saved := *doc
	saved.OID = user.MakeID()

	u := NewUser(&saved) // convert Domain to Data model
	if err := store.db.WithContext(ctx).Create(u).Error; err != nil {
		return user.ObjectID{}, err
	}

	return saved.OID, nil
}

func (store *userStore) FindOneAndUpdate(ctx context.Context, id user.ObjectID, p user.Patch) (*user.Document, error) {
	var u *User

	err := store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&u, "id = ?", id.String()).Error; err != nil {
			return err
		}

		if p.IsEmpty() {
			return nil
		}

		return tx.Model(u).Updates(p.Fields()).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNoDocuments
		}

		return nil, err
	}

	doc, err := u.reconstitute()
	if err != nil {
		return nil, err
	}

	return doc.Apply(p), nil
}

func (store *userStore) DeleteOne(ctx context.Context, id user.ObjectID) (int64, error) {
	result := store.db.WithContext(ctx).Delete(&User{}, "id = ?", id.String())
	if err := result.Error; err != nil {
		return 0, err
	}

	return result.RowsAffected, nil
}

func (store *userStore) DeleteMany(ctx context.Context) (int64, error) {
	result := store.db.WithContext(ctx).Exec("DELETE FROM users")
	if err := result.Error; err != nil {
		return 0, err
	}

	return result.RowsAffected, nil
}

func (store *userStore) FindOne(ctx context.Context, filter user.Filter) (*user.Document, error) {
	tx := store.db.WithContext(ctx)

	if filter.ID != nil {
		tx = tx.Where("id = ?", filter.ID.String())
	}

	if filter.Email != nil {
		tx = tx.Where("email = ?", *filter.Email)
	}

	var u *User
	if err := tx.Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNoDocuments
		}

		return nil, err
	}

	return u.reconstitute()
}

func (store *userStore) Find(ctx context.Context) ([]*user.Document, error) {
	var users []*User

	result := store.db.WithContext(ctx).Order("id").Find(&users)
	if err := result.Error; err != nil {
		return nil, err
	}

	docs := make([]*user.Document, 0, len(users))
	for _, u := range users {
		doc, err := u.reconstitute()
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func (store *userStore) Close() error {
	db, err := store.db.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
