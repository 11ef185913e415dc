package pg

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flarexio/useradmin/conf"
	"github.com/flarexio/useradmin/user"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS users_email_idx ON users (email);
`

// DSN builds a connection string from cfg. An explicit URI wins.
func DSN(cfg conf.Persistence) string {
	if cfg.URI != "" {
		return cfg.URI
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Name,
	}

	return u.String()
}

func NewStore(ctx context.Context, cfg conf.Persistence) (user.Store, error) {
	pcfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, err
	}

	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 5
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: migrate: %w", err)
	}

	return &userStore{pool}, nil
}

type userStore struct {
	pool *pgxpool.Pool
}

func (store *userStore) InsertOne(ctx context.Context, doc *user.Document) (user.ObjectID, error) {
	oid := user.MakeID()

	_, err := store.pool.Exec(ctx,
		`INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`,
		oid.String(), doc.Name, doc.Email)

	if err != nil {
		return user.ObjectID{}, err
	}

	return oid, nil
}

func (store *userStore) FindOneAndUpdate(ctx context.Context, id user.ObjectID, p user.Patch) (*user.Document, error) {
	row := store.pool.QueryRow(ctx, `
		UPDATE users SET
			name       = COALESCE($2, name),
			email      = COALESCE($3, email),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, email`,
		id.String(), p.Name, p.Email)

	return scanDocument(row)
}

func (store *userStore) DeleteOne(ctx context.Context, id user.ObjectID) (int64, error) {
	tag, err := store.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (store *userStore) DeleteMany(ctx context.Context) (int64, error) {
	tag, err := store.pool.Exec(ctx, `DELETE FROM users`)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (store *userStore) FindOne(ctx context.Context, filter user.Filter) (*user.Document, error) {
	var id, email *string
	if filter.ID != nil {
		s := filter.ID.String()
		id = &s
	}

	if filter.Email != nil {
		email = filter.Email
	}

	row := store.pool.QueryRow(ctx, `
		SELECT id, name, email FROM users
		WHERE ($1::text IS NULL OR id = $1)
		  AND ($2::text IS NULL OR email = $2)
		ORDER BY id
		LIMIT 1`,
		id, email)

	return scanDocument(row)
}

func (store *userStore) Find(ctx context.Context) ([]*user.Document, error) {
	rows, err := store.pool.Query(ctx, `SELECT id, name, email FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]*user.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

func (store *userStore) Close() error {
	store.pool.Close()
	return nil
}

func scanDocument(row pgx.Row) (*user.Document, error) {
	var id, name, email string
	if err := row.Scan(&id, &name, &email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNoDocuments
		}

		return nil, err
	}

	oid, err := user.ParseID(id)
	if err != nil {
		return nil, err
	}

	return &user.Document{
		OID:   oid,
		Name:  name,
		Email: email,
	}, nil
}
