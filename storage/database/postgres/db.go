package pgrepos

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
)

const (
	usersColl     = "users"
	coursesColl   = "courses"
	forumsColl    = "forums"
	exercisesColl = "exercises"
	tasksColl     = "tasks"
	attemptsColl  = "attempts"

	uniqueViolation = "23505"
)

type (
	// DB keeps every document in the `documents` JSONB table, keyed by (collection, id).
	DB struct {
		db *sqlx.DB
	}

	txKey struct{}

	// querier is implemented by both *sqlx.DB and *sqlx.Tx.
	querier interface {
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	}
)

var _ core.Transactor = (*DB)(nil)

func New(db *sqlx.DB) *DB {
	return &DB{db: db}
}

// WithinTransaction runs `fn` in a serializable transaction carried by the context.
// Nested calls join the running transaction.
func (db *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (db *DB) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db.db
}

func (db *DB) get(ctx context.Context, coll, id string, v interface{}, notFound error) error {
	var raw []byte
	err := db.q(ctx).GetContext(ctx, &raw, "SELECT doc FROM documents WHERE collection = $1 AND id = $2", coll, id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	} else if err != nil {
		return errors.Wrapf(err, "getting %s/%s", coll, id)
	}
	return errors.Wrapf(json.Unmarshal(raw, v), "decoding %s/%s", coll, id)
}

// query decodes the docs returned by `query` (selecting `doc` only) into `dest`, a pointer to a slice.
func (db *DB) query(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	var raws [][]byte
	if err := db.q(ctx).SelectContext(ctx, &raws, query, args...); err != nil {
		return err
	}
	buf := make([]byte, 0, 2)
	buf = append(buf, '[')
	buf = append(buf, bytes.Join(raws, []byte(","))...)
	buf = append(buf, ']')
	return json.Unmarshal(buf, dest)
}

func (db *DB) insert(ctx context.Context, coll, id string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s/%s", coll, id)
	}
	_, err = db.q(ctx).ExecContext(ctx, "INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3)", coll, id, raw)
	return err
}

func (db *DB) save(ctx context.Context, coll, id string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s/%s", coll, id)
	}
	_, err = db.q(ctx).ExecContext(ctx, `
		INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		coll, id, raw,
	)
	return errors.Wrapf(err, "saving %s/%s", coll, id)
}

func (db *DB) delete(ctx context.Context, coll, id string, notFound error) error {
	res, err := db.q(ctx).ExecContext(ctx, "DELETE FROM documents WHERE collection = $1 AND id = $2", coll, id)
	if err != nil {
		return errors.Wrapf(err, "deleting %s/%s", coll, id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
