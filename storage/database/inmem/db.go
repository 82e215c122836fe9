package inmemdb

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
)

const (
	CollUsers     = "users"
	CollCourses   = "courses"
	CollForums    = "forums"
	CollExercises = "exercises"
	CollTasks     = "tasks"
	CollAttempts  = "attempts"
)

type (
	// DB is an in-memory document store. Documents are kept JSON encoded so callers never share memory with it.
	DB struct {
		mu    sync.RWMutex
		txMu  sync.Mutex
		data  *store
		fails map[string]error
	}

	store struct {
		colls map[string]map[string][]byte
		fails map[string]error
	}

	txKey struct{}
)

var _ core.Transactor = (*DB)(nil)

func Open() *DB {
	return &DB{
		data:  &store{colls: make(map[string]map[string][]byte)},
		fails: make(map[string]error),
	}
}

// FailSaves makes every following save into collection `coll` fail with `err` (nil clears it).
func (db *DB) FailSaves(coll string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.fails, coll)
		return
	}
	db.fails[coll] = err
}

// WithinTransaction runs `fn` alone against the store and restores the previous state if it fails.
// Nested calls join the running transaction.
func (db *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	snapshot := db.data.clone()
	db.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.mu.Lock()
		db.data = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

func (db *DB) view(fn func(s *store) error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(db.data)
}

func (db *DB) update(fn func(s *store) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.fails = db.fails
	return fn(db.data)
}

func (s *store) clone() *store {
	res := &store{colls: make(map[string]map[string][]byte, len(s.colls))}
	for name, coll := range s.colls {
		c := make(map[string][]byte, len(coll))
		for id, raw := range coll {
			c[id] = raw
		}
		res.colls[name] = c
	}
	return res
}

func (s *store) get(coll, id string, v interface{}) (bool, error) {
	raw, ok := s.colls[coll][id]
	if !ok {
		return false, nil
	}
	return true, errors.Wrapf(json.Unmarshal(raw, v), "decoding %s/%s", coll, id)
}

func (s *store) put(coll, id string, v interface{}) error {
	if err := s.fails[coll]; err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s/%s", coll, id)
	}
	if s.colls[coll] == nil {
		s.colls[coll] = make(map[string][]byte)
	}
	s.colls[coll][id] = raw
	return nil
}

func (s *store) del(coll, id string) bool {
	_, ok := s.colls[coll][id]
	delete(s.colls[coll], id)
	return ok
}

// each calls fn with every document of `coll`, in id order.
func (s *store) each(coll string, fn func(raw []byte) error) error {
	ids := make([]string, 0, len(s.colls[coll]))
	for id := range s.colls[coll] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := fn(s.colls[coll][id]); err != nil {
			return err
		}
	}
	return nil
}
