package cachestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// DefaultBadgerKey is the key the snapshot is stored under.
const DefaultBadgerKey = "revlens:profile_snapshot"

// BadgerStore keeps the blob under one key of a BadgerDB.
type BadgerStore struct {
	db    *badger.DB
	key   []byte
	owned bool
}

// NewBadgerStore wraps an open database. The caller keeps ownership.
func NewBadgerStore(db *badger.DB, key string) *BadgerStore {
	if key == "" {
		key = DefaultBadgerKey
	}
	return &BadgerStore{db: db, key: []byte(key)}
}

// OpenBadger opens (or creates) a BadgerDB at dir. Close releases it.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	s := NewBadgerStore(db, "")
	s.owned = true
	return s, nil
}

// Get implements BlobStore.
func (s *BadgerStore) Get(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", s.key, err)
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// Put implements BlobStore.
func (s *BadgerStore) Put(ctx context.Context, blob []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(s.key, blob); err != nil {
			return fmt.Errorf("set %s: %w", s.key, err)
		}
		return nil
	})
}

// Close closes the database if OpenBadger opened it.
func (s *BadgerStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
