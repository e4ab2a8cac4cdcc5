// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package cooldown

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps windows in BadgerDB using native key TTLs.
type BadgerStore struct {
	db     *badger.DB
	prefix string
	owned  bool
}

// OpenBadgerStore opens (or creates) a BadgerDB at path. An empty path
// opens an in-memory database.
func OpenBadgerStore(path, prefix string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db, prefix: prefix, owned: true}, nil
}

// NewBadgerStore wraps an already open database. Close leaves db open.
func NewBadgerStore(db *badger.DB, prefix string) *BadgerStore {
	return &BadgerStore{db: db, prefix: prefix}
}

// Check implements Store.
func (s *BadgerStore) Check(_ context.Context, key string) (active bool, err error) {
	start := time.Now()
	defer func() { observe(BackendBadger, "check", start, err) }()

	err = s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(prefixed(s.prefix, key)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		active = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("badger get: %w", err)
	}
	return active, nil
}

// Set implements Store.
func (s *BadgerStore) Set(_ context.Context, key string, minutes int) (err error) {
	if minutes <= 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe(BackendBadger, "set", start, err) }()

	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(prefixed(s.prefix, key)), []byte{1}).WithTTL(window(minutes))
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

// Close closes the database if this store opened it.
func (s *BadgerStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
