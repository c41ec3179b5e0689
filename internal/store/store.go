// Package store provides the key-value persistence interface and its SQLite,
// Redis and in-memory implementations.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key has no value.
	ErrNotFound = errors.New("key not found")

	// ErrUndeclaredKey is returned when an Update callback touches a key it
	// did not declare up front.
	ErrUndeclaredKey = errors.New("key not declared for update")
)

// Store is a string-keyed byte store. It is the system of record for all
// course state.
type Store interface {
	// Get returns the value stored at key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites the value at key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Keys lists keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Update runs fn against the latest committed values of keys and commits
	// its writes atomically. Concurrent updates over overlapping keys are
	// serialized, so no write is lost to a stale read.
	Update(ctx context.Context, keys []string, fn func(tx Tx) error) error

	// Close closes the store.
	Close() error
}

// Tx is the view of the store handed to an Update callback. Writes are
// buffered until the callback returns nil.
type Tx interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte)
	Delete(key string)
}

// bufferedTx implements Tx on top of a backend read function. The backends
// only differ in how reads are isolated and how writes get committed.
type bufferedTx struct {
	declared map[string]bool
	read     func(key string) ([]byte, error)
	writes   map[string][]byte // nil value marks a delete
	order    []string
	err      error
}

func newBufferedTx(keys []string, read func(key string) ([]byte, error)) *bufferedTx {
	declared := make(map[string]bool, len(keys))
	for _, k := range keys {
		declared[k] = true
	}
	return &bufferedTx{
		declared: declared,
		read:     read,
		writes:   map[string][]byte{},
	}
}

func (t *bufferedTx) check(key string) error {
	if !t.declared[key] {
		return fmt.Errorf("%w: %s", ErrUndeclaredKey, key)
	}
	return nil
}

func (t *bufferedTx) Get(key string) ([]byte, error) {
	if err := t.check(key); err != nil {
		return nil, err
	}
	if v, ok := t.writes[key]; ok {
		if v == nil {
			return nil, ErrNotFound
		}
		return clone(v), nil
	}
	return t.read(key)
}

func (t *bufferedTx) Set(key string, value []byte) {
	if err := t.check(key); err != nil {
		if t.err == nil {
			t.err = err
		}
		return
	}
	if value == nil {
		value = []byte{}
	}
	t.record(key, clone(value))
}

func (t *bufferedTx) Delete(key string) {
	if err := t.check(key); err != nil {
		if t.err == nil {
			t.err = err
		}
		return
	}
	t.record(key, nil)
}

func (t *bufferedTx) record(key string, value []byte) {
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = value
}

// each visits buffered writes in first-write order.
func (t *bufferedTx) each(fn func(key string, value []byte) error) error {
	for _, k := range t.order {
		if err := fn(k, t.writes[k]); err != nil {
			return err
		}
	}
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
