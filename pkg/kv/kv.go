// Package kv is a small key-value store with hierarchical keys, used to
// persist analysis history. Keys are string segments joined with ':'.
//
// [Badger] persists to disk; [Memory] backs tests.
package kv

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("kv: not found")

// Separator joins key segments. Segments must not contain it.
const Separator = ':'

// Key is a hierarchical path such as Key{"history", "sentiment", id}.
type Key []string

func (k Key) String() string { return strings.Join(k, string(Separator)) }

func (k Key) bytes() []byte { return []byte(k.String()) }

// prefix returns the scan prefix for k. The trailing separator keeps
// "a:b" from matching "a:bc".
func (k Key) prefix() []byte {
	if len(k) == 0 {
		return nil
	}
	return append(k.bytes(), Separator)
}

func parseKey(b []byte) Key {
	parts := bytes.Split(b, []byte{Separator})
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = string(p)
	}
	return k
}

// Entry is a key-value pair yielded by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get returns ErrNotFound if key is absent.
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key Key) error
	// List yields entries under prefix in lexicographic key order.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]
	// BatchDelete removes keys atomically.
	BatchDelete(ctx context.Context, keys []Key) error
	Close() error
}
