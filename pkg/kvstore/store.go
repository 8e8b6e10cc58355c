// Package kvstore defines the string-keyed storage port every collection is persisted
// through, plus the in-memory, Redis and PostgreSQL backends.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("kvstore: key not found")

// Store persists opaque values under string keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Namespaced prefixes every key before delegating to the wrapped store.
type Namespaced struct {
	store  Store
	prefix string
}

// NewNamespaced wraps store so that key k is stored as prefix+k.
func NewNamespaced(store Store, prefix string) *Namespaced {
	return &Namespaced{store: store, prefix: prefix}
}

func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.prefix+key)
}

// Observer receives the outcome of every store call.
type Observer func(op string, elapsed time.Duration, err error)

// Instrumented reports call latency to an observer, typically a Prometheus histogram.
type Instrumented struct {
	store    Store
	observer Observer
}

// NewInstrumented wraps store with observer. A nil observer returns store unchanged.
func NewInstrumented(store Store, observer Observer) Store {
	if observer == nil {
		return store
	}
	return &Instrumented{store: store, observer: observer}
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := i.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		i.observer("get", time.Since(start), nil)
		return nil, err
	}
	i.observer("get", time.Since(start), err)
	return value, err
}

func (i *Instrumented) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := i.store.Set(ctx, key, value)
	i.observer("set", time.Since(start), err)
	return err
}

func (i *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.store.Delete(ctx, key)
	i.observer("delete", time.Since(start), err)
	return err
}
