package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

var (
	// ErrNotFound is returned when an entity is absent from its collection.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate is returned when a unique attribute is already taken.
	ErrDuplicate = errors.New("repository: duplicate")
)

// Collection keys inside the store namespace.
const (
	KeyUsers        = "users"
	KeyCourses      = "courses"
	KeyCourseSeq    = "course_seq"
	KeyProgress     = "progress"
	KeyReviews      = "reviews"
	KeyWishlist     = "wishlist"
	KeyQuestions    = "questions"
	KeyCertificates = "certificates"
	KeyRefunds      = "refunds"
	KeyCoupons      = "coupons"
	KeySessions     = "sessions"
)

// collection persists one JSON document under a single key. Every mutation is a
// load-mutate-save of the whole document under the collection mutex, so writers in this
// process never interleave.
type collection[T any] struct {
	store kvstore.Store
	key   string
	mu    sync.Mutex
	empty func() T
}

func newCollection[T any](store kvstore.Store, key string, empty func() T) *collection[T] {
	return &collection[T]{store: store, key: key, empty: empty}
}

// load returns the decoded document and whether the key existed.
func (c *collection[T]) load(ctx context.Context) (T, bool, error) {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return c.empty(), false, nil
		}
		return c.empty(), false, fmt.Errorf("load %s: %w", c.key, err)
	}
	doc := c.empty()
	if len(raw) == 0 {
		return doc, true, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return c.empty(), true, fmt.Errorf("decode %s: %w", c.key, err)
	}
	return doc, true, nil
}

func (c *collection[T]) save(ctx context.Context, doc T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.store.Set(ctx, c.key, raw); err != nil {
		return fmt.Errorf("save %s: %w", c.key, err)
	}
	return nil
}

// read loads the document without taking the writer lock.
func (c *collection[T]) read(ctx context.Context) (T, error) {
	doc, _, err := c.load(ctx)
	return doc, err
}

// update runs fn against the current document and saves it when fn returns nil.
// fn reports whether anything changed; unchanged documents are not rewritten.
func (c *collection[T]) update(ctx context.Context, fn func(doc *T, exists bool) (bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, exists, err := c.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(&doc, exists)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return c.save(ctx, doc)
}
