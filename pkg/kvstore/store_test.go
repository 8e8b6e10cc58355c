package kvstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "users")
	require.ErrorIs(t, err, ErrNotFound)

	value := []byte(`[{"id":"1"}]`)
	require.NoError(t, store.Set(ctx, "users", value))
	value[0] = 'x'

	got, err := store.Get(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got))

	require.NoError(t, store.Delete(ctx, "users"))
	_, err = store.Get(ctx, "users")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNamespacedPrefixesKeys(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	ns := NewNamespaced(mem, "cosmos:")

	require.NoError(t, ns.Set(ctx, "courses", []byte("[]")))
	assert.Equal(t, []string{"cosmos:courses"}, mem.Keys())

	got, err := ns.Get(ctx, "courses")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, ns.Delete(ctx, "courses"))
	assert.Empty(t, mem.Keys())
}

func TestInstrumentedTreatsMissAsSuccess(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var ops []string
	var errs []error
	store := NewInstrumented(NewMemoryStore(), func(op string, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, op)
		errs = append(errs, err)
	})

	_, err := store.Get(ctx, "missing")
	require.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "k"))

	assert.Equal(t, []string{"get", "set", "delete"}, ops)
	for _, e := range errs {
		assert.NoError(t, e)
	}
}

func TestNewInstrumentedWithoutObserver(t *testing.T) {
	mem := NewMemoryStore()
	assert.Same(t, mem, NewInstrumented(mem, nil))
}
