package viewstate

import (
	"context"
	"sync"
)

// KeyedFetchFunc loads the list for one key.
type KeyedFetchFunc[K comparable, T any] func(ctx context.Context, key K) ([]T, error)

// Keyed is a List scoped by a key, such as the reviews of one product.
// Changing the key triggers a fetch; setting the same key again does not.
type Keyed[K comparable, T any] struct {
	list *List[T]

	mu     sync.Mutex
	key    K
	hasKey bool
}

// NewKeyed creates an adapter with no key. It stays idle until SetKey.
func NewKeyed[K comparable, T any](name string, fetch KeyedFetchFunc[K, T], opts ...Option) *Keyed[K, T] {
	k := &Keyed[K, T]{}
	k.list = NewList(name, func(ctx context.Context) ([]T, error) {
		key, _ := k.Key()
		return fetch(ctx, key)
	}, opts...)
	return k
}

// Key returns the current key and whether one has been set.
func (k *Keyed[K, T]) Key() (K, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.key, k.hasKey
}

// SetKey points the adapter at key and fetches if the key changed.
func (k *Keyed[K, T]) SetKey(ctx context.Context, key K) State[T] {
	k.mu.Lock()
	if k.hasKey && k.key == key {
		k.mu.Unlock()
		return k.list.Snapshot()
	}
	k.key, k.hasKey = key, true
	k.mu.Unlock()

	return k.list.Refetch(ctx)
}

// Refetch reloads the list for the current key. Without a key it only
// returns the idle snapshot.
func (k *Keyed[K, T]) Refetch(ctx context.Context) State[T] {
	if _, ok := k.Key(); !ok {
		return k.list.Snapshot()
	}
	return k.list.Refetch(ctx)
}

// Snapshot returns a copy of the current state.
func (k *Keyed[K, T]) Snapshot() State[T] {
	return k.list.Snapshot()
}

// Remove drops matching items locally.
func (k *Keyed[K, T]) Remove(match func(T) bool) int {
	return k.list.Remove(match)
}

// Subscribe registers fn for every transition.
func (k *Keyed[K, T]) Subscribe(fn func(State[T])) (cancel func()) {
	return k.list.Subscribe(fn)
}
