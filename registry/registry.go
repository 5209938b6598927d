// Package registry provides Registry, a concurrency-safe association of
// keys (stream identifiers) with reference-counted values (pads).
package registry

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/xsync"
)

// Refcounted is a value the registry holds a strong reference to.
type Refcounted[V any] interface {
	comparable
	Ref() V
	Unref(ctx context.Context) int64
}

// Registry binds each key to at most one value. Once inserted a binding is
// never replaced, only removed (Remove) or dropped altogether (Clear).
//
// Lookups take a shared lock, so they do not block each other.
type Registry[K comparable, V Refcounted[V]] struct {
	locker xsync.RWMutex
	items  map[K]V
}

func New[K comparable, V Refcounted[V]]() *Registry[K, V] {
	return &Registry[K, V]{
		items: map[K]V{},
	}
}

// Lookup returns the value bound to the key.
func (r *Registry[K, V]) Lookup(
	ctx context.Context,
	key K,
) (V, bool) {
	r.locker.ManualRLock(ctx)
	defer r.locker.ManualRUnlock(ctx)
	v, ok := r.items[key]
	return v, ok
}

// Insert binds the key to the value unless the key is already bound, in
// which case it is a no-op and the already bound value is returned.
// The registry takes its own reference to a newly stored value, the
// caller keeps theirs.
func (r *Registry[K, V]) Insert(
	ctx context.Context,
	key K,
	value V,
) (_ret V, _stored bool) {
	logger.Tracef(ctx, "Insert(%v)", key)
	defer func() { logger.Tracef(ctx, "/Insert(%v): %t", key, _stored) }()
	r.locker.ManualLock(ctx)
	defer r.locker.ManualUnlock(ctx)
	if cur, ok := r.items[key]; ok {
		return cur, false
	}
	r.items[key] = value.Ref()
	return value, true
}

// Remove unbinds the key and drops the registry's reference to its value.
func (r *Registry[K, V]) Remove(
	ctx context.Context,
	key K,
) bool {
	r.locker.ManualLock(ctx)
	v, ok := r.items[key]
	delete(r.items, key)
	r.locker.ManualUnlock(ctx)
	if ok {
		v.Unref(ctx)
	}
	return ok
}

// Clear unbinds every key and drops all the registry's references.
// It must not race with the data path: the caller serializes it.
func (r *Registry[K, V]) Clear(ctx context.Context) int {
	logger.Debugf(ctx, "Clear")
	r.locker.ManualLock(ctx)
	items := r.items
	r.items = map[K]V{}
	r.locker.ManualUnlock(ctx)
	for _, v := range items {
		v.Unref(ctx)
	}
	logger.Debugf(ctx, "/Clear: %d", len(items))
	return len(items)
}

func (r *Registry[K, V]) Len(ctx context.Context) int {
	r.locker.ManualRLock(ctx)
	defer r.locker.ManualRUnlock(ctx)
	return len(r.items)
}

// Range calls the callback for every binding (in no particular order) until
// it returns false. The registry is read-locked during the iteration, thus
// the callback must not modify it.
func (r *Registry[K, V]) Range(
	ctx context.Context,
	callback func(K, V) bool,
) {
	r.locker.ManualRLock(ctx)
	defer r.locker.ManualRUnlock(ctx)
	for k, v := range r.items {
		if !callback(k, v) {
			return
		}
	}
}

func (r *Registry[K, V]) String() string {
	ctx := context.TODO()
	return fmt.Sprintf("Registry(%d)", r.Len(ctx))
}
