// Package dao defines the storage contract the persistence backends
// share: a generic keyed store with Save/Load/Delete/List semantics.
// Concrete implementations live in sub packages; callers depend on this
// interface only.
package dao

import (
	"context"
)

// Service stores entities of type T under comparable keys of type K.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
