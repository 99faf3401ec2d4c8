package domain

import "context"

// OwnedRepository is the ownership-scoped contract shared by per-user
// resources. Every lookup filters on the owner id; rows owned by another
// user are reported as ErrNotFound, exactly like rows that do not exist.
type OwnedRepository[T any] interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]T, error)
	GetForOwner(ctx context.Context, ownerID, id int64) (*T, error)
	Create(ctx context.Context, item *T) error
	UpdateForOwner(ctx context.Context, ownerID int64, item *T) error
	DeleteForOwner(ctx context.Context, ownerID, id int64) error
}
