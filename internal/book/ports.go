package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository_test.go -package=book

// Repository defines the contract for book data storage.
// Implementations assign IDs and maintain CreatedAt/UpdatedAt on every write.
type Repository interface {
	List(ctx context.Context, q Query) ([]Book, error)
	GetByID(ctx context.Context, id string) (Book, error)
	Create(ctx context.Context, f Fields) (Book, error)
	Replace(ctx context.Context, id string, f Fields) (Book, error)
	Update(ctx context.Context, id string, p Patch) (Book, error)
	Delete(ctx context.Context, id string) error
	// Reset removes every book and inserts seed in order.
	Reset(ctx context.Context, seed []Fields) error
	Ping(ctx context.Context) error
}
