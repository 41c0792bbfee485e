package book

import (
	"context"
	"fmt"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the books matching q, newest first.
func (s *Service) List(ctx context.Context, q Query) ([]Book, error) {
	books, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// GetByID returns a book by its ID.
func (s *Service) GetByID(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates f and stores a new book.
func (s *Service) Create(ctx context.Context, f Fields) (Book, error) {
	if err := f.Validate(); err != nil {
		return Book{}, err
	}
	return s.repo.Create(ctx, f)
}

// Replace overwrites every mutable field of the book with the given ID.
func (s *Service) Replace(ctx context.Context, id string, f Fields) (Book, error) {
	if err := f.Validate(); err != nil {
		return Book{}, err
	}
	return s.repo.Replace(ctx, id, f)
}

// Update merges p into the book with the given ID.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Book, error) {
	if err := p.Validate(); err != nil {
		return Book{}, err
	}
	return s.repo.Update(ctx, id, p)
}

// Delete removes the book with the given ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Seed clears the collection and inserts the example books.
// It is destructive and not safe to run alongside other writers.
func (s *Service) Seed(ctx context.Context) error {
	if err := s.repo.Reset(ctx, SeedData()); err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	return nil
}

// Ping checks that the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
