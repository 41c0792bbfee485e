package book

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryRepo is an in-process Repository. IDs use the same ObjectID hex shape as MongoRepo.
type MemoryRepo struct {
	mu    sync.RWMutex
	books map[string]memoryEntry
	seq   uint64
	now   func() time.Time
}

type memoryEntry struct {
	book Book
	seq  uint64
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		books: make(map[string]memoryEntry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) List(_ context.Context, q Query) ([]Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]memoryEntry, 0, len(r.books))
	for _, e := range r.books {
		if q.Matches(e.book) {
			entries = append(entries, e)
		}
	}

	// Newest first; insertion order breaks ties between equal timestamps.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.book.CreatedAt.Equal(b.book.CreatedAt) {
			return a.book.CreatedAt.After(b.book.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]Book, 0, len(entries))
	for _, e := range entries {
		out = append(out, cloneBook(e.book))
	}
	return out, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (Book, error) {
	if err := checkObjectID(id); err != nil {
		return Book{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return cloneBook(e.book), nil
}

func (r *MemoryRepo) Create(_ context.Context, f Fields) (Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(f), nil
}

func (r *MemoryRepo) Replace(_ context.Context, id string, f Fields) (Book, error) {
	if err := checkObjectID(id); err != nil {
		return Book{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	e.book.Title = f.Title
	e.book.Author = f.Author
	e.book.ISBN = f.ISBN
	e.book.Year = copyInt(f.Year)
	e.book.UpdatedAt = r.now()
	r.books[id] = e
	return cloneBook(e.book), nil
}

func (r *MemoryRepo) Update(_ context.Context, id string, p Patch) (Book, error) {
	if err := checkObjectID(id); err != nil {
		return Book{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	p.Apply(&e.book)
	e.book.UpdatedAt = r.now()
	r.books[id] = e
	return cloneBook(e.book), nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	if err := checkObjectID(id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return ErrNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *MemoryRepo) Reset(_ context.Context, seed []Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.books = make(map[string]memoryEntry, len(seed))
	for _, f := range seed {
		r.insertLocked(f)
	}
	return nil
}

func (r *MemoryRepo) Ping(_ context.Context) error {
	return nil
}

func (r *MemoryRepo) insertLocked(f Fields) Book {
	now := r.now()
	b := Book{
		ID:        bson.NewObjectID().Hex(),
		Title:     f.Title,
		Author:    f.Author,
		ISBN:      f.ISBN,
		Year:      copyInt(f.Year),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.seq++
	r.books[b.ID] = memoryEntry{book: b, seq: r.seq}
	return cloneBook(b)
}

func checkObjectID(id string) error {
	if _, err := bson.ObjectIDFromHex(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func cloneBook(b Book) Book {
	b.Year = copyInt(b.Year)
	return b
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
