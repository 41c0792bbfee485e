package book

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no book has the requested ID.
	ErrNotFound = errors.New("book not found")

	// ErrInvalidID is returned when an ID is not a valid identifier for the backing store.
	ErrInvalidID = errors.New("invalid book id")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// Book represents a book entity.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn,omitempty"`
	Year      *int      `json:"year,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Fields is the full set of mutable fields, used by create and replace.
type Fields struct {
	Title  string
	Author string
	ISBN   string
	Year   *int
}

// Patch holds the subset of fields to merge into an existing book. Nil means unchanged.
type Patch struct {
	Title  *string
	Author *string
	ISBN   *string
	Year   *int
}

// Query filters the book list. Q takes precedence over the per-field filters.
type Query struct {
	Q      string
	Title  string
	Author string
	ISBN   string
}

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (f *Fields) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Author = strings.TrimSpace(f.Author)
	f.ISBN = strings.TrimSpace(f.ISBN)
}

// Validate trims the fields and checks that title and author are present.
func (f *Fields) Validate() error {
	f.normalize()

	var errs []FieldError
	if f.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "title is required"})
	}
	if f.Author == "" {
		errs = append(errs, FieldError{Field: "author", Message: "author is required"})
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Validate trims the provided fields. A title or author that is present must not be blank.
func (p *Patch) Validate() error {
	var errs []FieldError
	if p.Title != nil {
		v := strings.TrimSpace(*p.Title)
		p.Title = &v
		if v == "" {
			errs = append(errs, FieldError{Field: "title", Message: "title must not be blank"})
		}
	}
	if p.Author != nil {
		v := strings.TrimSpace(*p.Author)
		p.Author = &v
		if v == "" {
			errs = append(errs, FieldError{Field: "author", Message: "author must not be blank"})
		}
	}
	if p.ISBN != nil {
		v := strings.TrimSpace(*p.ISBN)
		p.ISBN = &v
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Apply merges the patch into b. Timestamps are left to the caller.
func (p Patch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
	}
	if p.Year != nil {
		y := *p.Year
		b.Year = &y
	}
}

// Matches reports whether b satisfies q using case-insensitive substring matching.
func (q Query) Matches(b Book) bool {
	if q.Q != "" {
		return containsFold(b.Title, q.Q) || containsFold(b.Author, q.Q) || containsFold(b.ISBN, q.Q)
	}
	if q.Title != "" && !containsFold(b.Title, q.Title) {
		return false
	}
	if q.Author != "" && !containsFold(b.Author, q.Author) {
		return false
	}
	if q.ISBN != "" && !containsFold(b.ISBN, q.ISBN) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
