package book

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		seq        bigint GENERATED ALWAYS AS IDENTITY,
		title      text NOT NULL,
		author     text NOT NULL,
		isbn       text NOT NULL DEFAULT '',
		year       integer,
		created_at timestamptz NOT NULL DEFAULT clock_timestamp(),
		updated_at timestamptz NOT NULL DEFAULT clock_timestamp()
	)`,
	`CREATE INDEX IF NOT EXISTS books_created_at_idx ON books (created_at DESC, seq DESC)`,
}

const bookColumns = `id::text, title, author, isbn, year, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// EnsureSchema creates the books table and its index when missing.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	for _, stmt := range schemaStatements {
		if _, err := r.db.Exec(timeoutCtx, stmt); err != nil {
			return fmt.Errorf("ensure books schema: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, error) {
	where, args := postgresFilter(q)
	sql := "SELECT " + bookColumns + " FROM books " + where + " ORDER BY created_at DESC, seq DESC"

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	if err := checkUUID(id); err != nil {
		return Book{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	row := r.db.QueryRow(timeoutCtx, "SELECT "+bookColumns+" FROM books WHERE id = $1", id)
	return scanOne(row)
}

func (r *PostgresRepo) Create(ctx context.Context, f Fields) (Book, error) {
	const sql = `
		INSERT INTO books (title, author, isbn, year)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanOne(r.db.QueryRow(timeoutCtx, sql, f.Title, f.Author, f.ISBN, f.Year))
}

func (r *PostgresRepo) Replace(ctx context.Context, id string, f Fields) (Book, error) {
	if err := checkUUID(id); err != nil {
		return Book{}, err
	}

	const sql = `
		UPDATE books
		SET title = $1, author = $2, isbn = $3, year = $4, updated_at = clock_timestamp()
		WHERE id = $5
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanOne(r.db.QueryRow(timeoutCtx, sql, f.Title, f.Author, f.ISBN, f.Year, id))
}

func (r *PostgresRepo) Update(ctx context.Context, id string, p Patch) (Book, error) {
	if err := checkUUID(id); err != nil {
		return Book{}, err
	}

	fields := []string{}
	args := []any{}
	argn := 1
	add := func(column string, value any) {
		fields = append(fields, column+" = $"+strconv.Itoa(argn))
		args = append(args, value)
		argn++
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Author != nil {
		add("author", *p.Author)
	}
	if p.ISBN != nil {
		add("isbn", *p.ISBN)
	}
	if p.Year != nil {
		add("year", *p.Year)
	}
	fields = append(fields, "updated_at = clock_timestamp()")
	args = append(args, id)

	sql := "UPDATE books SET " + strings.Join(fields, ", ") +
		" WHERE id = $" + strconv.Itoa(argn) + " RETURNING " + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanOne(r.db.QueryRow(timeoutCtx, sql, args...))
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	if err := checkUUID(id); err != nil {
		return err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, "DELETE FROM books WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Reset(ctx context.Context, seed []Fields) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(timeoutCtx, "DELETE FROM books"); err != nil {
			return fmt.Errorf("clear books: %w", err)
		}

		batch := &pgx.Batch{}
		for _, f := range seed {
			batch.Queue("INSERT INTO books (title, author, isbn, year) VALUES ($1, $2, $3, $4)",
				f.Title, f.Author, f.ISBN, f.Year)
		}
		if err := tx.SendBatch(timeoutCtx, batch).Close(); err != nil {
			return fmt.Errorf("insert books: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Ping(timeoutCtx)
}

func postgresFilter(q Query) (string, []any) {
	if q.Q != "" {
		pattern := likePattern(q.Q)
		return "WHERE (title ILIKE $1 OR author ILIKE $2 OR isbn ILIKE $3)", []any{pattern, pattern, pattern}
	}

	clauses := []string{}
	args := []any{}
	argn := 1
	for _, f := range []struct {
		column string
		term   string
	}{
		{"title", q.Title},
		{"author", q.Author},
		{"isbn", q.ISBN},
	} {
		if f.term == "" {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", f.column, argn))
		args = append(args, likePattern(f.term))
		argn++
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Year, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func scanOne(row pgx.Row) (Book, error) {
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

// Only the canonical 36-character form is accepted.
func checkUUID(id string) error {
	if len(id) != 36 {
		return ErrInvalidID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}
