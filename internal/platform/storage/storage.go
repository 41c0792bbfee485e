// Package storage opens the book repository named by a connection URI.
//
// The URI scheme picks the backend:
//
//	mongodb://, mongodb+srv://   MongoDB (database taken from the URI path, default "bookdb")
//	postgres://, postgresql://   PostgreSQL
//	memory://                    in-process store, lost on exit
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookcatalog/internal/book"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"
)

const (
	DriverMongo    = "mongodb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	defaultDatabase = "bookdb"
	connectTimeout  = 5 * time.Second
)

// Store is an open repository together with the resources backing it.
type Store struct {
	Repo   book.Repository
	Driver string
	close  func()
}

// Close releases the connection pool or client.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Driver returns the backend name for uri.
func Driver(uri string) (string, error) {
	scheme, _, ok := strings.Cut(uri, "://")
	if !ok {
		return "", fmt.Errorf("storage uri %q has no scheme", RedactURI(uri))
	}
	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "memory":
		return DriverMemory, nil
	default:
		return "", fmt.Errorf("unsupported storage scheme %q", scheme)
	}
}

// Open connects to the backend named by uri and verifies it is reachable.
// timeout bounds each repository call.
func Open(ctx context.Context, uri string, timeout time.Duration) (*Store, error) {
	driver, err := Driver(uri)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverMongo:
		return openMongo(ctx, uri, timeout)
	case DriverPostgres:
		return openPostgres(ctx, uri, timeout)
	default:
		return &Store{Repo: book.NewMemoryRepo(), Driver: DriverMemory}, nil
	}
}

func openMongo(ctx context.Context, uri string, timeout time.Duration) (*Store, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("parse mongodb uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = defaultDatabase
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("create mongodb client: %w", err)
	}
	disconnect := func() {
		dctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		_ = client.Disconnect(dctx)
	}

	repo := book.NewMongoRepo(client.Database(dbName), timeout)
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := repo.Ping(pingCtx); err != nil {
		disconnect()
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		disconnect()
		return nil, err
	}
	return &Store{Repo: repo, Driver: DriverMongo, close: disconnect}, nil
}

func openPostgres(ctx context.Context, uri string, timeout time.Duration) (*Store, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := book.NewPostgresRepo(pool, timeout)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{Repo: repo, Driver: DriverPostgres, close: pool.Close}, nil
}

// RedactURI hides the userinfo part of a connection URI.
func RedactURI(uri string) string {
	const marker = "://"
	start := strings.Index(uri, marker)
	if start < 0 {
		return uri
	}
	start += len(marker)
	authority := uri[start:]
	if slash := strings.Index(authority, "/"); slash >= 0 {
		authority = authority[:slash]
	}
	end := strings.LastIndex(authority, "@")
	if end < 0 {
		return uri
	}
	return uri[:start] + "***" + uri[start+end:]
}
