package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/httpx"
	"bookcatalog/internal/platform/storage"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	store := mustOpenStore(cfg)
	defer store.Close()

	bookHandler := book.NewHTTPHandler(book.NewService(store.Repo))

	var rateLimiter *httpx.RateLimitMiddleware
	if cfg.RateLimitRPS > 0 {
		rateLimiter = httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer rateLimiter.Stop()
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      newHandler(cfg, bookHandler, rateLimiter),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on %s (storage=%s %s)", cfg.Addr(), store.Driver, storage.RedactURI(cfg.MongoURI))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func newRouter(bookHandler *book.HTTPHandler) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("GET /health", bookHandler.Health)
	router.HandleFunc("GET /readyz", bookHandler.Ready)

	router.HandleFunc("GET /books", bookHandler.List)
	router.HandleFunc("POST /books", bookHandler.Create)
	router.HandleFunc("GET /books/{id}", bookHandler.Get)
	router.HandleFunc("PUT /books/{id}", bookHandler.Replace)
	router.HandleFunc("PATCH /books/{id}", bookHandler.Patch)
	router.HandleFunc("DELETE /books/{id}", bookHandler.Delete)

	router.HandleFunc("POST /seed", bookHandler.Seed)

	return router
}

// newHandler wraps the router in the middleware chain. rateLimiter may be nil.
func newHandler(cfg config.Config, bookHandler *book.HTTPHandler, rateLimiter *httpx.RateLimitMiddleware) http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.RecoveryMiddleware,
		httpx.CORSMiddleware(cfg.AllowedOrigins),
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
	}
	if rateLimiter != nil {
		middlewares = append(middlewares, rateLimiter.Middleware)
	}
	middlewares = append(middlewares, httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes))

	return httpx.Chain(newRouter(bookHandler), middlewares...)
}

func mustOpenStore(cfg config.Config) *storage.Store {
	store, err := storage.Open(context.Background(), cfg.MongoURI, cfg.DBTimeout)
	if err != nil {
		log.Fatalf("cannot open storage (%s): %v", storage.RedactURI(cfg.MongoURI), err)
	}
	log.Printf("storage connection OK driver=%s", store.Driver)
	return store
}
