// Command seed wipes the book collection and inserts the example books.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/platform/storage"

	flag "github.com/spf13/pflag"
)

func main() {
	config.LoadEnvFiles()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("seed", flag.ContinueOnError)
	flagSet.SetOutput(errOut)

	uri := flagSet.String("uri", envOr("MONGODB_URI", config.DefaultMongoURI), "storage connection URI")
	timeout := flagSet.Duration("timeout", 10*time.Second, "timeout for the whole seed run")
	yes := flagSet.BoolP("yes", "y", false, "confirm that every existing book will be deleted")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if !*yes {
		fmt.Fprintln(errOut, "error: seeding deletes every book; rerun with --yes")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := storage.Open(ctx, *uri, *timeout)
	if err != nil {
		fmt.Fprintf(errOut, "error: cannot open storage (%s): %v\n", storage.RedactURI(*uri), err)
		return 1
	}
	defer store.Close()

	service := book.NewService(store.Repo)
	if err := service.Seed(ctx); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	books, err := service.List(ctx, book.Query{})
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	fmt.Fprintf(out, "Seed completed: %d books in %s\n", len(books), store.Driver)
	return 0
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
