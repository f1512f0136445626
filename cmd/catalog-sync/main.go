// Command catalog-sync fetches the venue catalog from the upstream provider,
// normalizes it, and writes a gzipped JSON snapshot to disk. The snapshot is
// useful for offline inspection and as a seed fixture for local development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/taproom-menu/internal/domain/catalog"
	"github.com/xenking/taproom-menu/internal/upstream"
)

// snapshot is the on-disk layout of a synced catalog.
type snapshot struct {
	SyncedAt   time.Time          `json:"syncedAt"`
	Categories []catalog.Category `json:"categories"`
	Products   []catalog.Product  `json:"products"`
}

func main() {
	var (
		baseURL      string
		apiKey       string
		organization string
		output       string
		timeout      time.Duration
	)

	flag.StringVar(&baseURL, "upstream-url", "", "catalog provider base URL (or MENU_UPSTREAM_BASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "catalog provider API key (or MENU_UPSTREAM_API_KEY env)")
	flag.StringVar(&organization, "organization", "eighty-one", "venue organization slug")
	flag.StringVar(&output, "output", "catalog.json.gz", "output snapshot path")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout for provider calls")
	flag.Parse()

	if baseURL == "" {
		baseURL = os.Getenv("MENU_UPSTREAM_BASE_URL")
	}
	if apiKey == "" {
		apiKey = os.Getenv("MENU_UPSTREAM_API_KEY")
	}
	if baseURL == "" {
		slog.Error("upstream base URL is required: set --upstream-url or MENU_UPSTREAM_BASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, baseURL, apiKey, organization, output, timeout); err != nil {
		slog.Error("catalog sync failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog sync completed successfully", slog.String("output", output))
}

func run(ctx context.Context, baseURL, apiKey, organization, output string, timeout time.Duration) error {
	client := upstream.NewClient(upstream.Config{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Organization: organization,
		Timeout:      timeout,
	})

	slog.Info("fetching catalog", slog.String("organization", organization))

	svc := catalog.NewService(client)
	if err := svc.Refresh(ctx); err != nil {
		return errors.Wrap(err, "fetch catalog")
	}

	snap := snapshot{
		SyncedAt:   time.Now().UTC(),
		Categories: svc.Categories(),
		Products:   svc.Products(),
	}

	slog.Info("writing snapshot",
		slog.Int("categories", len(snap.Categories)),
		slog.Int("products", len(snap.Products)),
	)

	return writeSnapshot(output, snap)
}

func writeSnapshot(path string, snap snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}

	gz := pgzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		return errors.Wrap(err, "encode snapshot")
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return errors.Wrap(err, "flush gzip")
	}
	return f.Close()
}
