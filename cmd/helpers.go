package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/catalog"
	"github.com/sells-group/estimate-cli/internal/fetcher"
	"github.com/sells-group/estimate-cli/internal/match"
	"github.com/sells-group/estimate-cli/internal/resolver"
	"github.com/sells-group/estimate-cli/internal/store"
)

// openStore creates the configured store backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// loadCatalog builds the in-memory catalog: the stored revision when one
// exists, otherwise the file configured at catalog.path. An empty catalog is
// fine; rate hints are simply skipped.
func loadCatalog(ctx context.Context, st store.Store) (*catalog.Catalog, error) {
	cat := catalog.New()

	items, err := st.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 && cfg.Catalog.Path != "" {
		items, err = catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
	}
	if len(items) > 0 {
		if err := cat.Reload(items); err != nil {
			return nil, err
		}
	}

	zap.L().Debug("catalog ready", zap.Int("items", cat.Len()))
	return cat, nil
}

func newResolver(cat *catalog.Catalog) *resolver.Resolver {
	return resolver.New(cat,
		match.NewMatcher(cfg.Catalog.SimilarityThreshold),
		resolver.Options{
			HeaderScanRows: cfg.Import.HeaderScanRows,
			Surcharges:     cfg.SurchargeList(),
		},
	)
}

func newDownloader() *fetcher.Downloader {
	return fetcher.NewDownloader(fetcher.DownloadOptions{
		Timeout:   time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		UserAgent: cfg.Fetch.UserAgent,
		RateLimit: cfg.Fetch.RatePerSecond,
	})
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
