package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage/postgres"
)

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Usage = func() {
		_, _ = os.Stderr.WriteString("usage: seed-db [--database-url URL] [products.json[.gz] ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, flag.Args()); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string, files []string) error {
	products, err := readProducts(ctx, lg, files)
	if err != nil {
		return errors.Wrap(err, "read products")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	lg.Info("Upserting products", zap.Int("count", len(products)))
	if err := postgres.NewProductRepository(pool).Upsert(ctx, products); err != nil {
		return errors.Wrap(err, "upsert products")
	}
	return nil
}

// readProducts parses the seed files concurrently, or the built-in catalog
// when no files are given. Product ids must be unique across all files.
func readProducts(ctx context.Context, lg *zap.Logger, files []string) ([]product.Product, error) {
	if len(files) == 0 {
		lg.Info("Using built-in product catalog")
		return product.ReadSeed(bytes.NewReader(db.Products))
	}

	parsed := make([][]product.Product, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			products, err := product.LoadSeedFile(path)
			if err != nil {
				return errors.Wrapf(err, "load %s", path)
			}
			lg.Info("Read products file", zap.String("path", path), zap.Int("count", len(products)))
			parsed[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []product.Product
	for _, products := range parsed {
		all = append(all, products...)
	}
	if _, err := product.NewStaticCatalog(all); err != nil {
		return nil, err
	}
	return all, nil
}
