package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

var _ product.Catalog = (*ProductRepository)(nil)

const productColumns = `id, title, price, description, category, image, rating_rate, rating_count`

// ProductRepository implements product.Catalog backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return collectProducts(rows)
}

// ListByCategory returns the products of one category ordered by ID.
// An empty category or product.CategoryAll lists everything.
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]product.Product, error) {
	if category == "" || strings.EqualFold(category, product.CategoryAll) {
		return r.List(ctx)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE LOWER(category) = LOWER($1) ORDER BY id`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products in %q: %w", category, err)
	}
	return collectProducts(rows)
}

// GetByID returns a single product by its identifier or product.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// Upsert inserts or replaces products in a single batch.
func (r *ProductRepository) Upsert(ctx context.Context, products []product.Product) error {
	batch := &pgx.Batch{}
	for _, p := range products {
		var (
			rate  decimal.NullDecimal
			count *int64
		)
		if p.Rating != nil {
			rate = decimal.NewNullDecimal(p.Rating.Rate)
			c := int64(p.Rating.Count)
			count = &c
		}
		batch.Queue(`
			INSERT INTO products (`+productColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				price = EXCLUDED.price,
				description = EXCLUDED.description,
				category = EXCLUDED.category,
				image = EXCLUDED.image,
				rating_rate = EXCLUDED.rating_rate,
				rating_count = EXCLUDED.rating_count`,
			p.ID, p.Title, p.Price, p.Description, p.Category, p.Image, rate, count,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting %d products: %w", len(products), err)
	}
	return nil
}

func collectProducts(rows pgx.Rows) ([]product.Product, error) {
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("scanning products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		rate  decimal.NullDecimal
		count *int64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Price, &p.Description, &p.Category, &p.Image, &rate, &count); err != nil {
		return product.Product{}, err
	}
	if rate.Valid && count != nil {
		p.Rating = &product.Rating{Rate: rate.Decimal, Count: int(*count)}
	}
	return p, nil
}
