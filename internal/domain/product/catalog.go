package product

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
)

var _ Catalog = (*StaticCatalog)(nil)

// StaticCatalog is an immutable in-memory catalog. Products keep the order
// they were loaded in.
type StaticCatalog struct {
	products []Product
	byID     map[int64]int
}

// NewStaticCatalog builds a catalog from products. Duplicate ids are rejected.
func NewStaticCatalog(products []Product) (*StaticCatalog, error) {
	c := &StaticCatalog{
		products: make([]Product, len(products)),
		byID:     make(map[int64]int, len(products)),
	}
	for i, p := range products {
		if _, ok := c.byID[p.ID]; ok {
			return nil, errors.Errorf("duplicate product id %d", p.ID)
		}
		c.products[i] = p.Clone()
		c.byID[p.ID] = i
	}
	return c, nil
}

// List returns every product in catalog order.
func (c *StaticCatalog) List(_ context.Context) ([]Product, error) {
	out := make([]Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out, nil
}

// GetByID returns the product with the given id or ErrNotFound.
func (c *StaticCatalog) GetByID(_ context.Context, id int64) (*Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := c.products[i].Clone()
	return &p, nil
}

// ListByCategory returns products whose category matches case-insensitively.
// An empty category or CategoryAll returns the whole catalog.
func (c *StaticCatalog) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return c.List(ctx)
	}
	var out []Product
	for _, p := range c.products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// ReadSeed decodes a JSON array of products.
func ReadSeed(r io.Reader) ([]Product, error) {
	var products []Product
	d := jx.Decode(r, 4096)
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := Decode(d)
		if err != nil {
			return errors.Wrapf(err, "product #%d", len(products))
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode seed")
	}
	return products, nil
}

// LoadSeedFile reads a product seed file. Files ending in .gz are
// decompressed transparently.
func LoadSeedFile(path string) ([]Product, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "open seed file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return ReadSeed(r)
}
