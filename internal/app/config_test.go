package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "memory", cfg: Config{Storage: StorageConfig{Backend: BackendMemory}}},
		{name: "redis", cfg: Config{Storage: StorageConfig{Backend: BackendRedis, RedisAddr: "localhost:6379"}}},
		{name: "redis without addr", cfg: Config{Storage: StorageConfig{Backend: BackendRedis}}, wantErr: "redis address is required"},
		{name: "postgres", cfg: Config{Storage: StorageConfig{Backend: BackendPostgres, DatabaseURL: "postgres://localhost/store"}}},
		{name: "postgres without url", cfg: Config{Storage: StorageConfig{Backend: BackendPostgres}}, wantErr: "database URL is required"},
		{
			name:    "catalog from db without url",
			cfg:     Config{Storage: StorageConfig{Backend: BackendMemory}, Catalog: CatalogConfig{FromDatabase: true}},
			wantErr: "database URL is required",
		},
		{name: "unknown backend", cfg: Config{Storage: StorageConfig{Backend: "etcd"}}, wantErr: `unknown storage backend "etcd"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfig_ApplyPlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/store")
	t.Setenv("PORT", "9090")

	cfg := Config{Addr: defaultAddr}
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://platform/store", cfg.Storage.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)

	cfg = Config{Addr: "127.0.0.1:8000", Storage: StorageConfig{DatabaseURL: "postgres://explicit/store"}}
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://explicit/store", cfg.Storage.DatabaseURL)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr)
}

func TestNewCatalog(t *testing.T) {
	c, err := newCatalog(CatalogConfig{}, nil)
	require.NoError(t, err)
	products, err := c.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, products, 10)

	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":7,"title":"Stumps","price":19.5,"category":"Accessories"}]`), 0o600))

	c, err = newCatalog(CatalogConfig{SeedFile: path}, nil)
	require.NoError(t, err)
	p, err := c.GetByID(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Stumps", p.Title)

	_, err = newCatalog(CatalogConfig{SeedFile: filepath.Join(t.TempDir(), "missing.json")}, nil)
	assert.Error(t, err)
}
