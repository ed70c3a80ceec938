package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	applog "stockfinder/internal/log"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenDB opens the embedded SQLite store. Used by the server default and by tests with ":memory:".
func OpenDB(dsn string) (*sqlx.DB, error) {
	return Open(DriverSQLite, dsn)
}

// Open connects, ensures the schema and seeds demo data when the catalog is empty.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := seedIfEmpty(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Connect opens the store and ensures the schema without writing any rows.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = sqliteSchema
	case DriverPostgres:
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one connection: ":memory:" is per connection and PRAGMAs are too
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

const sqliteSchema = `
PRAGMA foreign_keys = ON;
PRAGMA journal_mode = WAL;

CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  brand TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  image_url TEXT,
  name_key TEXT NOT NULL DEFAULT '',
  brand_key TEXT NOT NULL DEFAULT '',
  category_key TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_category_key ON products(category_key);

CREATE TABLE IF NOT EXISTS stores(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  latitude REAL NOT NULL,
  longitude REAL NOT NULL,
  address TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS stock(
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  store_id INTEGER NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  updated_at TEXT,
  PRIMARY KEY(product_id, store_id)
);
CREATE INDEX IF NOT EXISTS idx_stock_store ON stock(store_id);

-- Secondary free-text catalog (imported brand sheet), no numeric product id
CREATE TABLE IF NOT EXISTS brand_catalog(
  ref TEXT PRIMARY KEY,
  product_name TEXT NOT NULL,
  brand_name TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  image_url TEXT,
  quantity INTEGER CHECK (quantity IS NULL OR quantity >= 0),
  name_key TEXT NOT NULL DEFAULT '',
  brand_key TEXT NOT NULL DEFAULT '',
  category_key TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_brand_catalog_category_key ON brand_catalog(category_key);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS products(
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  brand TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  image_url TEXT,
  name_key TEXT NOT NULL DEFAULT '',
  brand_key TEXT NOT NULL DEFAULT '',
  category_key TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_category_key ON products(category_key);

CREATE TABLE IF NOT EXISTS stores(
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  latitude DOUBLE PRECISION NOT NULL,
  longitude DOUBLE PRECISION NOT NULL,
  address TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS stock(
  product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  store_id BIGINT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
  quantity BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  updated_at TEXT,
  PRIMARY KEY(product_id, store_id)
);
CREATE INDEX IF NOT EXISTS idx_stock_store ON stock(store_id);

CREATE TABLE IF NOT EXISTS brand_catalog(
  ref TEXT PRIMARY KEY,
  product_name TEXT NOT NULL,
  brand_name TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  image_url TEXT,
  quantity BIGINT CHECK (quantity IS NULL OR quantity >= 0),
  name_key TEXT NOT NULL DEFAULT '',
  brand_key TEXT NOT NULL DEFAULT '',
  category_key TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_brand_catalog_category_key ON brand_catalog(category_key);
`

// ProductCount reports how many catalog products exist.
func ProductCount(ctx context.Context, db *sqlx.DB) (int, error) {
	var n int
	err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`)
	return n, err
}

func seedIfEmpty(ctx context.Context, db *sqlx.DB) error {
	n, err := ProductCount(ctx, db)
	if err != nil || n > 0 {
		return err
	}
	res, err := Seed(ctx, db, DemoData(), false, func(p, s int) int64 { return demoQty[(p*3+s)%len(demoQty)] })
	if err != nil {
		return err
	}
	applog.Info(nil, "seed.demo", map[string]any{"products": len(res.ProductIDs), "stores": len(res.StoreIDs), "stock_rows": res.StockRows})
	return nil
}

var demoQty = []int64{12, 4, 0, 7, 15, 3, 9, 0, 6, 18, 2, 11}
