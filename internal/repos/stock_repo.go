package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"stockfinder/internal/domain"
)

// ErrUnknownReference is returned when a stock row names a missing product or store.
var ErrUnknownReference = errors.New("unknown product or store")

const upsertStockSQL = `
	INSERT INTO stock(product_id, store_id, quantity)
	VALUES (?, ?, ?)
	ON CONFLICT(product_id, store_id) DO UPDATE SET quantity = excluded.quantity`

type StockRepo struct{ db *sqlx.DB }

func NewStockRepo(db *sqlx.DB) *StockRepo { return &StockRepo{db: db} }

// ForProduct returns every stock row of a product, ordered by store.
func (r *StockRepo) ForProduct(ctx context.Context, productID int64) ([]domain.StockEntry, error) {
	var rows []domain.StockEntry
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT product_id, store_id, quantity
		FROM stock
		WHERE product_id = ?
		ORDER BY store_id`), productID)
	return rows, err
}

// InStock lists stores holding a positive quantity of the product, by store id.
func (r *StockRepo) InStock(ctx context.Context, productID int64) ([]domain.StoreStock, error) {
	var rows []struct {
		domain.Store
		Quantity int64 `db:"quantity"`
	}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT st.id, st.name, st.latitude, st.longitude, st.address, s.quantity
		FROM stock s
		JOIN stores st ON st.id = s.store_id
		WHERE s.product_id = ? AND s.quantity > 0
		ORDER BY st.id`), productID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.StoreStock, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.StoreStock{Store: row.Store, Quantity: row.Quantity})
	}
	return out, nil
}

// Upsert sets the quantity for (product, store), creating the row if needed.
func (r *StockRepo) Upsert(ctx context.Context, e domain.StockEntry) error {
	if e.Quantity < 0 {
		return fmt.Errorf("negative quantity %d for product %d store %d", e.Quantity, e.ProductID, e.StoreID)
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.GetContext(ctx, &n, tx.Rebind(`
		SELECT (SELECT COUNT(*) FROM products WHERE id = ?) + (SELECT COUNT(*) FROM stores WHERE id = ?)`),
		e.ProductID, e.StoreID); err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("%w: product %d store %d", ErrUnknownReference, e.ProductID, e.StoreID)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO stock(product_id, store_id, quantity, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(product_id, store_id) DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`),
		e.ProductID, e.StoreID, e.Quantity, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}
