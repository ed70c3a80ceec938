package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"stockfinder/internal/domain"
)

type StoreRepo struct{ db *sqlx.DB }

func NewStoreRepo(db *sqlx.DB) *StoreRepo { return &StoreRepo{db: db} }

// All returns every store ordered by id.
func (r *StoreRepo) All(ctx context.Context) ([]domain.Store, error) {
	var out []domain.Store
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, name, latitude, longitude, address
		FROM stores
		ORDER BY id`)
	return out, err
}
