package repos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"stockfinder/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID       int64          `db:"id"`
	Name     string         `db:"name"`
	Brand    string         `db:"brand"`
	Category string         `db:"category"`
	ImageURL sql.NullString `db:"image_url"`
}

type catalogRow struct {
	Ref      string         `db:"ref"`
	Name     string         `db:"product_name"`
	Brand    string         `db:"brand_name"`
	Category string         `db:"category"`
	ImageURL sql.NullString `db:"image_url"`
	Quantity sql.NullInt64  `db:"quantity"`
}

func (p productRow) candidate(qty []int64) domain.CandidateRow {
	return domain.CandidateRow{
		ID:         sql.NullInt64{Int64: p.ID, Valid: true},
		Name:       p.Name,
		Brand:      p.Brand,
		Category:   p.Category,
		ImageURL:   p.ImageURL,
		Quantities: qty,
	}
}

func (c catalogRow) candidate() domain.CandidateRow {
	row := domain.CandidateRow{
		Name:     c.Name,
		Brand:    c.Brand,
		Category: c.Category,
		ImageURL: c.ImageURL,
	}
	if c.Quantity.Valid {
		row.Quantities = []int64{c.Quantity.Int64}
	}
	return row
}

// escapeLike strips LIKE wildcards from user input.
func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}

// Search returns up to limit candidate rows whose name, brand or category contains q
// (case-insensitive). Products come first, best-stocked first, then secondary catalog rows.
func (r *ProductRepo) Search(ctx context.Context, q string, limit int) ([]domain.CandidateRow, error) {
	needle := escapeLike(domain.Fold(q))
	if needle == "" || limit <= 0 {
		return []domain.CandidateRow{}, nil
	}
	pattern := "%" + needle + "%"
	where := `name_key LIKE ? OR brand_key LIKE ? OR category_key LIKE ?`
	return r.candidates(ctx, where, []any{pattern, pattern, pattern}, stockOrder, limit)
}

// ByCategory returns candidate rows of one category (exact, case-insensitive).
func (r *ProductRepo) ByCategory(ctx context.Context, category string, limit int) ([]domain.CandidateRow, error) {
	key := domain.Fold(category)
	return r.candidates(ctx, `category_key = ?`, []any{key}, catalogOrder, limit)
}

// candidateOrder holds the ORDER BY clauses for products and secondary catalog rows.
type candidateOrder struct{ products, catalog string }

var (
	// best-stocked first, so the limit keeps the most useful matches
	stockOrder = candidateOrder{
		products: `(SELECT SUM(s.quantity) FROM stock s WHERE s.product_id = products.id) DESC NULLS LAST, id`,
		catalog:  `quantity DESC NULLS LAST, ref`,
	}
	catalogOrder = candidateOrder{products: `id`, catalog: `ref`}
)

// candidates returns product rows first, then secondary catalog rows, limit in total.
func (r *ProductRepo) candidates(ctx context.Context, where string, args []any, order candidateOrder, limit int) ([]domain.CandidateRow, error) {
	var prods []productRow
	err := r.db.SelectContext(ctx, &prods, r.db.Rebind(`
		SELECT id, name, brand, category, image_url
		FROM products
		WHERE `+where+`
		ORDER BY `+order.products+`
		LIMIT ?`), append(args, limit)...)
	if err != nil {
		return nil, err
	}

	qty, err := r.quantitiesFor(ctx, prods)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CandidateRow, 0, len(prods))
	for _, p := range prods {
		out = append(out, p.candidate(qty[p.ID]))
	}

	remaining := limit - len(out)
	if remaining <= 0 {
		return out, nil
	}
	var cat []catalogRow
	err = r.db.SelectContext(ctx, &cat, r.db.Rebind(`
		SELECT ref, product_name, brand_name, category, image_url, quantity
		FROM brand_catalog
		WHERE `+where+`
		ORDER BY `+order.catalog+`
		LIMIT ?`), append(args, remaining)...)
	if err != nil {
		return nil, err
	}
	for _, c := range cat {
		out = append(out, c.candidate())
	}
	return out, nil
}

func (r *ProductRepo) quantitiesFor(ctx context.Context, prods []productRow) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(prods))
	if len(prods) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(prods))
	for _, p := range prods {
		ids = append(ids, p.ID)
	}
	query, args, err := sqlx.In(`SELECT product_id, store_id, quantity FROM stock WHERE product_id IN (?) ORDER BY product_id, store_id`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.StockEntry
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.ProductID] = append(out[s.ProductID], s.Quantity)
	}
	return out, nil
}

// Categories lists distinct non-empty categories of both catalogs.
func (r *ProductRepo) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.SelectContext(ctx, &out, `
		SELECT DISTINCT category FROM (
		  SELECT category FROM products
		  UNION
		  SELECT category FROM brand_catalog
		) AS c
		WHERE category <> ''
		ORDER BY category`)
	return out, err
}

// ImageRow pairs a category or brand with an image reference.
type ImageRow struct {
	Label    string         `db:"label"`
	ImageURL sql.NullString `db:"image_url"`
}

// CategoryImages returns (category, image) rows in catalog order.
func (r *ProductRepo) CategoryImages(ctx context.Context) ([]ImageRow, error) {
	var out []ImageRow
	err := r.db.SelectContext(ctx, &out, `
		SELECT label, image_url FROM (
		  SELECT category AS label, image_url, 0 AS src, id AS ord, '' AS ref FROM products
		  UNION ALL
		  SELECT category AS label, image_url, 1 AS src, 0 AS ord, ref FROM brand_catalog
		) AS c
		WHERE label <> ''
		ORDER BY src, ord, ref`)
	return out, err
}

// BrandImages returns (brand, image) rows that carry an image, ordered by brand.
func (r *ProductRepo) BrandImages(ctx context.Context) ([]ImageRow, error) {
	var out []ImageRow
	err := r.db.SelectContext(ctx, &out, `
		SELECT label, image_url FROM (
		  SELECT brand AS label, image_url FROM products
		  UNION ALL
		  SELECT brand_name AS label, image_url FROM brand_catalog
		) AS b
		WHERE image_url IS NOT NULL AND image_url <> '' AND label <> ''
		ORDER BY label`)
	return out, err
}
