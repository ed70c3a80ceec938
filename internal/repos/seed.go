package repos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"stockfinder/internal/domain"
)

// SeedData is the reference catalog written by Seed.
type SeedData struct {
	Products []domain.Product
	Stores   []domain.Store
	Catalog  []CatalogEntry
}

// CatalogEntry is one row of the secondary brand catalog.
type CatalogEntry struct {
	Ref      string
	Name     string
	Brand    string
	Category string
	ImageURL sql.NullString
	Quantity sql.NullInt64
}

// SeedResult reports the ids assigned by the store.
type SeedResult struct {
	ProductIDs []int64
	StoreIDs   []int64
	StockRows  int
}

func DemoData() SeedData {
	logo := sql.NullString{String: "/media/brands/bim.png", Valid: true}
	return SeedData{
		Products: []domain.Product{
			{Name: "Çelik Tencere 24cm", Brand: "BİM", Category: "Mutfak", ImageURL: logo},
			{Name: "Döküm Tava 28cm", Brand: "BİM", Category: "Mutfak", ImageURL: logo},
			{Name: "Cam Saklama Kabı", Brand: "BİM", Category: "Mutfak"},
			{Name: "Tencere Seti 6 Parça", Brand: "BİM", Category: "Mutfak", ImageURL: logo},
		},
		Stores: []domain.Store{
			{Name: "BİM Beşiktaş", Latitude: 41.0430, Longitude: 29.0054, Address: "Beşiktaş, İstanbul"},
			{Name: "BİM Kadıköy", Latitude: 40.9917, Longitude: 29.0270, Address: "Kadıköy, İstanbul"},
			{Name: "BİM Şişli", Latitude: 41.0600, Longitude: 28.9872, Address: "Şişli, İstanbul"},
		},
		Catalog: []CatalogEntry{
			{Ref: "brands-0001", Name: "çelik tencere 24cm", Brand: "bim", Category: "Mutfak", Quantity: sql.NullInt64{Int64: 2, Valid: true}},
			{Ref: "brands-0002", Name: "Kırmızı Mercimek 1kg", Brand: "Dost", Category: "Bakliyat",
				ImageURL: sql.NullString{String: "/media/brands/dost.png", Valid: true}},
		},
	}
}

// Seed writes data in one transaction. With reset it first clears every catalog table.
// qty decides the stock of (product index, store index); rows are written for every pair.
func Seed(ctx context.Context, db *sqlx.DB, data SeedData, reset bool, qty func(p, s int) int64) (SeedResult, error) {
	var res SeedResult
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	if reset {
		for _, table := range []string{"stock", "brand_catalog", "products", "stores"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return res, err
			}
		}
	}

	for _, p := range data.Products {
		id, err := insertProduct(ctx, tx, p)
		if err != nil {
			return res, err
		}
		res.ProductIDs = append(res.ProductIDs, id)
	}
	for _, s := range data.Stores {
		var id int64
		if err := tx.GetContext(ctx, &id, tx.Rebind(`
			INSERT INTO stores(name, latitude, longitude, address)
			VALUES (?, ?, ?, ?)
			RETURNING id`), s.Name, s.Latitude, s.Longitude, s.Address); err != nil {
			return res, err
		}
		res.StoreIDs = append(res.StoreIDs, id)
	}
	for _, c := range data.Catalog {
		if err := insertCatalogEntry(ctx, tx, c); err != nil {
			return res, err
		}
	}
	if qty != nil {
		for pi, pid := range res.ProductIDs {
			for si, sid := range res.StoreIDs {
				if _, err := tx.ExecContext(ctx, tx.Rebind(upsertStockSQL), pid, sid, qty(pi, si)); err != nil {
					return res, err
				}
				res.StockRows++
			}
		}
	}
	return res, tx.Commit()
}

func insertProduct(ctx context.Context, tx *sqlx.Tx, p domain.Product) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, tx.Rebind(`
		INSERT INTO products(name, brand, category, image_url, name_key, brand_key, category_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		p.Name, p.Brand, p.Category, p.ImageURL,
		domain.Fold(p.Name), domain.Fold(p.Brand), domain.Fold(p.Category))
	return id, err
}

func insertCatalogEntry(ctx context.Context, tx *sqlx.Tx, c CatalogEntry) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO brand_catalog(ref, product_name, brand_name, category, image_url, quantity, name_key, brand_key, category_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
		  product_name = excluded.product_name, brand_name = excluded.brand_name,
		  category = excluded.category, image_url = excluded.image_url, quantity = excluded.quantity,
		  name_key = excluded.name_key, brand_key = excluded.brand_key, category_key = excluded.category_key`),
		c.Ref, c.Name, c.Brand, c.Category, c.ImageURL, c.Quantity,
		domain.Fold(c.Name), domain.Fold(c.Brand), domain.Fold(c.Category))
	return err
}
