package domain

import "database/sql"

type Product struct {
	ID       int64          `db:"id" json:"id"`
	Name     string         `db:"name" json:"name"`
	Brand    string         `db:"brand" json:"brand"`
	Category string         `db:"category" json:"category"`
	ImageURL sql.NullString `db:"image_url" json:"-"`
}

type Store struct {
	ID        int64   `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`
	Address   string  `db:"address" json:"address"`
}

type StockEntry struct {
	ProductID int64 `db:"product_id" json:"productId"`
	StoreID   int64 `db:"store_id" json:"storeId"`
	Quantity  int64 `db:"quantity" json:"quantity"`
}

// CandidateRow is one raw search row as returned by a product source. Rows from the
// secondary catalog have no numeric id. Quantities holds every stock row found for it.
type CandidateRow struct {
	ID         sql.NullInt64
	Name       string
	Brand      string
	Category   string
	ImageURL   sql.NullString
	Quantities []int64
}

type SearchResult struct {
	ID            *int64  `json:"id"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	Category      string  `json:"category"`
	TotalQuantity *int64  `json:"totalQuantity"`
	BrandLogo     *string `json:"brandLogo"`
}

type RankedStore struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distanceKm"`
	Quantity   *int64  `json:"quantity,omitempty"`
}

// StoreStock is a store holding a positive quantity of one product.
type StoreStock struct {
	Store    Store `json:"store"`
	Quantity int64 `json:"quantity"`
}

type CategoryImage struct {
	CategoryName string  `json:"category_name"`
	ImageURL     *string `json:"image_url"`
	HasImage     bool    `json:"has_image"`
}

// Source tags which path produced a lookup result.
type Source string

const (
	SourceDirect     Source = "direct"
	SourceAutomation Source = "automation"
)
