package services

import (
	"cmp"
	"context"
	"slices"

	"stockfinder/internal/domain"
	"stockfinder/internal/geo"
)

// MaxRankedStores caps the nearest-store answer.
const MaxRankedStores = 10

type StoreSource interface {
	All(ctx context.Context) ([]domain.Store, error)
}

type StockSource interface {
	ForProduct(ctx context.Context, productID int64) ([]domain.StockEntry, error)
}

// RankQuery is a validated nearest-store request.
type RankQuery struct {
	Lat, Lng    float64
	ProductID   *int64
	InStockOnly bool // only honored with ProductID
}

type RankingService struct {
	Stores StoreSource
	Stock  StockSource
}

func NewRankingService(stores StoreSource, stock StockSource) *RankingService {
	return &RankingService{Stores: stores, Stock: stock}
}

// Rank returns the nearest stores to the query point, at most MaxRankedStores.
func (s *RankingService) Rank(ctx context.Context, q RankQuery) ([]domain.RankedStore, error) {
	stores, err := s.Stores.All(ctx)
	if err != nil {
		return nil, unavailable(ErrRankingUnavailable, err)
	}

	var qty map[int64]int64
	if q.ProductID != nil {
		rows, err := s.Stock.ForProduct(ctx, *q.ProductID)
		if err != nil {
			return nil, unavailable(ErrRankingUnavailable, err)
		}
		qty = make(map[int64]int64, len(rows))
		for _, r := range rows {
			qty[r.StoreID] = r.Quantity
		}
	}

	ranked := make([]domain.RankedStore, 0, len(stores))
	for _, st := range stores {
		rs := domain.RankedStore{
			ID:        st.ID,
			Name:      st.Name,
			Address:   st.Address,
			Latitude:  st.Latitude,
			Longitude: st.Longitude,
		}
		if qty != nil {
			n := qty[st.ID] // missing row: 0
			rs.Quantity = &n
		}
		ranked = append(ranked, rs)
	}
	return RankStores(q, ranked), nil
}

// RankStores computes distances from the query point, applies the stock filter and
// returns the nearest MaxRankedStores, ties broken by store id. Quantities are only
// reported when the query names a product.
func RankStores(q RankQuery, stores []domain.RankedStore) []domain.RankedStore {
	out := make([]domain.RankedStore, 0, len(stores))
	for _, st := range stores {
		switch {
		case q.ProductID == nil:
			st.Quantity = nil
		case st.Quantity == nil:
			zero := int64(0)
			st.Quantity = &zero
		}
		if q.ProductID != nil && q.InStockOnly && *st.Quantity <= 0 {
			continue
		}
		st.DistanceKm = geo.DistanceKm(q.Lat, q.Lng, st.Latitude, st.Longitude)
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b domain.RankedStore) int {
		if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(out) > MaxRankedStores {
		out = out[:MaxRankedStores]
	}
	return out
}
