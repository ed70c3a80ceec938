package services

import (
	"slices"

	"stockfinder/internal/domain"
)

type compositeKey struct{ name, brand string }

func keyOf(r domain.SearchResult) compositeKey {
	return compositeKey{name: domain.Fold(r.Name), brand: domain.Fold(r.Brand)}
}

// ToResult maps one raw row to a result, summing its nested stock quantities.
// A row without stock rows keeps a nil total.
func ToResult(row domain.CandidateRow) domain.SearchResult {
	res := domain.SearchResult{
		Name:     row.Name,
		Brand:    row.Brand,
		Category: row.Category,
	}
	if row.ID.Valid {
		id := row.ID.Int64
		res.ID = &id
	}
	if row.ImageURL.Valid && row.ImageURL.String != "" {
		logo := row.ImageURL.String
		res.BrandLogo = &logo
	}
	if len(row.Quantities) > 0 {
		var total int64
		for _, q := range row.Quantities {
			total += q
		}
		res.TotalQuantity = &total
	}
	return res
}

// addQuantity folds b into a. nil+nil stays nil.
func addQuantity(a, b *int64) *int64 {
	switch {
	case b == nil:
		return a
	case a == nil:
		v := *b
		return &v
	default:
		v := *a + *b
		return &v
	}
}

func usableID(id *int64) bool { return id != nil }

// Dedup merges results describing the same product. Two results belong together when
// they share a numeric id or a normalized (name, brand) key, transitively, so the groups
// and their totals do not depend on input order. Each group is emitted at the position of
// its first member, which also supplies the descriptive fields.
func Dedup(in []domain.SearchResult) []domain.SearchResult {
	parent := make([]int, len(in))
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		switch {
		case ra < rb:
			parent[rb] = ra
		case rb < ra:
			parent[ra] = rb
		}
	}

	byID := make(map[int64]int, len(in))
	byKey := make(map[compositeKey]int, len(in))
	for i, r := range in {
		parent[i] = i
		if usableID(r.ID) {
			if j, ok := byID[*r.ID]; ok {
				union(i, j)
			} else {
				byID[*r.ID] = i
			}
		}
		key := keyOf(r)
		if j, ok := byKey[key]; ok {
			union(i, j)
		} else {
			byKey[key] = i
		}
	}

	// roots are the smallest index of their group, so a root is always seen first
	out := make([]domain.SearchResult, 0, len(in))
	pos := make(map[int]int, len(in))
	for i, r := range in {
		root := find(i)
		if root == i {
			r.TotalQuantity = addQuantity(nil, r.TotalQuantity)
			pos[i] = len(out)
			out = append(out, r)
			continue
		}
		idx := pos[root]
		out[idx].TotalQuantity = addQuantity(out[idx].TotalQuantity, r.TotalQuantity)
		if out[idx].BrandLogo == nil && r.BrandLogo != nil {
			out[idx].BrandLogo = r.BrandLogo
		}
	}
	return out
}

// SortByQuantity orders by total quantity descending, unknown totals last.
// Equal totals keep their input order.
func SortByQuantity(rs []domain.SearchResult) {
	slices.SortStableFunc(rs, func(a, b domain.SearchResult) int {
		switch {
		case a.TotalQuantity == nil && b.TotalQuantity == nil:
			return 0
		case a.TotalQuantity == nil:
			return 1
		case b.TotalQuantity == nil:
			return -1
		case *a.TotalQuantity > *b.TotalQuantity:
			return -1
		case *a.TotalQuantity < *b.TotalQuantity:
			return 1
		}
		return 0
	})
}
