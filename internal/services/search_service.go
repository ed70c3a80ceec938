package services

import (
	"context"
	"strings"

	"stockfinder/internal/domain"
)

// MaxCandidates caps the rows fetched per search before deduplication.
const MaxCandidates = 50

type CandidateSource interface {
	Search(ctx context.Context, q string, limit int) ([]domain.CandidateRow, error)
}

type SearchService struct {
	Products CandidateSource
}

func NewSearchService(products CandidateSource) *SearchService {
	return &SearchService{Products: products}
}

// Search resolves a non-empty query to deduplicated results ordered by stock.
func (s *SearchService) Search(ctx context.Context, q string) ([]domain.SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.SearchResult{}, nil
	}
	rows, err := s.Products.Search(ctx, q, MaxCandidates)
	if err != nil {
		return nil, unavailable(ErrSearchUnavailable, err)
	}
	if len(rows) > MaxCandidates {
		rows = rows[:MaxCandidates]
	}
	results := make([]domain.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, ToResult(row))
	}
	return Resolve(results), nil
}

// Resolve runs dedup and quantity ordering over already-mapped results.
func Resolve(results []domain.SearchResult) []domain.SearchResult {
	out := Dedup(results)
	SortByQuantity(out)
	return out
}
