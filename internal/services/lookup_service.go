package services

import (
	"context"
	"errors"
	"time"

	"stockfinder/internal/domain"
	"stockfinder/internal/metrics"
)

var errEmptyDelegateAnswer = errors.New("automation returned no rows")

// Delegate is an external workflow consulted before the direct resolvers.
type Delegate interface {
	SearchProducts(ctx context.Context, q string) ([]domain.SearchResult, error)
	NearestStores(ctx context.Context, lat, lng float64, productID *int64) ([]domain.RankedStore, error)
}

// Answer carries lookup results and which path produced them. DelegateErr is set
// when the delegate was tried and the direct path answered instead.
type Answer[T any] struct {
	Items       []T
	Source      domain.Source
	DelegateErr error
}

// LookupService tries the delegate first, when one is configured, and falls back
// to the direct resolvers on any delegate failure.
type LookupService struct {
	Search   *SearchService
	Rank     *RankingService
	Delegate Delegate
	Metrics  *metrics.Metrics
}

func NewLookupService(search *SearchService, rank *RankingService, delegate Delegate, m *metrics.Metrics) *LookupService {
	return &LookupService{Search: search, Rank: rank, Delegate: delegate, Metrics: m}
}

func (s *LookupService) SearchProducts(ctx context.Context, q string) (Answer[domain.SearchResult], error) {
	var ans Answer[domain.SearchResult]
	if s.Delegate != nil {
		start := time.Now()
		rows, err := s.Delegate.SearchProducts(ctx, q)
		if err == nil && len(rows) == 0 {
			err = errEmptyDelegateAnswer
		}
		if err == nil {
			if len(rows) > MaxCandidates {
				rows = rows[:MaxCandidates]
			}
			s.Metrics.Lookup("search", string(domain.SourceAutomation), "ok", time.Since(start))
			return Answer[domain.SearchResult]{Items: Resolve(rows), Source: domain.SourceAutomation}, nil
		}
		s.Metrics.Lookup("search", string(domain.SourceAutomation), "fallback", time.Since(start))
		ans.DelegateErr = err
	}

	start := time.Now()
	items, err := s.Search.Search(ctx, q)
	if err != nil {
		s.Metrics.Lookup("search", string(domain.SourceDirect), "error", time.Since(start))
		return ans, err
	}
	s.Metrics.Lookup("search", string(domain.SourceDirect), "ok", time.Since(start))
	ans.Items, ans.Source = items, domain.SourceDirect
	return ans, nil
}

func (s *LookupService) NearestStores(ctx context.Context, q RankQuery) (Answer[domain.RankedStore], error) {
	var ans Answer[domain.RankedStore]
	if s.Delegate != nil {
		start := time.Now()
		rows, err := s.Delegate.NearestStores(ctx, q.Lat, q.Lng, q.ProductID)
		if err == nil && len(rows) == 0 {
			err = errEmptyDelegateAnswer
		}
		if err == nil {
			s.Metrics.Lookup("rank", string(domain.SourceAutomation), "ok", time.Since(start))
			return Answer[domain.RankedStore]{Items: RankStores(q, rows), Source: domain.SourceAutomation}, nil
		}
		s.Metrics.Lookup("rank", string(domain.SourceAutomation), "fallback", time.Since(start))
		ans.DelegateErr = err
	}

	start := time.Now()
	items, err := s.Rank.Rank(ctx, q)
	if err != nil {
		s.Metrics.Lookup("rank", string(domain.SourceDirect), "error", time.Since(start))
		return ans, err
	}
	s.Metrics.Lookup("rank", string(domain.SourceDirect), "ok", time.Since(start))
	ans.Items, ans.Source = items, domain.SourceDirect
	return ans, nil
}
