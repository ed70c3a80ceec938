package services_test

import (
	"context"
	"errors"
	"testing"

	"stockfinder/internal/domain"
	"stockfinder/internal/metrics"
	"stockfinder/internal/repos"
	"stockfinder/internal/services"
)

type fakeDelegate struct {
	products []domain.SearchResult
	stores   []domain.RankedStore
	err      error
	calls    int
}

func (f *fakeDelegate) SearchProducts(context.Context, string) ([]domain.SearchResult, error) {
	f.calls++
	return f.products, f.err
}

func (f *fakeDelegate) NearestStores(context.Context, float64, float64, *int64) ([]domain.RankedStore, error) {
	f.calls++
	return f.stores, f.err
}

func lookup(t *testing.T, d services.Delegate) *services.LookupService {
	t.Helper()
	db := memdb(t)
	search := services.NewSearchService(repos.NewProductRepo(db))
	rank := services.NewRankingService(repos.NewStoreRepo(db), repos.NewStockRepo(db))
	return services.NewLookupService(search, rank, d, metrics.New())
}

func TestLookupWithoutDelegateIsDirect(t *testing.T) {
	ans, err := lookup(t, nil).SearchProducts(context.Background(), "tencere")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Source != domain.SourceDirect || ans.DelegateErr != nil || len(ans.Items) != 2 {
		t.Fatalf("unexpected answer %+v", ans)
	}
}

func TestLookupUsesDelegateAnswer(t *testing.T) {
	one, two := int64(1), int64(2)
	d := &fakeDelegate{products: []domain.SearchResult{
		{ID: &one, Name: "Zeytin", Brand: "BİM", TotalQuantity: &one},
		{Name: "zeytin", Brand: "bim", TotalQuantity: &two},
	}}
	ans, err := lookup(t, d).SearchProducts(context.Background(), "zeytin")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Source != domain.SourceAutomation || len(ans.Items) != 1 || *ans.Items[0].TotalQuantity != 3 {
		t.Fatalf("delegate rows should pass through dedup: %+v", ans)
	}
}

func TestLookupFallsBackOnDelegateFailure(t *testing.T) {
	boom := errors.New("timeout")
	for name, d := range map[string]*fakeDelegate{
		"error": {err: boom},
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			svc := lookup(t, d)
			ans, err := svc.SearchProducts(context.Background(), "tencere")
			if err != nil {
				t.Fatal(err)
			}
			if ans.Source != domain.SourceDirect || ans.DelegateErr == nil || len(ans.Items) != 2 {
				t.Fatalf("unexpected search answer %+v", ans)
			}
			rank, err := svc.NearestStores(context.Background(), services.RankQuery{Lat: 41.0082, Lng: 28.9784})
			if err != nil {
				t.Fatal(err)
			}
			if rank.Source != domain.SourceDirect || rank.DelegateErr == nil || len(rank.Items) != 3 {
				t.Fatalf("unexpected rank answer %+v", rank)
			}
			if d.calls != 2 {
				t.Fatalf("delegate should be tried once per lookup, got %d", d.calls)
			}
		})
	}
}

func TestLookupRerankDelegateStores(t *testing.T) {
	d := &fakeDelegate{stores: []domain.RankedStore{
		// claimed distances are ignored
		{ID: 2, Latitude: 40.9917, Longitude: 29.0270, DistanceKm: 0.1},
		{ID: 1, Latitude: 41.0430, Longitude: 29.0054, DistanceKm: 99},
	}}
	pid := int64(4)
	ans, err := lookup(t, d).NearestStores(context.Background(), services.RankQuery{Lat: 41.0082, Lng: 28.9784, ProductID: &pid})
	if err != nil {
		t.Fatal(err)
	}
	if ans.Source != domain.SourceAutomation || ans.Items[0].ID != 1 {
		t.Fatalf("delegate stores should be re-ranked by haversine: %+v", ans.Items)
	}
	if d := ans.Items[0].DistanceKm; d < 3.8 || d > 4.8 {
		t.Fatalf("recomputed distance %v", d)
	}
	for _, s := range ans.Items {
		if s.Quantity == nil || *s.Quantity != 0 {
			t.Fatalf("missing quantity should read 0: %+v", s)
		}
	}
}
