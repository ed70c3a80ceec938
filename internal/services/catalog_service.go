package services

import (
	"context"

	"stockfinder/internal/domain"
	"stockfinder/internal/repos"
)

// MaxCategoryItems caps a category listing.
const MaxCategoryItems = 200

type CatalogSource interface {
	ByCategory(ctx context.Context, category string, limit int) ([]domain.CandidateRow, error)
	Categories(ctx context.Context) ([]string, error)
	CategoryImages(ctx context.Context) ([]repos.ImageRow, error)
	BrandImages(ctx context.Context) ([]repos.ImageRow, error)
}

type CatalogService struct {
	Products CatalogSource
}

func NewCatalogService(products CatalogSource) *CatalogService {
	return &CatalogService{Products: products}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]string, error) {
	cats, err := s.Products.Categories(ctx)
	if err != nil {
		return nil, unavailable(ErrCatalogUnavailable, err)
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}

// CategoriesWithImages lists categories in catalog order; the first non-empty image of a
// category becomes its image.
func (s *CatalogService) CategoriesWithImages(ctx context.Context) ([]domain.CategoryImage, error) {
	rows, err := s.Products.CategoryImages(ctx)
	if err != nil {
		return nil, unavailable(ErrCatalogUnavailable, err)
	}
	out := []domain.CategoryImage{}
	index := map[string]int{}
	for _, r := range rows {
		if r.Label == "" {
			continue
		}
		var img *string
		if r.ImageURL.Valid && r.ImageURL.String != "" {
			v := r.ImageURL.String
			img = &v
		}
		i, ok := index[r.Label]
		if !ok {
			index[r.Label] = len(out)
			out = append(out, domain.CategoryImage{CategoryName: r.Label, ImageURL: img, HasImage: img != nil})
			continue
		}
		if out[i].ImageURL == nil && img != nil {
			out[i].ImageURL = img
			out[i].HasImage = true
		}
	}
	return out, nil
}

// ListProductsByCategory returns the deduplicated products of a category in catalog order.
func (s *CatalogService) ListProductsByCategory(ctx context.Context, category string) ([]domain.SearchResult, error) {
	rows, err := s.Products.ByCategory(ctx, category, MaxCategoryItems)
	if err != nil {
		return nil, unavailable(ErrCatalogUnavailable, err)
	}
	results := make([]domain.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, ToResult(row))
	}
	return Dedup(results), nil
}

// BrandLogos maps each brand to an image. Later rows overwrite earlier ones.
func (s *CatalogService) BrandLogos(ctx context.Context) (map[string]string, error) {
	rows, err := s.Products.BrandImages(ctx)
	if err != nil {
		return nil, unavailable(ErrCatalogUnavailable, err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		if r.Label != "" && r.ImageURL.Valid && r.ImageURL.String != "" {
			out[r.Label] = r.ImageURL.String
		}
	}
	return out, nil
}
