package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"stockfinder/internal/domain"
)

type productRow struct {
	ID            json.RawMessage `json:"id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	Category      string          `json:"category"`
	TotalQuantity json.RawMessage `json:"totalQuantity"`
	BrandLogo     *string         `json:"brandLogo"`
}

type storeRow struct {
	ID        json.RawMessage `json:"id"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Quantity  json.RawMessage `json:"quantity"`
}

// SearchProducts asks the workflow for products matching q.
func (c *Client) SearchProducts(ctx context.Context, q string) ([]domain.SearchResult, error) {
	raw, err := c.call(ctx, ActionSearchProduct, map[string]string{"q": q})
	if err != nil {
		return nil, err
	}
	var rows []productRow
	if err := decodeList(raw, &rows, "items", "results", "products", "data"); err != nil {
		return nil, err
	}
	out := make([]domain.SearchResult, 0, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		res := domain.SearchResult{
			ID:            integral(r.ID),
			Name:          r.Name,
			Brand:         r.Brand,
			Category:      r.Category,
			TotalQuantity: integral(r.TotalQuantity),
		}
		if r.BrandLogo != nil && *r.BrandLogo != "" {
			res.BrandLogo = r.BrandLogo
		}
		out = append(out, res)
	}
	return out, nil
}

// NearestStores asks the workflow for stores near the point. Distances are not
// trusted from the workflow; callers recompute them.
func (c *Client) NearestStores(ctx context.Context, lat, lng float64, productID *int64) ([]domain.RankedStore, error) {
	payload := map[string]any{"lat": lat, "lng": lng}
	if productID != nil {
		payload["productId"] = *productID
	}
	raw, err := c.call(ctx, ActionNearestStore, payload)
	if err != nil {
		return nil, err
	}
	var rows []storeRow
	if err := decodeList(raw, &rows, "stores", "items", "results", "data"); err != nil {
		return nil, err
	}
	out := make([]domain.RankedStore, 0, len(rows))
	for _, r := range rows {
		id := integral(r.ID)
		if id == nil {
			continue
		}
		out = append(out, domain.RankedStore{
			ID:        *id,
			Name:      r.Name,
			Address:   r.Address,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Quantity:  integral(r.Quantity),
		})
	}
	return out, nil
}

// decodeList accepts either a bare JSON array or an object wrapping one under
// the first present key.
func decodeList(raw []byte, dst any, keys ...string) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty body", ErrBadResponse)
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrBadResponse, k, err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: no list under %v", ErrBadResponse, keys)
}

// integral reads a JSON number or numeric string holding a finite whole value.
// Anything else, null included, yields nil.
func integral(raw json.RawMessage) *int64 {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil
	}
	v := int64(f)
	return &v
}
