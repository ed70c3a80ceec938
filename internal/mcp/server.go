package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"stockfinder/internal/domain"
	"stockfinder/internal/geo"
	"stockfinder/internal/services"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
)

// NearestLimit is how many stores find_nearest_store returns.
const NearestLimit = 3

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return fmt.Sprintf("jsonrpc %d: %s", e.Code, e.Message) }

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	// Cause keeps the hidden reason of an internal error for logging.
	Cause   error           `json:"-"`
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type Searcher interface {
	Search(ctx context.Context, q string) ([]domain.SearchResult, error)
}

type StockLister interface {
	InStock(ctx context.Context, productID int64) ([]domain.StoreStock, error)
}

type Ranker interface {
	Rank(ctx context.Context, q services.RankQuery) ([]domain.RankedStore, error)
}

// Server answers tools/list and tools/call for workflow automation clients.
type Server struct {
	Search Searcher
	Stores services.StoreSource
	Stock  StockLister
	Rank   Ranker
}

func NewServer(search Searcher, stores services.StoreSource, stock StockLister, rank Ranker) *Server {
	return &Server{Search: search, Stores: stores, Stock: stock, Rank: rank}
}

func number(desc string) map[string]any { return map[string]any{"type": "number", "description": desc} }

func object(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var tools = []Tool{
	{
		Name:        "search_products",
		Description: "Search products by name, brand or category",
		InputSchema: object(map[string]any{
			"query": map[string]any{"type": "string", "description": `Product search query (e.g. "mercimek", "tencere")`},
		}, "query"),
	},
	{
		Name:        "get_all_stores",
		Description: "Get all stores with location and address information",
		InputSchema: object(map[string]any{}),
	},
	{
		Name:        "get_stock_info",
		Description: "Get the stores holding a product in stock",
		InputSchema: object(map[string]any{"productId": number("Product ID to check stock for")}, "productId"),
	},
	{
		Name:        "find_nearest_store",
		Description: "Find the nearest stores to given coordinates",
		InputSchema: object(map[string]any{
			"lat":       number("Latitude (e.g. 41.0082 for Istanbul)"),
			"lng":       number("Longitude (e.g. 28.9784 for Istanbul)"),
			"productId": number("Product ID to check availability"),
		}, "lat", "lng"),
	},
}

// Handle decodes one JSON-RPC request and always produces a response document.
func (s *Server) Handle(ctx context.Context, body []byte) Response {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return fail(nil, &Error{Code: CodeParseError, Message: "parse error"})
	}
	if req.Method == "" {
		return fail(req.ID, &Error{Code: CodeInvalidRequest, Message: "method is required"})
	}

	var (
		result any
		err    error
	)
	switch req.Method {
	case "tools/list":
		result = map[string]any{"tools": tools}
	case "tools/call":
		result, err = s.call(ctx, req.Params)
	default:
		err = &Error{Code: CodeMethodNotFound, Message: "unknown method: " + req.Method}
	}
	if err != nil {
		var rpcErr *Error
		if !errors.As(err, &rpcErr) {
			resp := fail(req.ID, &Error{Code: CodeInternal, Message: "tool execution failed"})
			resp.Cause = err
			return resp
		}
		return fail(req.ID, rpcErr)
	}
	return Response{JSONRPC: "2.0", ID: idOrNull(req.ID), Result: result}
}

func fail(id json.RawMessage, e *Error) Response {
	return Response{JSONRPC: "2.0", ID: idOrNull(id), Error: e}
}

func idOrNull(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type toolArgs struct {
	Query     string   `json:"query"`
	ProductID *float64 `json:"productId"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
}

func badParams(msg string) error { return &Error{Code: CodeInvalidParams, Message: msg} }

func (s *Server) call(ctx context.Context, raw json.RawMessage) (any, error) {
	var p callParams
	if err := json.Unmarshal(raw, &p); err != nil || p.Name == "" {
		return nil, badParams("params.name is required")
	}
	var args toolArgs
	if len(p.Arguments) > 0 && string(p.Arguments) != "null" {
		if err := json.Unmarshal(p.Arguments, &args); err != nil {
			return nil, badParams("arguments must be an object")
		}
	}

	switch p.Name {
	case "search_products":
		q := strings.TrimSpace(args.Query)
		if q == "" {
			return nil, badParams("query is required")
		}
		products, err := s.Search.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		return map[string]any{"products": products, "count": len(products), "query": q}, nil

	case "get_all_stores":
		stores, err := s.Stores.All(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"stores": stores, "count": len(stores)}, nil

	case "get_stock_info":
		pid, ok := positiveID(args.ProductID)
		if !ok {
			return nil, badParams("productId must be a positive integer")
		}
		stock, err := s.Stock.InStock(ctx, pid)
		if err != nil {
			return nil, err
		}
		return map[string]any{"stock": stock, "productId": pid, "availableStores": len(stock)}, nil

	case "find_nearest_store":
		if args.Lat == nil || args.Lng == nil || !geo.ValidCoordinate(*args.Lat, *args.Lng) {
			return nil, badParams("lat and lng must be valid coordinates")
		}
		q := services.RankQuery{Lat: *args.Lat, Lng: *args.Lng}
		if args.ProductID != nil {
			pid, ok := positiveID(args.ProductID)
			if !ok {
				return nil, badParams("productId must be a positive integer")
			}
			q.ProductID = &pid
		}
		ranked, err := s.Rank.Rank(ctx, q)
		if err != nil {
			return nil, err
		}
		total := len(ranked)
		if len(ranked) > NearestLimit {
			ranked = ranked[:NearestLimit]
		}
		return map[string]any{
			"nearest_stores": ranked,
			"userLocation":   map[string]float64{"lat": q.Lat, "lng": q.Lng},
			"rankedStores":   total,
		}, nil
	}
	return nil, badParams("unknown tool: " + p.Name)
}

func positiveID(v *float64) (int64, bool) {
	if v == nil || *v <= 0 || *v != math.Trunc(*v) || *v >= 1<<53 {
		return 0, false
	}
	return int64(*v), true
}
