package handlers

import (
	"stockfinder/internal/automation"
	"stockfinder/internal/config"
	"stockfinder/internal/mcp"
	"stockfinder/internal/metrics"
	"stockfinder/internal/repos"
	"stockfinder/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	SearchHandler   *SearchHandler
	StoreHandler    *StoreHandler
	CategoryHandler *CategoryHandler
	ChatHandler     *ChatHandler
	MCPHandler      *MCPHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, m *metrics.Metrics) *Deps {
	prodRepo := repos.NewProductRepo(db)
	storeRepo := repos.NewStoreRepo(db)
	stockRepo := repos.NewStockRepo(db)

	searchSvc := services.NewSearchService(prodRepo)
	rankSvc := services.NewRankingService(storeRepo, stockRepo)
	catalogSvc := services.NewCatalogService(prodRepo)

	// leave the interfaces nil when unconfigured, a typed nil would look present
	var delegate services.Delegate
	if cfg.AutomationURL != "" {
		delegate = automation.New(cfg.AutomationURL, cfg.AutomationTimeout)
	}
	var relay services.ChatRelay
	if cfg.ChatWebhookURL != "" {
		relay = automation.NewWebhook(cfg.ChatWebhookURL, cfg.ChatTimeout)
	}
	lookupSvc := services.NewLookupService(searchSvc, rankSvc, delegate, m)

	return &Deps{
		SearchHandler:   &SearchHandler{Lookup: lookupSvc},
		StoreHandler:    &StoreHandler{Lookup: lookupSvc},
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ChatHandler:     &ChatHandler{Chat: services.NewChatService(relay)},
		MCPHandler:      &MCPHandler{Server: mcp.NewServer(searchSvc, storeRepo, stockRepo, rankSvc)},
	}
}
