package handlers

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"stockfinder/internal/cache"
	applog "stockfinder/internal/log"
	"stockfinder/internal/metrics"
	"stockfinder/internal/web"
)

// Options configures NewApp. Zero limits fall back to defaults.
type Options struct {
	CORSOrigins        string
	RateLimitPerMin    int
	SearchLimitPerMin  int
	NearestLimitPerMin int
	StaticDir          string
	Redis              *redis.Client
	CacheTTL           time.Duration
	Metrics            *metrics.Metrics
	AccessLog          bool
}

func (o Options) withDefaults() Options {
	if o.CORSOrigins == "" {
		o.CORSOrigins = "*"
	}
	if o.RateLimitPerMin <= 0 {
		o.RateLimitPerMin = 60
	}
	if o.SearchLimitPerMin <= 0 {
		o.SearchLimitPerMin = 30
	}
	if o.NearestLimitPerMin <= 0 {
		o.NearestLimitPerMin = 30
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = time.Minute
	}
	return o
}

// NewApp builds the HTTP surface: middleware, API routes, the tool endpoint and the shell page.
func NewApp(deps *Deps, opts Options) *fiber.App {
	opts = opts.withDefaults()

	app := fiber.New(fiber.Config{
		Views:        web.Engine(),
		ErrorHandler: ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type, Cache-Control",
	}))
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(opts.Metrics.Middleware())
	app.Use(limiter.New(limiter.Config{
		Max:        opts.RateLimitPerMin,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/api/health" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))

	// Health & metrics
	health := func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) }
	app.Get("/healthz", health)
	app.Get("/api/health", health)
	if opts.Metrics != nil {
		app.Get("/metrics", opts.Metrics.Handler())
	}

	// ---------- API ----------
	api := app.Group("/api", cache.Middleware(opts.Redis, cache.Config{TTL: opts.CacheTTL, Skip: cache.NoCacheRequested}))

	api.Get("/searchProduct", endpointLimiter("search", opts.SearchLimitPerMin), deps.SearchHandler.Search)
	api.Get("/nearestStore", endpointLimiter("nearest", opts.NearestLimitPerMin), deps.StoreHandler.Nearest)
	api.Get("/categories", deps.CategoryHandler.List)
	api.Get("/categories-with-images", deps.CategoryHandler.WithImages)
	api.Get("/productsByCategory", deps.CategoryHandler.Products)
	api.Get("/brandLogos", deps.CategoryHandler.BrandLogos)
	api.Post("/chat", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.chat.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), deps.ChatHandler.Send)
	api.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	app.Post("/mcp", deps.MCPHandler.Handle)

	// ---------- Shell ----------
	staticDir := opts.StaticDir
	if staticDir != "" {
		if abs, err := filepath.Abs(staticDir); err == nil {
			staticDir = abs
		}
		if st, err := os.Stat(filepath.Join(staticDir, "index.html")); err != nil || st.IsDir() {
			staticDir = ""
		}
	}
	if staticDir != "" {
		applog.Info(nil, "static.serve", map[string]any{"dir": staticDir})
		app.Static("/", staticDir)
	}
	app.Use(func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		// Block encoded traversal attempts as well as raw .. or null bytes
		p := strings.ToLower(c.Path())
		if strings.Contains(p, "..") || strings.Contains(p, "%2e") || strings.Contains(p, "\x00") {
			applog.Security(c, "shell.traversal.block", map[string]any{"path": c.Path()})
			return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Title": "Bulunamadı", "Message": "Sayfa bulunamadı"})
		}
		if staticDir != "" {
			return c.SendFile(filepath.Join(staticDir, "index.html"))
		}
		return c.Render("index", fiber.Map{"Title": "Stok Bul"})
	})
	return app
}

func endpointLimiter(name string, perMin int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        perMin,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + name
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate."+name+".hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
}
