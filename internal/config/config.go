package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port      string
	DBDriver  string // sqlite | postgres
	DBDSN     string
	StaticDir string
	LogFile   string
	LogLevel  string
	LogFormat string // json | console

	AutomationURL     string
	AutomationTimeout time.Duration
	ChatWebhookURL    string
	ChatTimeout       time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	CORSOrigins     string
	RateLimitPerMin int
}

func Load() Config {
	cfg := Config{
		Port:      getEnv("PORT", "3000"),
		DBDriver:  strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:     getEnv("DB_DSN", "stockfinder.db"), // sqlite file in project root
		StaticDir: getEnv("STATIC_DIR", "./web/dist"),
		LogFile:   getEnv("LOG_FILE", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		AutomationURL:     getEnv("AUTOMATION_URL", ""),
		AutomationTimeout: getEnvMillis("AUTOMATION_TIMEOUT_MS", 15000),
		ChatWebhookURL:    getEnv("CHAT_WEBHOOK_URL", ""),
		ChatTimeout:       getEnvMillis("CHAT_TIMEOUT_MS", 30000),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SEC", 60)) * time.Second,

		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_STOCK_TOPIC", "stock.updates"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "stockfinder"),

		CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 60),
	}

	// Webhook URLs may embed tokens, only report whether they are set.
	log.Printf("[config] PORT=%s DB_DRIVER=%s DB_DSN=%s STATIC_DIR=%s LOG_LEVEL=%s AUTOMATION=%t CHAT=%t REDIS=%t KAFKA=%t",
		cfg.Port, cfg.DBDriver, redactDSN(cfg.DBDSN), cfg.StaticDir, cfg.LogLevel,
		cfg.AutomationURL != "", cfg.ChatWebhookURL != "", cfg.RedisAddr != "", len(cfg.KafkaBrokers) > 0)
	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvMillis(key string, fallbackMs int) time.Duration {
	ms := getEnvInt(key, fallbackMs)
	if ms <= 0 {
		ms = fallbackMs
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnvSlice(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// redactDSN hides the password of a postgres URL DSN.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		return dsn[:scheme+3] + creds[:i] + ":***" + dsn[at:]
	}
	return dsn
}
