package config

import "time"

// APIConfig holds runtime configuration for the investigation API service.
type APIConfig struct {
	Environment        string
	LogLevel           string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	SearchURL          string
	WhoisWebURL        string
	WhoisAPIKey        string
	WhoisBaseURL       string
	WhoisTimeout       time.Duration
	TailPollInterval   time.Duration
	TailBatchLimit     int
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		LogLevel:           GetString("LOG_LEVEL", "info"),
		Addr:               GetString("API_ADDR", ":4000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://resolvewatch:resolvewatch@db:5432/resolvewatch?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "./db/migrations"),
		SearchURL:          GetString("SEARCH_URL", "https://duckduckgo.com/?q="),
		WhoisWebURL:        GetString("WHOIS_WEB_URL", "https://who.is/whois/"),
		WhoisAPIKey:        GetString("WHOIS_API_KEY", ""),
		WhoisBaseURL:       GetString("WHOIS_API_URL", "https://jsonwhois.com"),
		WhoisTimeout:       GetDuration("WHOIS_TIMEOUT", 15*time.Second),
		TailPollInterval:   GetDuration("TAIL_POLL_INTERVAL", 4*time.Second),
		TailBatchLimit:     GetInt("TAIL_BATCH_LIMIT", 200),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
