package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Catalog   CatalogConfig
	RateLimit RateLimitConfig
	Seed      SeedConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	Schema       string
	SSLMode      string
	MaxOpenConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	Secret string
}

type CatalogConfig struct {
	MaxSKUsPerProduct int
	ProductCacheTTL   time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type SeedConfig struct {
	AdminEmail     string
	AdminPassword  string
	CollectionName string
}

// IsDevelopment reports whether the server runs outside production
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

func Load() *Config {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not read .env file: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATALOG_MAX_SKUS_PER_PRODUCT", defaultMaxSKUsPerProduct)
	v.SetDefault("CACHE_PRODUCT_TTL_SECONDS", 300)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("SEED_ADMIN_EMAIL", "admin@example.com")
	v.SetDefault("SEED_COLLECTION_NAME", "Featured")

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Database:     v.GetString("DB_DATABASE"),
			Schema:       v.GetString("DB_SCHEMA"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Catalog: CatalogConfig{
			MaxSKUsPerProduct: positiveOr(v.GetInt("CATALOG_MAX_SKUS_PER_PRODUCT"), defaultMaxSKUsPerProduct),
			ProductCacheTTL:   time.Duration(v.GetInt("CACHE_PRODUCT_TTL_SECONDS")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		Seed: SeedConfig{
			AdminEmail:     v.GetString("SEED_ADMIN_EMAIL"),
			AdminPassword:  v.GetString("SEED_ADMIN_PASSWORD"),
			CollectionName: v.GetString("SEED_COLLECTION_NAME"),
		},
	}
}

const defaultMaxSKUsPerProduct = 1000

// positiveOr returns n, or fallback when n is not positive
func positiveOr(n, fallback int) int {
	if n <= 0 {
		log.Printf("Warning: non-positive value %d replaced by %d", n, fallback)
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
