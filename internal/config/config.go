package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	// Database
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DatabaseURL string

	// Redis
	EnableRedis bool
	RedisURL    string

	// JWT
	JWTSecret string

	// Server
	Port        string
	Environment string
	LogLevel    string

	// CORS
	CORSOrigins []string

	// Upload
	UploadDir     string
	MaxUploadSize int64

	// Rate Limiting
	RateLimitRequests int
	RateLimitWindow   int
	RateLimitBurst    int

	UploadRateLimitRequests int
	UploadRateLimitWindow   int
	AuthRateLimitRequests   int
	AuthRateLimitWindow     int

	// Features
	EnableCache   bool
	EnableMetrics bool

	// Wiki behavior. MiserMode economizes expensive queries across the
	// platform; feature flags that default from it are resolved here so
	// the rest of the process sees settled values.
	MiserMode             bool
	RandomImageStrictMime bool
	RandomImageNoCache    bool
	DefaultThumbWidth     int
	MaxRenderDepth        int
	RenderCacheTTLSeconds int

	// Site Meta
	SiteName string
	SiteURL  string
}

func New() *Config {
	c := &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "lorewiki"),
		DBPassword: getEnv("DB_PASSWORD", "lorewiki"),
		DBName:     getEnv("DB_NAME", "lorewiki"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		EnableRedis: getEnvAsBool("ENABLE_REDIS", true),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "change-this-wiki-secret-before-production"),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "debug"),

		// CORS
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		// Upload
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSize: int64(getEnvAsInt("MAX_UPLOAD_SIZE_MB", 10)) * 1024 * 1024,

		// Rate Limiting
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 0),

		UploadRateLimitRequests: getEnvAsInt("UPLOAD_RATE_LIMIT_REQUESTS", 10),
		UploadRateLimitWindow:   getEnvAsInt("UPLOAD_RATE_LIMIT_WINDOW", 300),
		AuthRateLimitRequests:   getEnvAsInt("AUTH_RATE_LIMIT_REQUESTS", 10),
		AuthRateLimitWindow:     getEnvAsInt("AUTH_RATE_LIMIT_WINDOW", 60),

		// Features
		EnableCache:   getEnvAsBool("ENABLE_CACHE", true),
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),

		// Wiki behavior
		MiserMode:             getEnvAsBool("MISER_MODE", false),
		RandomImageNoCache:    getEnvAsBool("RANDOM_IMAGE_NO_CACHE", false),
		DefaultThumbWidth:     getEnvAsInt("DEFAULT_THUMB_WIDTH", 180),
		MaxRenderDepth:        getEnvAsInt("MAX_RENDER_DEPTH", 8),
		RenderCacheTTLSeconds: getEnvAsInt("RENDER_CACHE_TTL", 3600),

		// Site Meta
		SiteName: getEnv("SITE_NAME", "lorewiki"),
		SiteURL:  getEnv("SITE_URL", "http://localhost:8080"),
	}

	// Strict MIME filtering for random image selection follows miser mode
	// unless explicitly configured: the filtering join is the expensive
	// part miser mode exists to avoid.
	if os.Getenv("RANDOM_IMAGE_STRICT_MIME") != "" {
		c.RandomImageStrictMime = getEnvAsBool("RANDOM_IMAGE_STRICT_MIME", true)
	} else {
		c.RandomImageStrictMime = !c.MiserMode
	}

	// Build DSN
	c.DatabaseURL = fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)

	return c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
