package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	StorageBucket   string
	Environment     string

	AnilibriaBaseURL    string
	AnilibriaStaticBase string

	RedisAddr     string
	RedisPassword string

	SiteBaseURL  string
	PrerenderURL string

	PreviewTimeoutSec int64
	CatalogCacheSec   int64
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		StorageBucket:   getEnv("STORAGE_BUCKET", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),

		AnilibriaBaseURL:    getEnv("ANILIBRIA_BASE_URL", "https://anilibria.top"),
		AnilibriaStaticBase: getEnv("ANILIBRIA_STATIC_BASE", "https://anilibria.top"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		SiteBaseURL:  getEnv("SITE_BASE_URL", "https://anilifetv.vercel.app"),
		PrerenderURL: getEnv("PRERENDER_URL", "https://service.prerender.io"),

		PreviewTimeoutSec: getEnvAsInt64("PREVIEW_TIMEOUT", 8),
		CatalogCacheSec:   getEnvAsInt64("CATALOG_CACHE_TTL", 300),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
