package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Env             string
	PostgresConnStr string
	MongoURI        string
	JWTSecret       string
	SettlementDelay time.Duration
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		JWTSecret:       getEnv("JWT_SECRET", "supersecretjwtkey"),
		SettlementDelay: time.Duration(getEnvInt("SETTLEMENT_DELAY_MS", 2500)) * time.Millisecond,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
