package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment string

	// Redis configuration
	RedisURL string

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Fulfillment worker configuration
	WorkerIdleInterval time.Duration

	// Credential artifact storage
	QRCodeDir string

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),

		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		WorkerIdleInterval: getEnvAsDuration("WORKER_IDLE_INTERVAL", "5s"),

		QRCodeDir: getEnv("QR_CODE_DIR", "qr-codes"),

		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
