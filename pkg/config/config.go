package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type DBConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	MaxOpenConns int
	MaxIdleConns int
}

type Config struct {
	DB DBConfig

	HTTPAddr string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string

	AuthServiceURL  string
	IdentityTimeout time.Duration

	TransferMaxLimit decimal.Decimal

	OutboxRelayInterval time.Duration
	OutboxBatchSize     int
}

// Load reads config.env plus the process environment. Malformed values fail
// fast; optional knobs fall back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(filepath.Join("config.env")); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	db, err := loadDB()
	if err != nil {
		return nil, err
	}

	limit, err := decimalEnv("TRANSFER_MAX_LIMIT", "10000.00")
	if err != nil {
		return nil, err
	}

	relayInterval, err := durationEnv("OUTBOX_RELAY_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}

	batchSize, err := intEnv("OUTBOX_BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}

	identityTimeout, err := durationEnv("IDENTITY_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		DB:                  *db,
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:        strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		AuthServiceURL:      getEnv("AUTH_SERVICE_URL", "http://localhost:8081"),
		IdentityTimeout:     identityTimeout,
		TransferMaxLimit:    limit,
		OutboxRelayInterval: relayInterval,
		OutboxBatchSize:     batchSize,
	}, nil
}

func loadDB() (*DBConfig, error) {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpen, err := intEnv("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, err
	}

	maxIdle, err := intEnv("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}

	return &DBConfig{
		Host:         getEnv("DB_HOST", "localhost"),
		Port:         port,
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		MaxOpenConns: maxOpen,
		MaxIdleConns: maxIdle,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func decimalEnv(key, fallback string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
