package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Holds    HoldsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// StoreConfig selects the storage backend: "memory", "redis" or "postgres".
type StoreConfig struct {
	Backend string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type HoldsConfig struct {
	TTL           time.Duration
	MinTTL        time.Duration
	MaxTTL        time.Duration
	MaxQuantity   int
	SweepInterval time.Duration
	RateLimit     int
	RateWindow    time.Duration
}

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPort, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	backend := os.Getenv("STORE")
	if backend == "" {
		backend = StoreMemory
	}

	switch backend {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		return nil, fmt.Errorf("%s: unknown STORE %q", op, backend)
	}

	postgresCfg, err := loadPostgres(backend == StorePostgres)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	if backend == StoreRedis && redisCfg.Addr == "" {
		redisCfg.Addr = "localhost:6379"
	}

	holdsCfg, err := loadHolds()
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Config{
		Server:   ServerConfig{Host: serverHost, Port: serverPort},
		Store:    StoreConfig{Backend: backend},
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Holds:    holdsCfg,
	}, nil
}

func loadHolds() (HoldsConfig, error) {
	ttl, err := envDuration("HOLD_TTL", 2*time.Minute)
	if err != nil {
		return HoldsConfig{}, err
	}

	minTTL, err := envDuration("HOLD_TTL_MIN", 10*time.Second)
	if err != nil {
		return HoldsConfig{}, err
	}

	maxTTL, err := envDuration("HOLD_TTL_MAX", 15*time.Minute)
	if err != nil {
		return HoldsConfig{}, err
	}

	maxQty, err := envInt("MAX_HOLD_QTY", 100)
	if err != nil {
		return HoldsConfig{}, err
	}

	if maxQty <= 0 {
		return HoldsConfig{}, fmt.Errorf("MAX_HOLD_QTY must be positive, got %d", maxQty)
	}

	sweep, err := envDuration("SWEEP_INTERVAL", 30*time.Second)
	if err != nil {
		return HoldsConfig{}, err
	}

	rateLimit, err := envInt("RATE_LIMIT", 10)
	if err != nil {
		return HoldsConfig{}, err
	}

	rateWindow, err := envDuration("RATE_WINDOW", time.Minute)
	if err != nil {
		return HoldsConfig{}, err
	}

	return HoldsConfig{
		TTL:           ttl,
		MinTTL:        minTTL,
		MaxTTL:        maxTTL,
		MaxQuantity:   maxQty,
		SweepInterval: sweep,
		RateLimit:     rateLimit,
		RateWindow:    rateWindow,
	}, nil
}

func loadPostgres(required bool) (PostgresConfig, error) {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}

	port, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, err
	}

	user := os.Getenv("POSTGRES_USER")
	password := os.Getenv("POSTGRES_PASSWORD")
	name := os.Getenv("POSTGRES_DB")

	if required {
		if user == "" {
			return PostgresConfig{}, fmt.Errorf("missing POSTGRES_USER")
		}
		if password == "" {
			return PostgresConfig{}, fmt.Errorf("missing POSTGRES_PASSWORD")
		}
		if name == "" {
			return PostgresConfig{}, fmt.Errorf("missing POSTGRES_DB")
		}
	}

	sslMode := os.Getenv("POSTGRES_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	return PostgresConfig{
		User:     user,
		Password: password,
		Name:     name,
		Host:     host,
		Port:     port,
		SSLMode:  sslMode,
	}, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	if v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}

	return v, nil
}
