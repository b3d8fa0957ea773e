package utils

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Temporal TemporalConfig
	JWT      JWTConfig
	Gateway  GatewayConfig
	Booking  BookingConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
	Store   string // postgres | memory
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
	Migrate  bool
}

// DSN builds a pgx connection string.
func (c DatabaseConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=disable"
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	LockBackend string // local | redis
}

type KafkaConfig struct {
	Brokers        []string
	Topic          string
	OutboxInterval time.Duration
	OutboxBatch    int
}

type TemporalConfig struct {
	Host      string
	Namespace string
	TaskQueue string
}

type JWTConfig struct {
	Secret string
}

type GatewayConfig struct {
	Mode       string // sandbox | razorpay
	BaseURL    string
	KeyID      string
	KeySecret  string
	Timeout    time.Duration
	MaxRetries int
}

type BookingConfig struct {
	Currency       string
	HoldDuration   time.Duration
	WomenSeatRatio decimal.Decimal
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "smart-bus")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("STORE", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "smart_bus")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOCK_BACKEND", "local")
	v.SetDefault("KAFKA_TOPIC", "smart-bus.events")
	v.SetDefault("OUTBOX_INTERVAL", "2s")
	v.SetDefault("OUTBOX_BATCH", 50)
	v.SetDefault("TEMPORAL_NAMESPACE", "default")
	v.SetDefault("TEMPORAL_TASK_QUEUE", "seat-hold-expiry")
	v.SetDefault("GATEWAY_MODE", "sandbox")
	v.SetDefault("GATEWAY_BASE_URL", "https://api.razorpay.com")
	v.SetDefault("GATEWAY_TIMEOUT", "5s")
	v.SetDefault("GATEWAY_MAX_RETRIES", 2)
	v.SetDefault("CURRENCY", "INR")
	v.SetDefault("HOLD_DURATION", "15m")
	v.SetDefault("WOMEN_SEAT_RATIO", "0.2")

	// .env is optional, containers run on plain environment
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	ratio, err := decimal.NewFromString(v.GetString("WOMEN_SEAT_RATIO"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Name:    v.GetString("APP_NAME"),
			Port:    v.GetString("PORT"),
			Debug:   v.GetBool("DEBUG"),
			LogPath: v.GetString("LOG_PATH"),
			Store:   v.GetString("STORE"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:        v.GetString("REDIS_ADDR"),
			Password:    v.GetString("REDIS_PASSWORD"),
			DB:          v.GetInt("REDIS_DB"),
			LockBackend: v.GetString("LOCK_BACKEND"),
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(v.GetString("KAFKA_BROKERS")),
			Topic:          v.GetString("KAFKA_TOPIC"),
			OutboxInterval: v.GetDuration("OUTBOX_INTERVAL"),
			OutboxBatch:    v.GetInt("OUTBOX_BATCH"),
		},
		Temporal: TemporalConfig{
			Host:      v.GetString("TEMPORAL_HOST"),
			Namespace: v.GetString("TEMPORAL_NAMESPACE"),
			TaskQueue: v.GetString("TEMPORAL_TASK_QUEUE"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Gateway: GatewayConfig{
			Mode:       v.GetString("GATEWAY_MODE"),
			BaseURL:    v.GetString("GATEWAY_BASE_URL"),
			KeyID:      v.GetString("GATEWAY_KEY_ID"),
			KeySecret:  v.GetString("GATEWAY_KEY_SECRET"),
			Timeout:    v.GetDuration("GATEWAY_TIMEOUT"),
			MaxRetries: v.GetInt("GATEWAY_MAX_RETRIES"),
		},
		Booking: BookingConfig{
			Currency:       v.GetString("CURRENCY"),
			HoldDuration:   v.GetDuration("HOLD_DURATION"),
			WomenSeatRatio: ratio,
		},
	}

	return config, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
