package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env            string
	ServerPort     int
	LogLevel       string
	JWTSecret      string
	JWTTTL         time.Duration
	MigrationsDir  string
	AllowedOrigins []string
	Database       DatabaseConfig
	Redis          RedisConfig
	RateLimit      RateLimitConfig
	Events         EventsConfig
	Storage        StorageConfig
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type EventsConfig struct {
	Backend  string
	Topic    string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	PrefetchCount   int
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type StorageConfig struct {
	Backend string
	Prefix  string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Driver:   strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "tasklane"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "tasklane"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	eventsConfig := EventsConfig{
		Backend: strings.ToLower(getEnv("EVENTS_BACKEND", "")),
		Topic:   getEnv("EVENTS_TOPIC", "task-events"),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 10),
			QueueDurable:    getEnvBool("RABBITMQ_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_AUTO_DELETE", false),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
	}

	storageConfig := StorageConfig{
		Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "minio")),
		Prefix:  getEnv("STORAGE_PREFIX", "exports"),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "tasklane"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}

	port := getEnvInt("SERVER_PORT", 0)
	if port == 0 {
		port = getEnvInt("PORT", 8080)
	}

	return Config{
		Env:            getEnv("ENV", "production"),
		ServerPort:     port,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		JWTSecret:      strings.TrimSpace(getEnv("JWT_SECRET", "")),
		JWTTTL:         getEnvDuration("JWT_TTL", 24*time.Hour),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "internal/db/migrations"),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		Database:       dbConfig,
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Max:    getEnvInt("RATE_LIMIT_MAX", 20),
			Window: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Events:  eventsConfig,
		Storage: storageConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		if _, err := fmt.Sscanf(strings.TrimSpace(valueStr), "%d", &value); err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil || value <= 0 {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
