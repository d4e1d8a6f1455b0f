package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server         ServerConfig
	Logger         LoggerConfig
	Postgres       PostgresConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	Elastic        ElasticsearchConfig
	Inventory      InventoryConfig
	Reconciliation ReconciliationConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	ShipmentTopic string
	GroupID       string
	EventsTopic   string
}

type ElasticsearchConfig struct {
	Enabled   bool
	Addresses []string
	Username  string
	Password  string
}

// InventoryConfig tunes the per product/variant depletion lock.
type InventoryConfig struct {
	LockTTL        time.Duration
	LockRetries    int
	LockRetryDelay time.Duration
}

type ReconciliationConfig struct {
	// Timezone is the IANA zone report dates are read in.
	Timezone       string
	MinorThreshold int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			GRPCPort: getEnv("GRPC_PORT", ":8082"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "warehouse"),
			Password:        getEnv("POSTGRES_PASSWORD", "warehouse"),
			DBName:          getEnv("POSTGRES_DB", "warehouse"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvBool("KAFKA_ENABLED", true),
			Brokers:       getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ShipmentTopic: getEnv("KAFKA_TOPIC_SHIPMENTS", "warehouse.shipments"),
			GroupID:       getEnv("KAFKA_GROUP_SHIPMENTS", "warehouse-shipments"),
			EventsTopic:   getEnv("KAFKA_TOPIC_EVENTS", "warehouse.events"),
		},
		Elastic: ElasticsearchConfig{
			Enabled:   getEnvBool("ELASTICSEARCH_ENABLED", true),
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		},
		Inventory: InventoryConfig{
			LockTTL:        getEnvDuration("INVENTORY_LOCK_TTL", 10*time.Second),
			LockRetries:    getEnvInt("INVENTORY_LOCK_RETRIES", 3),
			LockRetryDelay: getEnvDuration("INVENTORY_LOCK_RETRY_DELAY", 100*time.Millisecond),
		},
		Reconciliation: ReconciliationConfig{
			Timezone:       getEnv("RECONCILIATION_TIMEZONE", "Asia/Jakarta"),
			MinorThreshold: getEnvInt("RECONCILIATION_MINOR_THRESHOLD", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
