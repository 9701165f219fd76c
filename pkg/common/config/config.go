package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceCSV      = "csv"
	SourceMySQL    = "mysql"
	SourcePostgres = "postgres"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Dataset
	DatasetSource   string
	DatasetPath     string
	DatasetTable    string
	SchemaPath      string
	DatasetPushDown bool

	// MySQL
	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLDB       string

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// SQL connection pool
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Dashboard cache
	CacheEnabled bool
	CacheTTL     time.Duration
	CachePrefix  string

	// Kafka
	KafkaBrokers       []string
	KafkaGroupID       string
	DatasetEventsTopic string
	EventsEnabled      bool

	// Imports
	ImportBatchSize int
}

var loadEnvOnce sync.Once

func Load() *Config {
	loadEnvOnce.Do(func() {
		// A missing .env is normal outside local development.
		_ = godotenv.Load()
	})

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),

		DatasetSource:   strings.ToLower(getEnv("DATASET_SOURCE", SourceCSV)),
		DatasetPath:     getEnv("DATASET_PATH", "dataset/Healthcare-Dataset.csv"),
		DatasetTable:    getEnv("DATASET_TABLE", "admissions"),
		SchemaPath:      getEnv("SCHEMA_PATH", ""),
		DatasetPushDown: getBoolEnv("DATASET_PUSH_DOWN", false),

		MySQLHost:     getEnv("MYSQL_HOST", "localhost"),
		MySQLPort:     getEnv("MYSQL_PORT", "3306"),
		MySQLUser:     getEnv("MYSQL_USER", "healthcare"),
		MySQLPassword: getEnv("MYSQL_PASSWORD", ""),
		MySQLDB:       getEnv("MYSQL_DB", "healthcare"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "healthcare"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "healthcare"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		DBMaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		CacheEnabled: getBoolEnv("CACHE_ENABLED", false),
		CacheTTL:     getDuration("CACHE_TTL", 5*time.Minute),
		CachePrefix:  getEnv("CACHE_PREFIX", "dashboard"),

		KafkaBrokers:       getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "healthcare-dashboard"),
		DatasetEventsTopic: getEnv("DATASET_EVENTS_TOPIC", "dataset-events"),
		EventsEnabled:      getBoolEnv("EVENTS_ENABLED", false),

		ImportBatchSize: getIntEnv("IMPORT_BATCH_SIZE", 500),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
