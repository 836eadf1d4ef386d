package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Ledger   LedgerConfig
	SaltEdge SaltEdgeConfig
	Nordigen NordigenConfig
	Fetch    FetchConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
}

// StorageConfig locates the flat-file stores for conversion artifacts and
// job status records.
type StorageConfig struct {
	ArtifactDir string
	StatusDir   string
}

type LedgerConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// SaltEdgeConfig holds the app-id/secret credential pair for the Salt
// Edge-style aggregator.
type SaltEdgeConfig struct {
	URL    string
	AppID  string
	Secret string
}

// NordigenConfig holds the bearer token for the Nordigen-style aggregator.
type NordigenConfig struct {
	URL   string
	Token string
}

// FetchConfig bounds aggregator downloads.
type FetchConfig struct {
	Timeout     time.Duration
	WorkerCount int
	MaxRetries  int
}

type LoggingConfig struct {
	Level string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values")
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			ArtifactDir: getEnv("ARTIFACT_DIR", "storage/jobs"),
			StatusDir:   getEnv("STATUS_DIR", "storage/status"),
		},
		Ledger: LedgerConfig{
			URL:     getEnv("LEDGER_URL", "http://localhost:8081/api"),
			Token:   getEnv("LEDGER_TOKEN", ""),
			Timeout: getDurationEnv("LEDGER_TIMEOUT", 30*time.Second),
		},
		SaltEdge: SaltEdgeConfig{
			URL:    getEnv("SALTEDGE_URL", "https://www.saltedge.com/api/v5"),
			AppID:  getEnv("SALTEDGE_APP_ID", ""),
			Secret: getEnv("SALTEDGE_SECRET", ""),
		},
		Nordigen: NordigenConfig{
			URL:   getEnv("NORDIGEN_URL", "https://bankaccountdata.gocardless.com/api/v2"),
			Token: getEnv("NORDIGEN_TOKEN", ""),
		},
		Fetch: FetchConfig{
			Timeout:     getDurationEnv("FETCH_TIMEOUT", 30*time.Second),
			WorkerCount: getIntEnv("FETCH_WORKER_COUNT", 4),
			MaxRetries:  getIntEnv("FETCH_MAX_RETRIES", 3),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}
