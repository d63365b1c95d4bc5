package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ListenAddr        string
	MaxConcurrentRuns int

	DefaultTotal    int
	MaxTotal        int
	ResultsWaitSec  int
	DetailWaitSec   int
	ScrollDelayMs   int
	MaxScrollIters  int
	RecentSearchCap int

	RawCSVEnabled bool
	CSVOutputPath string
	ChromeBin     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "leads"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "leads123"),
		PostgresDB:       getEnv("POSTGRES_DB", "leads_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		MaxConcurrentRuns: getEnvInt("MAX_CONCURRENT_RUNS", 2),

		DefaultTotal:    getEnvInt("DEFAULT_TOTAL", 20),
		MaxTotal:        getEnvInt("MAX_TOTAL", 50),
		ResultsWaitSec:  getEnvInt("RESULTS_WAIT_SEC", 60),
		DetailWaitSec:   getEnvInt("DETAIL_WAIT_SEC", 10),
		ScrollDelayMs:   getEnvInt("SCROLL_DELAY_MS", 1000),
		MaxScrollIters:  getEnvInt("MAX_SCROLL_ITERS", 60),
		RecentSearchCap: getEnvInt("RECENT_SEARCH_CAP", 20),

		RawCSVEnabled: getEnvBool("RAW_CSV_ENABLED", false),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_places.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
