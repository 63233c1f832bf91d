package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port    string
	GinMode string

	StoreDriver string
	SQLitePath  string
	PostgresDSN string

	JWTSecret     []byte
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string

	Seed             uint64
	SeedOrders       int
	SeedTransporters int

	StatusPolicy string

	KafkaBrokers []string
	KafkaTopic   string
	ServiceName  string

	CORSOrigins     []string
	LoginRatePerMin int

	USSDMinQuantity int
	USSDMaxQuantity int

	// ReportsBaseURL is advertised to the console as the root of the reporting endpoints
	ReportsBaseURL string
}

// Load reads the configuration from the environment. Malformed numeric
// values fall back to their defaults with a warning.
func Load() Config {
	return Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: os.Getenv("GIN_MODE"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		SQLitePath:  getEnv("SQLITE_PATH", "safiri_mazao.db"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		JWTSecret:     []byte(getEnv("JWT_SECRET", "safiri_mazao_dev_secret")),
		TokenTTL:      getDuration("TOKEN_TTL", 24*time.Hour),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "password"),

		Seed:             uint64(getInt("SEED", 1)),
		SeedOrders:       getInt("SEED_ORDERS", 30),
		SeedTransporters: getInt("SEED_TRANSPORTERS", 15),

		StatusPolicy: getEnv("STATUS_POLICY", "permissive"),

		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "safiri.events"),
		ServiceName:  getEnv("SERVICE_NAME", "safiri-mazao-api"),

		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "*")),
		LoginRatePerMin: getInt("LOGIN_RATE_PER_MIN", 5),

		USSDMinQuantity: getInt("USSD_MIN_QUANTITY", 1),
		USSDMaxQuantity: getInt("USSD_MAX_QUANTITY", 1000),

		ReportsBaseURL: getEnv("REPORTS_BASE_URL", "http://localhost:8080/api"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// OpenDB connects to the SQL backend selected by StoreDriver.
// It returns nil for the memory driver.
func OpenDB(cfg Config) (*gorm.DB, error) {
	// TranslateError surfaces unique violations as gorm.ErrDuplicatedKey for the stores
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn), TranslateError: true}

	switch cfg.StoreDriver {
	case DriverMemory:
		return nil, nil
	case DriverSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// one writer at a time; concurrent writers get SQLITE_BUSY otherwise
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case DriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required for the postgres driver")
		}
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
