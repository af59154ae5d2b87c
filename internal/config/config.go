package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	GrpcPort string `mapstructure:"GRPC_PORT"`
	GinMode  string `mapstructure:"GIN_MODE"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBDSN      string `mapstructure:"DB_DSN"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`

	RedisURL    string `mapstructure:"REDIS_URL"`
	NotifyAsync bool   `mapstructure:"NOTIFY_ASYNC"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTTTLHours int    `mapstructure:"JWT_TTL_HOURS"`

	// Seeded by cmd/migrate when no admin exists yet.
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	ProofRetentionDays        int `mapstructure:"PROOF_RETENTION_DAYS"`
	NotificationRetentionDays int `mapstructure:"NOTIFICATION_RETENTION_DAYS"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`
}

var defaults = map[string]interface{}{
	"PORT":                        "8080",
	"GRPC_PORT":                   "50051",
	"GIN_MODE":                    "",
	"DB_DRIVER":                   "mysql",
	"DB_DSN":                      "",
	"DB_HOST":                     "localhost",
	"DB_PORT":                     "3306",
	"DB_USER":                     "root",
	"DB_PASSWORD":                 "",
	"DB_NAME":                     "club_finance",
	"REDIS_URL":                   "",
	"NOTIFY_ASYNC":                false,
	"JWT_SECRET":                  "",
	"JWT_TTL_HOURS":               24,
	"ADMIN_EMAIL":                 "",
	"ADMIN_PASSWORD":              "",
	"PROOF_RETENTION_DAYS":        180,
	"NOTIFICATION_RETENTION_DAYS": 30,
	"LOG_LEVEL":                   "info",
	"LOG_FILE":                    "",
}

// Load reads .env files (current dir, then parent) and overlays the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", "../.env"}
	}
	loaded := false
	for _, f := range envFiles {
		if err := godotenv.Load(f); err == nil {
			loaded = true
			break
		}
	}
	if !loaded {
		log.Println("No .env file found, using system environment variables")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return &cfg, nil
}

// DSN builds the connection string for the configured driver unless DB_DSN is set.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
	case "sqlite":
		return c.DBName + ".db"
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	}
}
