package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort  string `yaml:"server_port"`
	StoreDriver string `yaml:"store_driver"`

	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBMaxConns int32  `yaml:"db_max_conns"`

	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`

	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	PasswordHasher string        `yaml:"password_hasher"`
	BcryptCost     int           `yaml:"bcrypt_cost"`

	CORSOrigin string `yaml:"cors_origin"`
}

func defaults() *Config {
	return &Config{
		ServerPort:     "8080",
		StoreDriver:    "postgres",
		DBHost:         "localhost",
		DBPort:         "5432",
		DBUser:         "circle",
		DBPassword:     "circle_dev_password",
		DBName:         "circle",
		DBMaxConns:     20,
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "circle",
		JWTSecret:      "dev-secret-change-me",
		TokenTTL:       24 * time.Hour,
		PasswordHasher: "argon2",
		BcryptCost:     10,
		CORSOrigin:     "http://localhost:3000",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if set), then individual environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path, ok := os.LookupEnv("CONFIG_FILE"); ok && path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.StoreDriver = getEnv("STORE_DRIVER", cfg.StoreDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = getEnv("MONGO_DATABASE", cfg.MongoDatabase)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.PasswordHasher = getEnv("PASSWORD_HASHER", cfg.PasswordHasher)
	cfg.CORSOrigin = getEnv("CORS_ORIGIN", cfg.CORSOrigin)

	var err error
	if cfg.DBMaxConns, err = getEnvInt32("DB_MAX_CONNS", cfg.DBMaxConns); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", cfg.BcryptCost); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getEnvDuration("TOKEN_TTL", cfg.TokenTTL); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "postgres", "mongo", "memory":
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	switch c.PasswordHasher {
	case "argon2", "bcrypt":
	default:
		return fmt.Errorf("unknown password hasher %q", c.PasswordHasher)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("db max conns must be at least 1, got %d", c.DBMaxConns)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// PostgresDSN returns the connection string for the relational store.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvInt32(key string, fallback int32) (int32, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.ParseInt(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return int32(n), nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
