package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const masterKeyEnv = "MASTER_ENCRYPTION_KEY"

// Config holds environment-driven settings for the gateway.
type Config struct {
	Port     string `yaml:"port"`
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`

	// Venue
	VenueRESTURL    string        `yaml:"venue_rest_url"`
	VenueWSURL      string        `yaml:"venue_ws_url"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	// Secrets. MasterKeys maps key version to a base64 AES-256 key.
	MasterKeys map[int]string `yaml:"-"`
	BcryptCost int            `yaml:"bcrypt_cost"`

	// HTTP surface
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	PriceActionTTL time.Duration `yaml:"price_action_ttl"`
}

// Load reads environment variables (optionally via .env) into Config, then
// applies the YAML file named by CONFIG_FILE on top.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "./data/gateway.db"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		VenueRESTURL:    strings.TrimRight(getEnv("VENUE_REST_URL", "https://www.bitmex.com"), "/"),
		VenueWSURL:      getEnv("VENUE_WS_URL", "wss://ws.bitmex.com/realtime"),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 5*time.Second),
		MasterKeys:      loadMasterKeys(),
		BcryptCost:      getEnvInt("BCRYPT_COST", 10),
		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 50),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		CORSOrigins:     splitAndTrim(getEnv("CORS_ORIGINS", "*")),
		PriceActionTTL:  getEnvDuration("PRICE_ACTION_TTL", 2*time.Second),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay replaces every field the YAML file sets.
func (c *Config) overlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.VenueRESTURL = strings.TrimRight(c.VenueRESTURL, "/")
	return nil
}

func (c *Config) validate() error {
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %s", c.UpstreamTimeout)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost %d out of range [4,31]", c.BcryptCost)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

// loadMasterKeys reads MASTER_ENCRYPTION_KEY (version 1) and
// MASTER_ENCRYPTION_KEY_V2..V10.
func loadMasterKeys() map[int]string {
	keys := make(map[int]string)
	if v := os.Getenv(masterKeyEnv); v != "" {
		keys[1] = v
	}
	for ver := 2; ver <= 10; ver++ {
		if v := os.Getenv(fmt.Sprintf("%s_V%d", masterKeyEnv, ver)); v != "" {
			keys[ver] = v
		}
	}
	return keys
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("5s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}
