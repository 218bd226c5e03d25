package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config covers the whole server. Every field has a default, can be set in
// the optional YAML file, and can be overridden by environment variable.
type Config struct {
	ListenAddr   string `yaml:"listen_addr"`
	DBPath       string `yaml:"db_path"`
	GenderizeURL string `yaml:"genderize_url"`
	CORSOrigin   string `yaml:"cors_origin"`

	CacheTTLSeconds        int `yaml:"cache_ttl_seconds"`
	JanitorIntervalSeconds int `yaml:"janitor_interval_seconds"`
	ActivitySize           int `yaml:"activity_size"`

	// Password for the bootstrap "admin" UI user, only used on first start.
	AdminPassword string `yaml:"admin_password"`
}

func Default() Config {
	return Config{
		ListenAddr:             ":8080",
		DBPath:                 "answers.db",
		GenderizeURL:           "https://api.genderize.io",
		CORSOrigin:             "*",
		CacheTTLSeconds:        600,
		JanitorIntervalSeconds: 60,
		ActivitySize:           300,
		AdminPassword:          "admin",
	}
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults + env only.
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.ListenAddr = envOr("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DBPath = envOr("ANSWERS_DB_PATH", cfg.DBPath)
	cfg.GenderizeURL = envOr("GENDERIZE_BASE_URL", cfg.GenderizeURL)
	cfg.CORSOrigin = envOr("CORS_ORIGIN", cfg.CORSOrigin)
	cfg.CacheTTLSeconds = envOrInt("CACHE_TTL_SECONDS", cfg.CacheTTLSeconds)
	cfg.JanitorIntervalSeconds = envOrInt("JANITOR_INTERVAL_SECONDS", cfg.JanitorIntervalSeconds)
	cfg.ActivitySize = envOrInt("ACTIVITY_SIZE", cfg.ActivitySize)
	cfg.AdminPassword = envOr("ADMIN_PASSWORD", cfg.AdminPassword)

	return cfg, nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envOrInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
