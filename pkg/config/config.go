// Package config loads process configuration from an optional YAML file
// layered under environment variables, the way pkg/config/loader.go and
// pkg/config/env.go do in the reference codebase, simplified to a single
// static load (no dynamic provider watch — this service has no hot-reload
// requirement).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every recognized environment key from SPEC_FULL.md §6.5.
type Config struct {
	APIHost string `yaml:"api_host"`
	APIPort int    `yaml:"api_port"`

	UploadDir     string `yaml:"upload_dir"`
	MaxUploadByte int64  `yaml:"max_upload_bytes"`

	LLMBaseURL   string `yaml:"llm_base_url"`
	LLMAPIKey    string `yaml:"llm_api_key"`
	LLMTimeoutS  int    `yaml:"llm_timeout_s"`

	CORSOrigins []string `yaml:"cors_origins"`

	JWTSecret                string `yaml:"jwt_secret"`
	AuthRegistrationEnabled  bool   `yaml:"auth_registration_enabled"`

	MetricsEnabled bool   `yaml:"metrics_enabled"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
}

// Defaults returns the configuration defaults listed in SPEC_FULL.md §6.5.
func Defaults() *Config {
	return &Config{
		APIHost:                 "0.0.0.0",
		APIPort:                 8000,
		UploadDir:               "./uploads",
		MaxUploadByte:           52_428_800,
		LLMTimeoutS:             300,
		CORSOrigins:             []string{"http://localhost:5173", "http://localhost:3000"},
		AuthRegistrationEnabled: true,
		MetricsEnabled:          true,
		LogLevel:                "info",
		LogFormat:               "text",
	}
}

// Load reads an optional YAML file at path (ignored if empty or missing),
// applies a .env file if present, then overlays process environment
// variables, following the precedence file < .env < real environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			expanded := expandEnvVars(string(raw))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	strVar(&c.APIHost, "API_HOST")
	intVar(&c.APIPort, "API_PORT")
	strVar(&c.UploadDir, "UPLOAD_DIR")
	int64Var(&c.MaxUploadByte, "MAX_UPLOAD_BYTES")
	strVar(&c.LLMBaseURL, "LLM_BASE_URL")
	strVar(&c.LLMAPIKey, "LLM_API_KEY")
	intVar(&c.LLMTimeoutS, "LLM_TIMEOUT_S")
	strVar(&c.JWTSecret, "JWT_SECRET")
	boolVar(&c.AuthRegistrationEnabled, "AUTH_REGISTRATION_ENABLED")
	boolVar(&c.MetricsEnabled, "METRICS_ENABLED")
	strVar(&c.LogLevel, "LOG_LEVEL")
	strVar(&c.LogFormat, "LOG_FORMAT")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = strings.Split(v, ",")
	}
}

func strVar(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func intVar(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func int64Var(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func boolVar(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
