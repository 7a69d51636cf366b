package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	APIKey       string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL      string  `mapstructure:"base_url" yaml:"base_url"`
	DefaultModel string  `mapstructure:"default_model" yaml:"default_model"`
	MaxTokens    int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Query execution
	QueryBackend string `mapstructure:"query_backend" yaml:"query_backend"`
	QueryDSN     string `mapstructure:"query_dsn" yaml:"query_dsn"`
	QueryURL     string `mapstructure:"query_url" yaml:"query_url"`
	QueryMaxRows int    `mapstructure:"query_max_rows" yaml:"query_max_rows"`

	ListenAddr        string `mapstructure:"listen_addr" yaml:"listen_addr"`
	ReportsDir        string `mapstructure:"reports_dir" yaml:"reports_dir"`
	ContextTokenLimit int    `mapstructure:"context_token_limit" yaml:"context_token_limit"`
}

const (
	envPrefix = "DATANAV"
	dirName   = ".datanav"
)

var defaults = map[string]any{
	"base_url":            "https://openrouter.ai/api/v1",
	"default_model":       "google/gemini-2.5-flash",
	"max_tokens":          4096,
	"temperature":         0.7,
	"http_timeout_sec":    60,
	"retry_max_attempts":  3,
	"retry_base_delay_ms": 500,
	"retry_max_delay_ms":  4000,
	"log_level":           "info",
	"log_format":          "console",
	"query_backend":       "sqlite",
	"query_max_rows":      1000,
	"listen_addr":         ":8080",
	"context_token_limit": 6000,
}

// Keys lists every configuration key in sorted order.
func Keys() []string {
	keys := []string{"api_key", "query_dsn", "query_url", "reports_dir"}
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dir returns ~/.datanav.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datanav/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
// A .env file in the working directory is read first; it never overrides
// variables already set in the environment.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	// keys without a default still need binding for AutomaticEnv + Unmarshal
	for _, k := range []string{"api_key", "query_dsn", "query_url", "reports_dir"} {
		_ = v.BindEnv(k)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ReportsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.ReportsDir = filepath.Join(dir, "reports")
	}
	return &c, nil
}

// Set assigns a string value to key, converting it to the field's type.
func (c *Global) Set(key, value string) error {
	atoi := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		if n < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
		*dst = n
		return nil
	}
	switch key {
	case "api_key":
		c.APIKey = value
	case "base_url":
		c.BaseURL = value
	case "default_model":
		c.DefaultModel = value
	case "max_tokens":
		return atoi(&c.MaxTokens)
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("temperature must be a number between 0 and 2")
		}
		c.Temperature = f
	case "http_timeout_sec":
		return atoi(&c.HTTPTimeoutSec)
	case "retry_max_attempts":
		return atoi(&c.RetryMaxAttempts)
	case "retry_base_delay_ms":
		return atoi(&c.RetryBaseDelayMs)
	case "retry_max_delay_ms":
		return atoi(&c.RetryMaxDelayMs)
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("log_level must be debug, info, warn or error")
		}
	case "log_format":
		if value != "console" && value != "json" {
			return fmt.Errorf("log_format must be console or json")
		}
		c.LogFormat = value
	case "query_backend":
		switch value {
		case "sqlite", "postgres", "http":
			c.QueryBackend = value
		default:
			return fmt.Errorf("query_backend must be sqlite, postgres or http")
		}
	case "query_dsn":
		c.QueryDSN = value
	case "query_url":
		c.QueryURL = value
	case "query_max_rows":
		return atoi(&c.QueryMaxRows)
	case "listen_addr":
		c.ListenAddr = value
	case "reports_dir":
		c.ReportsDir = value
	case "context_token_limit":
		return atoi(&c.ContextTokenLimit)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Masked returns a copy safe to print.
func (c Global) Masked() Global {
	c.APIKey = MaskSecret(c.APIKey)
	c.QueryDSN = MaskSecret(c.QueryDSN)
	return c
}

// MaskSecret keeps the last four characters of s.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
