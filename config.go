package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emmanuel-e2/ble-parser/decoders"
	"github.com/emmanuel-e2/ble-parser/index"
)

// Config is the parser service configuration. It is read from the YAML file
// named by PARSER_CONFIG (optional), then overridden by environment variables.
type Config struct {
	HTTPPort               string         `yaml:"http_port"`
	LogPayloadPreviewChars int            `yaml:"log_payload_preview_chars"`
	Decode                 DecodeConfig   `yaml:"decode"`
	Libraries              []string       `yaml:"libraries"`
	Indices                []index.Entry  `yaml:"indices"`
	IndexFiles             []string       `yaml:"index_files"`
	IndexFromDB            bool           `yaml:"index_from_db"`
	Callback               CallbackConfig `yaml:"callback"`
	DB                     DBConfig       `yaml:"db"`
}

// DecodeConfig holds the default advlib options for /message and /decode.
// Requests may override them.
type DecodeConfig struct {
	IgnoreProtocolOverhead bool `yaml:"ignore_protocol_overhead"`
	PayloadOnly            bool `yaml:"payload_only"`
}

// CallbackConfig tunes the Pub/Sub callback publisher.
type CallbackConfig struct {
	DelayThreshold time.Duration `yaml:"delay_threshold"`
	Timeout        time.Duration `yaml:"timeout"`
}

// DBConfig locates the Cloud SQL Postgres instance. The password is only
// taken from the environment.
type DBConfig struct {
	User      string `yaml:"user"`
	Password  string `yaml:"-"`
	Name      string `yaml:"name"`
	Instance  string `yaml:"instance"`
	PrivateIP bool   `yaml:"private_ip"`
	MaxConns  int32  `yaml:"max_conns"`
}

func (d DBConfig) Validate() error {
	if d.User == "" || d.Password == "" || d.Name == "" || d.Instance == "" {
		return fmt.Errorf("missing DB envs (DB_USER/DB_PASSWORD/DB_NAME/INSTANCE_CONNECTION_NAME)")
	}
	if d.MaxConns <= 0 {
		return fmt.Errorf("db max_conns must be > 0, got %d", d.MaxConns)
	}
	return nil
}

// DSN is the pgx connection string; the host is supplied by the dialer.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("user=%s password=%s database=%s sslmode=disable", d.User, d.Password, d.Name)
}

func defaultConfig() *Config {
	return &Config{
		HTTPPort:               "8080",
		LogPayloadPreviewChars: 32,
		Decode:                 DecodeConfig{PayloadOnly: true},
		Callback: CallbackConfig{
			DelayThreshold: 50 * time.Millisecond,
			Timeout:        10 * time.Second,
		},
		DB: DBConfig{MaxConns: 10},
	}
}

// loadConfig builds the configuration from PARSER_CONFIG and the environment.
func loadConfig() (*Config, error) {
	cfg := defaultConfig()
	if path := os.Getenv("PARSER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.HTTPPort = getenv("HTTPPORT", cfg.HTTPPort)
	cfg.LogPayloadPreviewChars = getenvInt("LOG_PAYLOAD_PREVIEW_CHARS", cfg.LogPayloadPreviewChars)
	cfg.Decode.IgnoreProtocolOverhead = getenvBool("DECODE_IGNORE_PROTOCOL_OVERHEAD", cfg.Decode.IgnoreProtocolOverhead)
	cfg.Decode.PayloadOnly = getenvBool("DECODE_PAYLOAD_ONLY", cfg.Decode.PayloadOnly)
	cfg.IndexFromDB = getenvBool("INDEX_FROM_DB", cfg.IndexFromDB)
	cfg.DB.User = getenv("DB_USER", cfg.DB.User)
	cfg.DB.Password = os.Getenv("DB_PASSWORD")
	cfg.DB.Name = getenv("DB_NAME", cfg.DB.Name)
	cfg.DB.Instance = getenv("INSTANCE_CONNECTION_NAME", cfg.DB.Instance)
	cfg.DB.PrivateIP = cfg.DB.PrivateIP || os.Getenv("PRIVATE_IP") != ""
	if v := os.Getenv("DECODER_LIBRARIES"); v != "" {
		cfg.Libraries = splitList(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http_port must not be empty")
	}
	if c.LogPayloadPreviewChars < 0 {
		return fmt.Errorf("log_payload_preview_chars must be >= 0, got %d", c.LogPayloadPreviewChars)
	}
	if _, err := decoders.Libraries(c.Libraries); err != nil {
		return fmt.Errorf("libraries: %w", err)
	}
	if _, err := index.NewStatic(c.Indices); err != nil {
		return fmt.Errorf("indices: %w", err)
	}
	if c.Callback.Timeout < 0 || c.Callback.DelayThreshold < 0 {
		return fmt.Errorf("callback durations must be >= 0")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := fmt.Sscanf(v, "%d", &def); err == nil && n == 1 {
			return def
		}
	}
	return def
}

func getenvBool(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
