package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"rplog/internal/report"
	"rplog/pkg/logger"
)

// Config represents the runner configuration structure
type Config struct {
	// Reporting backend
	Endpoint    string `yaml:"endpoint"`    // gRPC server address, host:port
	APIKey      string `yaml:"api_key"`     // bearer token sent with every call
	Project     string `yaml:"project"`     // project the launch belongs to
	UseTLS      *bool  `yaml:"use_tls"`     // nil: decided from the endpoint
	Compression string `yaml:"compression"` // none, gzip or zstd
	RPCTimeout  int    `yaml:"rpc_timeout"` // per-call timeout (seconds)

	// Launch
	Launch      string `yaml:"launch"`      // launch name
	Description string `yaml:"description"` // launch description
	FilesDir    string `yaml:"files_dir"`   // directory holding the attachment files

	// Optional configuration (with default values)
	LogLevel    string `yaml:"log_level"`    // Log level, default info
	MetricsAddr string `yaml:"metrics_addr"` // serve Prometheus metrics here when set
	DryRun      bool   `yaml:"dry_run"`      // record events in memory instead of sending them
}

// LoadFromFile loads configuration from YAML file
func LoadFromFile(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// applyDefaults applies default configuration values
func (c *Config) applyDefaults() {
	if c.Project == "" {
		c.Project = "default_personal"
	}
	if c.Launch == "" {
		c.Launch = "Logging examples"
	}
	if c.FilesDir == "" {
		c.FilesDir = "files"
	}
	if c.Compression == "" {
		c.Compression = "none"
	}
	if c.RPCTimeout == 0 {
		c.RPCTimeout = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !c.DryRun {
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint cannot be empty")
		}
		if _, _, err := net.SplitHostPort(c.Endpoint); err != nil {
			return fmt.Errorf("endpoint must be host:port: %w", err)
		}
		if c.APIKey == "" {
			return fmt.Errorf("API key cannot be empty")
		}
	}
	if c.RPCTimeout < 0 {
		return fmt.Errorf("rpc_timeout must not be negative")
	}
	switch c.Compression {
	case "none", "gzip", report.ZstdCompressorName:
	default:
		return fmt.Errorf("unsupported compression: %s", c.Compression)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// CallTimeout returns the per-call timeout as a duration
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.RPCTimeout) * time.Second
}
