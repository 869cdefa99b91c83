// Package config handles loading and managing msgreader configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultMaxFileBytes is the default limit on input .msg files.
const DefaultMaxFileBytes int64 = 128 << 20

// Config represents the msgreader configuration.
type Config struct {
	Data   DataConfig   `toml:"data"`
	Parse  ParseConfig  `toml:"parse"`
	Export ExportConfig `toml:"export"`
	Server ServerConfig `toml:"server"`

	// Computed paths (not from config file)
	HomeDir string `toml:"-"`
}

// DataConfig holds data storage configuration.
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// ParseConfig bounds the decoder.
type ParseConfig struct {
	MaxFileBytes int64 `toml:"max_file_bytes"` // Refuse larger input files
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	AttachmentsDir string `toml:"attachments_dir"`
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort         int      `toml:"api_port"`         // HTTP server port (default: 8080)
	BindAddr        string   `toml:"bind_addr"`        // Listen address (default: 127.0.0.1)
	APIKey          string   `toml:"api_key"`          // API authentication key
	MaxUploadBytes  int64    `toml:"max_upload_bytes"` // Multipart upload limit
	CORSOrigins     []string `toml:"cors_origins"`
	CORSCredentials bool     `toml:"cors_credentials"`
	CORSMaxAge      int      `toml:"cors_max_age"`
}

// ErrInsecureBind is returned by ValidateSecure.
var ErrInsecureBind = errors.New("refusing to listen on a non-loopback address without [server] api_key")

// ValidateSecure rejects a server exposed beyond loopback without an API key.
func (s ServerConfig) ValidateSecure() error {
	if s.APIKey != "" || isLoopback(s.BindAddr) {
		return nil
	}
	return fmt.Errorf("%w (bind_addr %q)", ErrInsecureBind, s.BindAddr)
}

func isLoopback(addr string) bool {
	if addr == "" || addr == "localhost" {
		return true
	}
	ip := net.ParseIP(addr)
	return ip != nil && ip.IsLoopback()
}

// DefaultHome returns the default msgreader home directory.
// Respects MSGREADER_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("MSGREADER_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".msgreader"
	}
	return filepath.Join(home, ".msgreader")
}

// Load reads the configuration from path. An empty path means
// config.toml under homeDir, and an empty homeDir means DefaultHome().
// A missing file yields the defaults.
func Load(path, homeDir string) (*Config, error) {
	if homeDir == "" {
		homeDir = DefaultHome()
	}
	homeDir = expandPath(homeDir)
	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		Data:    DataConfig{DataDir: homeDir},
		Parse:   ParseConfig{MaxFileBytes: DefaultMaxFileBytes},
		Server: ServerConfig{
			APIPort:        8080,
			BindAddr:       "127.0.0.1",
			MaxUploadBytes: DefaultMaxFileBytes,
		},
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Data.DataDir = expandPath(cfg.Data.DataDir)
	cfg.Export.AttachmentsDir = expandPath(cfg.Export.AttachmentsDir)
	if cfg.Parse.MaxFileBytes < 0 {
		return nil, fmt.Errorf("decode config: parse.max_file_bytes must not be negative")
	}
	return cfg, nil
}

// AttachmentsDir returns the default attachment export directory.
func (c *Config) AttachmentsDir() string {
	if c.Export.AttachmentsDir != "" {
		return c.Export.AttachmentsDir
	}
	return filepath.Join(c.Data.DataDir, "attachments")
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) > 1 && path[1] != '/' && path[1] != filepath.Separator {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
