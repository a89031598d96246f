package config

import (
	"fmt"
	"path/filepath"
)

const (
	// DefaultServerConfigFile is read when no config path is given.
	DefaultServerConfigFile = "server_config.json"

	defaultPort              = 8888
	defaultConfigRoot        = ".sdm_cs"
	defaultDBFile            = "catalogue_service.db"
	defaultSeedDatasetPath   = "init_dataset.json"
	defaultSeedCDNPath       = "init_cdn.json"
	defaultSessionTTLSeconds = 3600
)

// ServerConfig configures the catalogue service.
type ServerConfig struct {
	Port              int    `json:"port"`
	DBPath            string `json:"db_path"`
	ConfigRoot        string `json:"config_root"`
	SeedDatasetPath   string `json:"seed_dataset_path"`
	SeedCDNPath       string `json:"seed_cdn_path"`
	LogLevel          string `json:"log_level"`
	SessionTTLSeconds int    `json:"session_ttl_seconds"`
}

// DefaultServerConfig returns the built-in server defaults. DBPath is left
// empty; LoadServer places it under ConfigRoot unless db_path is given.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:              defaultPort,
		ConfigRoot:        defaultConfigRoot,
		SeedDatasetPath:   defaultSeedDatasetPath,
		SeedCDNPath:       defaultSeedCDNPath,
		LogLevel:          "info",
		SessionTTLSeconds: defaultSessionTTLSeconds,
	}
}

// LoadServer loads the server configuration. An empty path falls back to
// DefaultServerConfigFile, which may be absent; an explicit path must exist.
// Without a db_path the database lives in config_root. Filesystem paths are
// made absolute.
func LoadServer(path string, overrides map[string]any) (*ServerConfig, error) {
	required := path != ""
	if path == "" {
		path = DefaultServerConfigFile
	}

	cfg, err := load(path, required, DefaultServerConfig(), overrides)
	if err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.ConfigRoot, defaultDBFile)
	}

	for _, p := range []*string{&cfg.DBPath, &cfg.ConfigRoot, &cfg.SeedDatasetPath, &cfg.SeedCDNPath} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve path %s: %w", *p, err)
		}
		*p = abs
	}
	return cfg, nil
}

// Address returns the listen address for the configured port.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
