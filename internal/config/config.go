// Package config handles configuration loading for the AS2 extension.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax), so credentials can be
// injected at runtime.
//
// # Configuration Sections
//
//   - dispatch: worker pool settings (poll interval, workers, batch size)
//   - storage: message state backend (memory or MongoDB)
//   - pmodes: directory of P-Mode XML documents
//   - wiring: path of the stage wiring file (see LoadWiring)
//
// # Example Configuration
//
//	dispatch:
//	  pollInterval: 10s
//	  workers: 4
//	  batchSize: 10
//
//	storage:
//	  type: mongodb
//	  mongodb:
//	    uri: ${MONGODB_URI}
//	    database: as2
//
//	pmodes:
//	  dir: /etc/hb2b/pmodes
//
//	wiring:
//	  file: /etc/hb2b/wiring.yaml
//
// See [Load] for loading configuration from a file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Dispatch DispatchConfig `yaml:"dispatch"`
	Storage  StorageConfig  `yaml:"storage"`
	PModes   PModesConfig   `yaml:"pmodes"`
	Wiring   WiringConfig   `yaml:"wiring"`
}

// DispatchConfig holds worker pool settings
type DispatchConfig struct {
	PollInterval time.Duration `yaml:"pollInterval"`
	Workers      int           `yaml:"workers"`
	BatchSize    int           `yaml:"batchSize"`
}

// StorageConfig holds message state backend settings
type StorageConfig struct {
	Type    string        `yaml:"type"` // "memory" or "mongodb"
	MongoDB MongoDBConfig `yaml:"mongodb"`
}

// MongoDBConfig holds MongoDB connection settings
type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// PModesConfig locates the operator-supplied P-Mode documents
type PModesConfig struct {
	Dir string `yaml:"dir"`
}

// WiringConfig locates the stage wiring file
type WiringConfig struct {
	File string `yaml:"file"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Dispatch.PollInterval == 0 {
		c.Dispatch.PollInterval = 10 * time.Second
	}
	if c.Dispatch.Workers == 0 {
		c.Dispatch.Workers = 4
	}
	if c.Dispatch.BatchSize == 0 {
		c.Dispatch.BatchSize = 10
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "memory"
	}
	if c.Storage.MongoDB.Database == "" {
		c.Storage.MongoDB.Database = "as2"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Type {
	case "memory":
		// No further settings required
	case "mongodb":
		if c.Storage.MongoDB.URI == "" {
			return fmt.Errorf("storage.mongodb.uri is required")
		}
	default:
		return fmt.Errorf("storage.type must be 'memory' or 'mongodb', got '%s'", c.Storage.Type)
	}
	return nil
}
