package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Submit.RetryIntervalMS == 0 {
		cfg.Submit.RetryIntervalMS = 5000
	}
	if cfg.Submit.MaxRetries == 0 {
		cfg.Submit.MaxRetries = 5
	}
	if cfg.Fabric.EvaluateTimeoutMS == 0 {
		cfg.Fabric.EvaluateTimeoutMS = 5000
	}
	if cfg.Fabric.EndorseTimeoutMS == 0 {
		cfg.Fabric.EndorseTimeoutMS = 15000
	}
	if cfg.Fabric.SubmitTimeoutMS == 0 {
		cfg.Fabric.SubmitTimeoutMS = 5000
	}
	if cfg.Fabric.Channel == "" {
		cfg.Fabric.Channel = "mychannel"
	}
	if cfg.Fabric.Chaincode == "" {
		cfg.Fabric.Chaincode = "basic"
	}

	return &cfg, nil
}
