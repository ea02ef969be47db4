package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CrawlConfig represents the crawl section of the config file. Durations
// are Go duration strings such as "20s".
type CrawlConfig struct {
	BaseURL            string `yaml:"base_url"`
	UserAgent          string `yaml:"user_agent"`
	Timeout            string `yaml:"timeout"`
	RetryWait          string `yaml:"retry_wait"`
	RequestInterval    string `yaml:"request_interval"`
	MaxOtherCategories *int   `yaml:"max_other_categories"`
}

// FileConfig represents the structure of ~/.emargo/config.yaml.
type FileConfig struct {
	Crawl    CrawlConfig `yaml:"crawl"`
	Output   string      `yaml:"output"`
	CacheDSN string      `yaml:"cache_dsn"`
	LogLevel string      `yaml:"log_level"`
}

// DefaultConfigPath returns ~/.emargo/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".emargo", "config.yaml"), nil
}

// LoadConfigFile loads configuration from ~/.emargo/config.yaml. Returns nil
// if the file doesn't exist (not an error). Returns error if the file exists
// but cannot be parsed.
func LoadConfigFile() (*FileConfig, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFileFrom(configPath)
}

// LoadConfigFileFrom loads configuration from configPath with the same rules
// as LoadConfigFile.
func LoadConfigFileFrom(configPath string) (*FileConfig, error) {
	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}
