package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config defines how the crawler talks to the site.
type Config struct {
	// Site root, e.g. http://emargo.pl
	BaseURL string `json:"base_url"`
	// User-Agent header sent with every request
	UserAgent string `json:"user_agent"`
	// Timeout per HTTP request
	Timeout time.Duration `json:"timeout"`
	// Wait before the single retry of a non-200 response
	RetryWait time.Duration `json:"retry_wait"`
	// Minimum delay between two item page requests
	RequestInterval time.Duration `json:"request_interval"`
	// Number of non-equipment categories to crawl; 0 means all of them
	MaxOtherCategories int `json:"max_other_categories"`
}

// DefaultConfig returns the settings the crawler was tuned with.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            "http://emargo.pl",
		UserAgent:          "emargo/1.0 (item database crawler)",
		Timeout:            30 * time.Second,
		RetryWait:          20 * time.Second,
		RequestInterval:    1 * time.Second,
		MaxOtherCategories: 1,
	}
}

// Validate checks the configuration before a crawl starts.
func (c *Config) Validate() error {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return errors.New("base URL must use http or https scheme")
	}
	if base.Host == "" {
		return errors.New("base URL must include a host")
	}

	if c.Timeout < 0 || c.RetryWait < 0 || c.RequestInterval < 0 {
		return errors.New("durations must not be negative")
	}
	if c.MaxOtherCategories < 0 {
		return fmt.Errorf("max other categories must not be negative (got %d)", c.MaxOtherCategories)
	}

	return nil
}
