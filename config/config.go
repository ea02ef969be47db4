package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pevans/emargo/crawler"
)

// Settings is the resolved configuration of one emargo run. Values come from
// the defaults, then the config file, then EMARGO_* environment variables;
// command-line flags are applied last by the CLI.
type Settings struct {
	Crawl    crawler.Config
	Output   string
	CacheDSN string
	LogLevel string
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Crawl:    *crawler.DefaultConfig(),
		Output:   "emargo.json",
		LogLevel: "info",
	}
}

// ApplyFile overlays the values set in fc. A nil fc changes nothing.
func (s *Settings) ApplyFile(fc *FileConfig) error {
	if fc == nil {
		return nil
	}

	setString(&s.Crawl.BaseURL, fc.Crawl.BaseURL)
	setString(&s.Crawl.UserAgent, fc.Crawl.UserAgent)
	setString(&s.Output, fc.Output)
	setString(&s.CacheDSN, fc.CacheDSN)
	setString(&s.LogLevel, fc.LogLevel)

	if err := setDuration(&s.Crawl.Timeout, fc.Crawl.Timeout, "crawl.timeout"); err != nil {
		return err
	}
	if err := setDuration(&s.Crawl.RetryWait, fc.Crawl.RetryWait, "crawl.retry_wait"); err != nil {
		return err
	}
	if err := setDuration(&s.Crawl.RequestInterval, fc.Crawl.RequestInterval, "crawl.request_interval"); err != nil {
		return err
	}
	if fc.Crawl.MaxOtherCategories != nil {
		s.Crawl.MaxOtherCategories = *fc.Crawl.MaxOtherCategories
	}

	return nil
}

// ApplyEnv overlays the EMARGO_* variables returned by getenv. Empty
// variables are ignored.
func (s *Settings) ApplyEnv(getenv func(string) string) error {
	setString(&s.Crawl.BaseURL, getenv("EMARGO_BASE_URL"))
	setString(&s.Crawl.UserAgent, getenv("EMARGO_USER_AGENT"))
	setString(&s.Output, getenv("EMARGO_OUTPUT"))
	setString(&s.CacheDSN, getenv("EMARGO_CACHE_DSN"))
	setString(&s.LogLevel, getenv("EMARGO_LOG_LEVEL"))

	if err := setDuration(&s.Crawl.Timeout, getenv("EMARGO_TIMEOUT"), "EMARGO_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&s.Crawl.RetryWait, getenv("EMARGO_RETRY_WAIT"), "EMARGO_RETRY_WAIT"); err != nil {
		return err
	}
	if err := setDuration(&s.Crawl.RequestInterval, getenv("EMARGO_REQUEST_INTERVAL"), "EMARGO_REQUEST_INTERVAL"); err != nil {
		return err
	}
	if value := getenv("EMARGO_MAX_OTHER_CATEGORIES"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid EMARGO_MAX_OTHER_CATEGORIES: %w", err)
		}
		s.Crawl.MaxOtherCategories = n
	}

	return nil
}

// Load resolves the settings from the defaults, the config file at
// configPath (the default location when empty) and the environment.
func Load(configPath string, getenv func(string) string) (Settings, error) {
	settings := Default()

	var fc *FileConfig
	var err error
	if configPath == "" {
		fc, err = LoadConfigFile()
	} else {
		fc, err = LoadConfigFileFrom(configPath)
	}
	if err != nil {
		return settings, err
	}

	if err := settings.ApplyFile(fc); err != nil {
		return settings, err
	}
	if err := settings.ApplyEnv(getenv); err != nil {
		return settings, err
	}

	return settings, nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, value, name string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = d
	return nil
}
