package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/pevans/emargo/cache"
	"github.com/pevans/emargo/config"
	"github.com/pevans/emargo/crawler"
	"github.com/pevans/emargo/output"
	"github.com/spf13/cobra"
)

func newCrawlCmd(settings *config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl every item category and write the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, settings)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&settings.Crawl.BaseURL, "base-url", settings.Crawl.BaseURL, "Site to crawl (EMARGO_BASE_URL)")
	flags.StringVarP(&settings.Output, "output", "o", settings.Output, "Output file (EMARGO_OUTPUT)")
	flags.StringVar(&settings.Crawl.UserAgent, "user-agent", settings.Crawl.UserAgent, "User-Agent header (EMARGO_USER_AGENT)")
	flags.DurationVar(&settings.Crawl.Timeout, "timeout", settings.Crawl.Timeout, "Timeout per request (EMARGO_TIMEOUT)")
	flags.DurationVar(&settings.Crawl.RetryWait, "retry-wait", settings.Crawl.RetryWait, "Pause before retrying a failed page (EMARGO_RETRY_WAIT)")
	flags.DurationVar(&settings.Crawl.RequestInterval, "request-interval", settings.Crawl.RequestInterval, "Minimum time between page requests (EMARGO_REQUEST_INTERVAL)")
	flags.IntVar(&settings.Crawl.MaxOtherCategories, "max-other-categories", settings.Crawl.MaxOtherCategories, "Number of non-equipment categories to crawl, 0 for all (EMARGO_MAX_OTHER_CATEGORIES)")
	flags.StringVar(&settings.CacheDSN, "cache", settings.CacheDSN, "Path to page cache database, empty to disable (EMARGO_CACHE_DSN)")

	return cmd
}

func runCrawl(cmd *cobra.Command, settings *config.Settings) error {
	ctx := cmd.Context()
	logger := log.FromContext(ctx)

	cfg := settings.Crawl
	if err := cfg.Validate(); err != nil {
		return err
	}

	var store crawler.PageStore
	if settings.CacheDSN != "" {
		logger.Info("opening page cache", "path", settings.CacheDSN)
		pageCache, err := cache.NewPageCache(settings.CacheDSN)
		if err != nil {
			return fmt.Errorf("failed to open page cache: %w", err)
		}
		defer pageCache.Close()
		store = pageCache
	}

	fetcher := crawler.NewFetcher(&cfg, store)
	c, err := crawler.New(&cfg, fetcher)
	if err != nil {
		return err
	}

	results, err := c.Run(ctx)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	if err := output.WriteFile(settings.Output, results); err != nil {
		return err
	}

	logger.Info("crawl finished", "items", len(results), "output", settings.Output)
	return nil
}
