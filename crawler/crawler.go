package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/pevans/emargo/blob"
	"golang.org/x/time/rate"
)

// ItemTypesPath is the page listing every item category.
const ItemTypesPath = "/przedmioty/"

// Crawler walks the item database and collects one container per item page.
// It fetches one page at a time.
type Crawler struct {
	config  *Config
	fetcher *Fetcher
	base    *url.URL
	limiter *rate.Limiter
	results []*blob.Container
}

// New creates a crawler. The configuration is validated first.
func New(cfg *Config, fetcher *Fetcher) (*Crawler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &Crawler{
		config:  cfg,
		fetcher: fetcher,
		base:    base,
		limiter: rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
	}, nil
}

// Run crawls every equipment category and then the other categories. It
// stops at the first error; nothing collected so far is returned in that
// case.
func (c *Crawler) Run(ctx context.Context) ([]*blob.Container, error) {
	logger := log.FromContext(ctx).WithPrefix("crawler")
	logger.Info("crawl starting", "base", c.config.BaseURL, "run", c.fetcher.RunID())

	c.results = nil

	index, err := c.fetcher.FetchHTML(ctx, c.resolve(ItemTypesPath))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item types page: %w", err)
	}

	if err := c.crawlEquipment(ctx, index); err != nil {
		return nil, err
	}
	if err := c.crawlOther(ctx, index); err != nil {
		return nil, err
	}

	logger.Info("crawl finished", "pages", len(c.results))
	return c.results, nil
}

// crawlEquipment processes the per-profession equipment categories.
func (c *Crawler) crawlEquipment(ctx context.Context, index *goquery.Document) error {
	logger := log.FromContext(ctx).WithPrefix("crawler")

	for _, category := range EquipmentCategories(index) {
		listing, err := c.fetcher.FetchHTML(ctx, c.resolve(category.Href))
		if err != nil {
			return fmt.Errorf("failed to fetch category %s: %w", category.Href, err)
		}

		items := ItemLinks(listing)
		for i, item := range items {
			logger.Info("scraping item",
				"profession", Profession(category.Href),
				"type", category.Text,
				"count", fmt.Sprintf("%d/%d", i+1, len(items)),
			)
			if err := c.collect(ctx, item, category.Text); err != nil {
				return err
			}
		}
	}

	return nil
}

// crawlOther processes the categories that are not per-profession
// equipment, following their pagination.
func (c *Crawler) crawlOther(ctx context.Context, index *goquery.Document) error {
	logger := log.FromContext(ctx).WithPrefix("crawler")

	categories := OtherCategories(index)
	if limit := c.config.MaxOtherCategories; limit > 0 && len(categories) > limit {
		categories = categories[:limit]
	}

	for _, category := range categories {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		listing, err := c.fetcher.FetchHTML(ctx, c.resolve(category.Href))
		if err != nil {
			return fmt.Errorf("failed to fetch category %s: %w", category.Href, err)
		}

		lastPage, err := LastPage(listing)
		if err != nil {
			return fmt.Errorf("category %s: %w", category.Href, err)
		}
		logger.Info("scraping category", "type", category.Text, "pages", lastPage)

		for page := 1; page <= lastPage; page++ {
			if page > 1 {
				if err := c.limiter.Wait(ctx); err != nil {
					return err
				}
				pageURL := c.resolve(strings.TrimSuffix(category.Href, "/") + fmt.Sprintf("/strona-%d", page))
				listing, err = c.fetcher.FetchHTML(ctx, pageURL)
				if err != nil {
					return fmt.Errorf("failed to fetch %s: %w", pageURL, err)
				}
			}

			for _, item := range UniqueItemLinks(listing) {
				if err := c.collect(ctx, item, category.Text); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// collect scrapes one item page and appends its container to the results.
func (c *Crawler) collect(ctx context.Context, item Link, itemType string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	container, err := c.ScrapeItem(ctx, c.resolve(item.Href), itemType)
	if err != nil {
		return err
	}

	c.results = append(c.results, container)
	return nil
}

// ScrapeItem fetches an item page and turns its data blob into a normalized
// container.
func (c *Crawler) ScrapeItem(ctx context.Context, itemURL, itemType string) (*blob.Container, error) {
	doc, err := c.fetcher.FetchHTML(ctx, itemURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item %s: %w", itemURL, err)
	}

	container, report, err := ProcessPage(doc, itemType)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", itemURL, err)
	}

	if len(report.Dropped) > 0 {
		log.FromContext(ctx).WithPrefix("crawler").Debug("dropped stat tokens", "url", itemURL, "tokens", report.Dropped)
	}
	return container, nil
}

// ProcessPage locates the data blob of an item page, decodes it and
// normalizes its items under itemType.
func ProcessPage(doc *goquery.Document, itemType string) (*blob.Container, *blob.Report, error) {
	text, err := FindBlobScript(doc)
	if err != nil {
		return nil, nil, err
	}

	container, err := blob.Decode(text)
	if err != nil {
		return nil, nil, err
	}

	report, err := blob.NormalizeItems(container, itemType)
	if err != nil {
		return nil, nil, err
	}

	return container, report, nil
}

// resolve turns an href from the site into an absolute URL.
func (c *Crawler) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return c.base.String() + href
	}
	return c.base.ResolveReference(ref).String()
}
