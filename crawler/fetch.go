package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pevans/emargo/cache"
)

// PageStore keeps fetched pages between runs. *cache.PageCache implements
// it.
type PageStore interface {
	Get(url string) (*cache.Page, error)
	Put(page cache.Page) error
}

// StatusError is returned when the site keeps answering with a status other
// than 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s (%s)", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Fetcher downloads pages one at a time. A non-200 response is retried once
// after the configured wait.
type Fetcher struct {
	client    *resty.Client
	retryWait time.Duration
	store     PageStore
	runID     uuid.UUID
}

// NewFetcher creates a fetcher for one crawl run. store may be nil.
func NewFetcher(cfg *Config, store PageStore) *Fetcher {
	client := resty.New()
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetTimeout(cfg.Timeout)

	return &Fetcher{
		client:    client,
		retryWait: cfg.RetryWait,
		store:     store,
		runID:     uuid.New(),
	}
}

// RunID identifies the crawl run this fetcher belongs to.
func (f *Fetcher) RunID() uuid.UUID {
	return f.runID
}

// FetchHTML fetches url and parses it with goquery.
func (f *Fetcher) FetchHTML(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := f.FetchBody(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// FetchBody returns the body of url, from the page store when it holds a
// copy.
func (f *Fetcher) FetchBody(ctx context.Context, url string) ([]byte, error) {
	logger := log.FromContext(ctx).WithPrefix("fetch")

	if f.store != nil {
		page, err := f.store.Get(url)
		if err != nil {
			logger.Warn("page cache lookup failed", "url", url, "err", err)
		} else if page != nil {
			logger.Debug("cache hit", "url", url)
			return page.Body, nil
		}
	}

	attempt := 0
	fetch := func() ([]byte, error) {
		attempt++
		resp, err := f.client.R().SetContext(ctx).Get(url)
		if err != nil {
			// Transport failures and cancellation are not retried
			return nil, backoff.Permanent(fmt.Errorf("failed to fetch URL: %w", err))
		}
		if resp.StatusCode() != http.StatusOK {
			if attempt == 1 {
				logger.Warn("unexpected status, retrying", "url", url, "status", resp.StatusCode(), "wait", f.retryWait)
			}
			return nil, &StatusError{URL: url, StatusCode: resp.StatusCode()}
		}
		return resp.Body(), nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(f.retryWait), 1), ctx)
	body, err := backoff.RetryWithData(fetch, policy)
	if err != nil {
		return nil, err
	}

	if f.store != nil {
		page := cache.Page{
			URL:        url,
			Body:       body,
			StatusCode: http.StatusOK,
			RunID:      f.runID,
			FetchedAt:  time.Now(),
		}
		if err := f.store.Put(page); err != nil {
			logger.Warn("failed to cache page", "url", url, "err", err)
		}
	}

	return body, nil
}
