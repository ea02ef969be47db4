package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// PageCache stores fetched pages in SQLite so a crawl can be replayed without
// hitting the site again.
type PageCache struct {
	db *sql.DB
}

// Page is one cached HTTP response.
type Page struct {
	URL        string    `json:"url"`
	Body       []byte    `json:"body"`
	StatusCode int       `json:"status_code"`
	RunID      uuid.UUID `json:"run_id"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// NewPageCache opens (or creates) the page cache at dbPath.
func NewPageCache(dbPath string) (*PageCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	cache := &PageCache{db: db}
	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return cache, nil
}

// initSchema creates the pages table if it doesn't exist.
func (c *PageCache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		status_code INTEGER NOT NULL,
		run_id TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS pages_run_id ON pages (run_id);
	`

	_, err := c.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (c *PageCache) Close() error {
	return c.db.Close()
}

// Get returns the cached page for url, or nil if it was never stored.
func (c *PageCache) Get(url string) (*Page, error) {
	query := "SELECT url, body, status_code, run_id, fetched_at FROM pages WHERE url = ?"

	var page Page
	var runIDStr, fetchedAtStr string
	err := c.db.QueryRow(query, url).Scan(&page.URL, &page.Body, &page.StatusCode, &runIDStr, &fetchedAtStr)
	if err == sql.ErrNoRows {
		return nil, nil // Not cached (not an error)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query page: %w", err)
	}

	runID, err := uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid run ID for %s: %w", url, err)
	}
	page.RunID = runID
	page.FetchedAt = parseTime(fetchedAtStr)

	return &page, nil
}

// Put stores page, replacing any earlier copy of the same URL.
func (c *PageCache) Put(page Page) error {
	if page.FetchedAt.IsZero() {
		page.FetchedAt = time.Now()
	}

	query := `
		INSERT OR REPLACE INTO pages (url, body, status_code, run_id, fetched_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := c.db.Exec(query, page.URL, page.Body, page.StatusCode, page.RunID.String(), formatTime(page.FetchedAt))
	if err != nil {
		return fmt.Errorf("failed to store page: %w", err)
	}
	return nil
}

// Count returns the number of cached pages.
func (c *PageCache) Count() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM pages").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// CountRun returns the number of pages stored by the given crawl run.
func (c *PageCache) CountRun(runID uuid.UUID) (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM pages WHERE run_id = ?", runID.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

func formatTime(t time.Time) string {
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
