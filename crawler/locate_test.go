package crawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: parse an HTML fixture
func parseHTML(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

// TestFindBlobScript_FirstMatch verifies the first blob script is returned
func TestFindBlobScript_FirstMatch(t *testing.T) {
	doc := parseHTML(t, `<html><head>
		<script>var tracking = true;</script>
		<script>;var R = { item: {}};</script>
		<script>;var R = { npc: {}};</script>
	</head></html>`)

	text, err := FindBlobScript(doc)
	require.NoError(t, err)
	assert.Equal(t, ";var R = { item: {}};", text)
}

// TestFindBlobScript_NotFound verifies pages without the blob fail
func TestFindBlobScript_NotFound(t *testing.T) {
	doc := parseHTML(t, `<html><head><script>var R = {};</script></head><body>;var R = 1;</body></html>`)

	_, err := FindBlobScript(doc)
	assert.ErrorIs(t, err, ErrBlobScriptNotFound)
}

// TestEquipmentCategories verifies per-profession links are selected
func TestEquipmentCategories(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<a href="/przedmioty/dla-maga/rozdzki/"> Różdżki </a>
		<a href="/przedmioty/inne">Inne</a>
		<a href="/przedmiot/kij">Kij</a>
	</body></html>`)

	links := EquipmentCategories(doc)
	require.Len(t, links, 1)
	assert.Equal(t, Link{Href: "/przedmioty/dla-maga/rozdzki/", Text: "Różdżki"}, links[0])
}

// TestOtherCategories verifies equipment and the index itself are skipped
func TestOtherCategories(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<a href="/przedmioty/">Wszystkie</a>
		<a href="/przedmioty/dla-maga/rozdzki/">Różdżki</a>
		<a href="/przedmioty/mikstury">Mikstury</a>
		<a href="/przedmioty/zwoje">Zwoje</a>
	</body></html>`)

	links := OtherCategories(doc)
	require.Len(t, links, 2)
	assert.Equal(t, "/przedmioty/mikstury", links[0].Href)
	assert.Equal(t, "Zwoje", links[1].Text)
}

// TestItemLinks verifies item links keep duplicates while the unique
// variant drops them
func TestItemLinks(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<a href="/przedmiot/kij">Kij</a>
		<a href="/przedmiot/kij">Kij</a>
		<a href="/przedmioty/inne">Inne</a>
		<a href="http://emargo.pl/przedmiot/luk">Łuk</a>
	</body></html>`)

	assert.Len(t, ItemLinks(doc), 3)

	unique := UniqueItemLinks(doc)
	require.Len(t, unique, 2)
	assert.Equal(t, "/przedmiot/kij", unique[0].Href)
	assert.Equal(t, "http://emargo.pl/przedmiot/luk", unique[1].Href)
}

// TestLastPage verifies the pagination block is read
func TestLastPage(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    int
		wantErr bool
	}{
		{"no pagination", `<html><body></body></html>`, 1, false},
		{"last page link", `<span class="last"><a href="/przedmioty/inne/strona-12">»</a></span>`, 12, false},
		{"trailing slash", `<span class="last"><a href="/przedmioty/inne/strona-3/">»</a></span>`, 3, false},
		{"not a number", `<span class="last"><a href="/przedmioty/inne/strona-x">»</a></span>`, 0, true},
		{"zero", `<span class="last"><a href="/przedmioty/inne/strona-0">»</a></span>`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := LastPage(parseHTML(t, tt.html))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

// TestProfession verifies the profession path segment is extracted
func TestProfession(t *testing.T) {
	assert.Equal(t, "dla-maga", Profession("/przedmioty/dla-maga/"))
	assert.Equal(t, "rozdzki", Profession("/przedmioty/dla-maga/rozdzki/"))
	assert.Equal(t, "x", Profession("x"))
}

// TestConfigValidate verifies invalid settings are rejected
func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no scheme", func(c *Config) { c.BaseURL = "emargo.pl" }},
		{"ftp", func(c *Config) { c.BaseURL = "ftp://emargo.pl" }},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }},
		{"negative interval", func(c *Config) { c.RequestInterval = -1 }},
		{"negative limit", func(c *Config) { c.MaxOtherCategories = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
