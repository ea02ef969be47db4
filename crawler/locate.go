package crawler

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/duke-git/lancet/v2/slice"
)

// ErrBlobScriptNotFound is returned when a page has no script holding the
// `;var R` data blob.
var ErrBlobScriptNotFound = errors.New("no script element holds the ;var R data blob")

var (
	blobScriptPattern = regexp.MustCompile(`;var R.*`)

	equipmentPattern = regexp.MustCompile(`/przedmioty/dla`)
	itemPattern      = regexp.MustCompile(`/przedmiot/`)
	listingPattern   = regexp.MustCompile(`/przedmioty/(.+)`)
)

// Link is an anchor found on a listing page.
type Link struct {
	Href string
	Text string
}

// FindBlobScript returns the text of the first script element whose content
// contains the data blob.
func FindBlobScript(doc *goquery.Document) (string, error) {
	var text string
	found := false

	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		content := s.Text()
		if blobScriptPattern.MatchString(content) {
			text = content
			found = true
			return false
		}
		return true
	})

	if !found {
		return "", ErrBlobScriptNotFound
	}
	return text, nil
}

// FindLinks returns every anchor whose href matches pattern, in document
// order.
func FindLinks(doc *goquery.Document, pattern *regexp.Regexp) []Link {
	links := []Link{}
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !pattern.MatchString(href) {
			return
		}
		links = append(links, Link{
			Href: href,
			Text: strings.TrimSpace(s.Text()),
		})
	})
	return links
}

// EquipmentCategories returns the per-profession equipment category links of
// the item types page.
func EquipmentCategories(doc *goquery.Document) []Link {
	return FindLinks(doc, equipmentPattern)
}

// OtherCategories returns the category links that are not per-profession
// equipment.
func OtherCategories(doc *goquery.Document) []Link {
	links := []Link{}
	for _, link := range FindLinks(doc, listingPattern) {
		m := listingPattern.FindStringSubmatch(link.Href)
		if strings.HasPrefix(m[1], "dla") {
			continue
		}
		links = append(links, link)
	}
	return links
}

// ItemLinks returns the item page links of a listing page.
func ItemLinks(doc *goquery.Document) []Link {
	return FindLinks(doc, itemPattern)
}

// UniqueItemLinks returns the item page links of a listing page with
// duplicates removed.
func UniqueItemLinks(doc *goquery.Document) []Link {
	return slice.Unique(ItemLinks(doc))
}

// LastPage reads the number of the last listing page from the pagination
// block. A listing without pagination has a single page.
func LastPage(doc *goquery.Document) (int, error) {
	href, ok := doc.Find("span.last a").First().Attr("href")
	if !ok {
		return 1, nil
	}

	idx := strings.LastIndex(href, "-")
	n, err := strconv.Atoi(strings.TrimSuffix(href[idx+1:], "/"))
	if err != nil {
		return 0, fmt.Errorf("invalid last page link %q: %w", href, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid last page number %d", n)
	}
	return n, nil
}

// Profession returns the path segment before the trailing slash of an
// equipment category href.
func Profession(href string) string {
	parts := strings.Split(href, "/")
	if len(parts) < 2 {
		return href
	}
	return parts[len(parts)-2]
}
