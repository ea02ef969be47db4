package blob

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Marker is the statement prefix that opens the data blob embedded in every
// item page.
const Marker = ";var R ="

// Entity kinds published in the blob.
const (
	KindItem    = "item"
	KindMonster = "monster"
	KindNPC     = "npc"
	KindQuest   = "quest"
)

// EntityKinds lists the top-level keys the site writes without quotes.
var EntityKinds = []string{KindItem, KindMonster, KindNPC, KindQuest}

// Record is a single entity (item, monster, npc or quest) as published by the
// site. Numbers are kept as json.Number so they re-encode verbatim.
type Record map[string]any

// Container maps entity kinds to the ordered records found in one blob. The
// identifier keys of the source mapping are discarded.
type Container struct {
	kinds   []string
	records map[string][]Record
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{
		records: make(map[string][]Record),
	}
}

// Kinds returns the entity kinds in the order they appeared in the blob.
func (c *Container) Kinds() []string {
	return append([]string(nil), c.kinds...)
}

// Has reports whether the container holds a section for kind, even an empty
// one.
func (c *Container) Has(kind string) bool {
	_, ok := c.records[kind]
	return ok
}

// Records returns the records stored under kind.
func (c *Container) Records(kind string) []Record {
	return c.records[kind]
}

// Set replaces the records stored under kind. A new kind is appended to the
// key order; an existing kind keeps its position.
func (c *Container) Set(kind string, records []Record) {
	if records == nil {
		records = []Record{}
	}
	if _, ok := c.records[kind]; !ok {
		c.kinds = append(c.kinds, kind)
	}
	c.records[kind] = records
}

// Items returns the item records.
func (c *Container) Items() []Record {
	return c.records[KindItem]
}

// SingleItem returns the only item record when the container holds exactly
// one.
func (c *Container) SingleItem() (Record, bool) {
	items := c.records[KindItem]
	if len(items) != 1 {
		return nil, false
	}
	return items[0], true
}

// Decode turns the text of the blob script into a Container.
func Decode(text string) (*Container, error) {
	body := strings.TrimSpace(text)

	if !strings.HasPrefix(body, Marker) {
		return nil, &MalformedBlobError{Reason: fmt.Sprintf("missing leading %q marker", Marker)}
	}
	if !strings.HasSuffix(body, ";") {
		return nil, &MalformedBlobError{Reason: "missing trailing ';'"}
	}

	body = strings.TrimPrefix(body, Marker)
	body = strings.ReplaceAll(body, "\n", "")
	body = QuoteKeys(body)
	body = body[:len(body)-1]

	return parseSections(body)
}

// QuoteKeys rewrites every `<ws>name:<ws>` occurrence of an entity kind into
// `"name":`, where <ws> is exactly one Unicode whitespace character. Text
// inside string literals is copied untouched.
func QuoteKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2*len(EntityKinds))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}

		if size := spaceAt(s[i:]); size > 0 {
			if kind, n := matchKey(s[i+size:]); n > 0 {
				b.WriteString(`"` + kind + `":`)
				i += size + n - 1
				continue
			}
			b.WriteString(s[i : i+size])
			i += size - 1
			continue
		}

		b.WriteByte(c)
	}

	return b.String()
}

// matchKey reports the entity kind at the start of s when it is followed by a
// colon and one whitespace character, along with the number of bytes
// consumed.
func matchKey(s string) (string, int) {
	for _, kind := range EntityKinds {
		n := len(kind)
		if !strings.HasPrefix(s, kind) || len(s) < n+2 || s[n] != ':' {
			continue
		}
		if size := spaceAt(s[n+1:]); size > 0 {
			return kind, n + 1 + size
		}
	}
	return "", 0
}

// spaceAt returns the byte length of the whitespace rune at the start of s,
// or 0 when s does not start with one.
func spaceAt(s string) int {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsSpace(r) {
		return 0
	}
	return size
}

// parseSections decodes the quoted blob body, keeping section order and the
// order of records inside each section.
func parseSections(body string) (*Container, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	container := NewContainer()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &DecodeError{Offset: dec.InputOffset(), Err: err}
		}
		kind, ok := tok.(string)
		if !ok {
			return nil, &DecodeError{Offset: dec.InputOffset(), Err: fmt.Errorf("unexpected token %v", tok)}
		}

		records, err := parseSection(dec)
		if err != nil {
			return nil, err
		}
		container.Set(kind, records)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	// Only whitespace may follow the closing brace
	if tok, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("unexpected trailing token %v", tok)
		}
		return nil, &DecodeError{Offset: dec.InputOffset(), Err: err}
	}

	return container, nil
}

// parseSection decodes one `{id: record, ...}` mapping into its ordered
// records.
func parseSection(dec *json.Decoder) ([]Record, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, &DecodeError{Offset: dec.InputOffset(), Err: err}
	}

	switch tok {
	case json.Delim('['):
		// An empty section may be published as an empty list
		if dec.More() {
			return nil, &DecodeError{Offset: dec.InputOffset(), Err: errors.New("section is a non-empty list")}
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, err
		}
		return []Record{}, nil
	case json.Delim('{'):
	default:
		return nil, &DecodeError{Offset: dec.InputOffset(), Err: fmt.Errorf("expected %q, got %v", json.Delim('{'), tok)}
	}

	records := []Record{}
	for dec.More() {
		// Identifier key, discarded
		if _, err := dec.Token(); err != nil {
			return nil, &DecodeError{Offset: dec.InputOffset(), Err: err}
		}

		var record Record
		if err := dec.Decode(&record); err != nil {
			return nil, &DecodeError{Offset: dec.InputOffset(), Err: err}
		}
		if record == nil {
			return nil, &DecodeError{Offset: dec.InputOffset(), Err: errors.New("record is not an object")}
		}
		records = append(records, record)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return records, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return &DecodeError{Offset: dec.InputOffset(), Err: err}
	}
	if got, ok := tok.(json.Delim); !ok || got != want {
		return &DecodeError{Offset: dec.InputOffset(), Err: fmt.Errorf("expected %q, got %v", want, tok)}
	}
	return nil
}
