package blob

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBlob = `;var R = { item: {"1234": {"name": "Miecz", "stats": "desc||hp=10;dmg=5-8;reqp=pw;unique;binds||42"}, "1235": {"name": "Tarcza", "stats": "opis||ac=3||7"}}, monster: {"m1": {"name": "Wilk", "lvl": 5}}, npc: {}, quest: {"q1": {"name": "Zadanie"}, "q2": {"name": "Drugie"}} };`

// TestDecode_AllKinds verifies every section is flattened in source order
func TestDecode_AllKinds(t *testing.T) {
	c, err := Decode(sampleBlob)
	require.NoError(t, err)

	assert.Equal(t, []string{KindItem, KindMonster, KindNPC, KindQuest}, c.Kinds())
	assert.Len(t, c.Records(KindItem), 2)
	assert.Len(t, c.Records(KindMonster), 1)
	assert.Len(t, c.Records(KindNPC), 0)
	assert.Len(t, c.Records(KindQuest), 2)

	assert.Equal(t, "Miecz", c.Items()[0]["name"])
	assert.Equal(t, "Tarcza", c.Items()[1]["name"])
	assert.Equal(t, json.Number("5"), c.Records(KindMonster)[0]["lvl"], "numbers should be kept verbatim")
	assert.Equal(t, "Drugie", c.Records(KindQuest)[1]["name"])
}

// TestDecode_Newlines verifies newlines embedded in the blob are removed
func TestDecode_Newlines(t *testing.T) {
	text := ";var R = {\n item: {\"1\": {\"stats\": \"a||b=1||2\"}},\n npc: {\"n\": {\"name\": \"Kupiec\"}}\n};\n"

	c, err := Decode(text)
	require.NoError(t, err)

	assert.Equal(t, []string{KindItem, KindNPC}, c.Kinds())
	assert.Len(t, c.Items(), 1)
	assert.Equal(t, "Kupiec", c.Records(KindNPC)[0]["name"])
}

// TestDecode_SubsetOfKinds verifies only the kinds present are returned
func TestDecode_SubsetOfKinds(t *testing.T) {
	c, err := Decode(`;var R = { quest: {"a": {}}, item: {"b": {}, "c": {}, "d": {}}};`)
	require.NoError(t, err)

	assert.Equal(t, []string{KindQuest, KindItem}, c.Kinds())
	assert.False(t, c.Has(KindMonster))
	assert.Len(t, c.Items(), 3)
}

// TestDecode_MissingMarker verifies a distinct error for text without the
// leading marker
func TestDecode_MissingMarker(t *testing.T) {
	_, err := Decode(`var X = { item: {}};`)
	require.Error(t, err)

	var malformed *MalformedBlobError
	require.True(t, errors.As(err, &malformed))
	assert.Contains(t, malformed.Reason, "marker")
}

// TestDecode_MissingTrailingSemicolon verifies the terminator is required
func TestDecode_MissingTrailingSemicolon(t *testing.T) {
	_, err := Decode(`;var R = { item: {}}`)
	require.Error(t, err)

	var malformed *MalformedBlobError
	require.True(t, errors.As(err, &malformed))
	assert.Contains(t, malformed.Reason, "';'")
}

// TestDecode_InvalidBody verifies structural failures are decode errors
func TestDecode_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"unquoted key without whitespace", `;var R = {item: {}};`},
		{"trailing tokens", `;var R = { item: {}} };`},
		{"section is a non-empty list", `;var R = { item: [{"name": "x"}]};`},
		{"section is a string", `;var R = { item: "x"};`},
		{"record is a number", `;var R = { item: {"1": 5}};`},
		{"record is null", `;var R = { item: {"1": null}};`},
		{"truncated", `;var R = { item: {"1": {};`},
		{"empty body", `;var R =;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.text)
			require.Error(t, err)

			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr), "got %T: %v", err, err)
		})
	}
}

// TestDecode_EmptyListSections verifies empty sections published as lists
func TestDecode_EmptyListSections(t *testing.T) {
	c, err := Decode(`;var R = { item: {"1": {"name": "Miecz", "stats": "d||hp=1||1"}}, monster: [], npc: [ ]};`)
	require.NoError(t, err)

	assert.Equal(t, []string{KindItem, KindMonster, KindNPC}, c.Kinds())
	assert.Len(t, c.Items(), 1)
	assert.True(t, c.Has(KindMonster))
	assert.Empty(t, c.Records(KindMonster))
	assert.NotNil(t, c.Records(KindNPC))
	assert.Empty(t, c.Records(KindNPC))
}

// TestDecode_UnicodeWhitespace verifies keys surrounded by non-ASCII
// whitespace are quoted
func TestDecode_UnicodeWhitespace(t *testing.T) {
	c, err := Decode(";var R = {\u00a0item:\u00a0{\"1\": {\"name\": \"Miecz\"}}};")
	require.NoError(t, err)

	require.Len(t, c.Items(), 1)
	assert.Equal(t, "Miecz", c.Items()[0]["name"])
}

// TestQuoteKeys verifies the key quoting grammar
func TestQuoteKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single key", `{ item: {}}`, `{"item":{}}`},
		{"all kinds", `{ item: {}, monster: {}, npc: {}, quest: {}}`, `{"item":{},"monster":{},"npc":{},"quest":{}}`},
		{"tabs", "{\titem:\t{}}", `{"item":{}}`},
		{"one whitespace character per side", `{  item:  {}}`, `{ "item": {}}`},
		{"no leading whitespace", `{item: {}}`, `{item: {}}`},
		{"no trailing whitespace", `{ item:{}}`, `{ item:{}}`},
		{"longer name", `{ items: {}}`, `{ items: {}}`},
		{"other keys untouched", `{ drop: {}}`, `{ drop: {}}`},
		{"inside string", `{"name": " item: x"}`, `{"name": " item: x"}`},
		{"after escaped quote", `{"a\" item: ": 1}`, `{"a\" item: ": 1}`},
		{"after string", `{"a": "b", quest: {}}`, `{"a": "b","quest":{}}`},
		{"non-breaking spaces", "{\u00a0item:\u00a0{}}", `{"item":{}}`},
		{"non-breaking space left alone", "{\u00a0drop:\u00a0{}}", "{\u00a0drop:\u00a0{}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteKeys(tt.in))
		})
	}
}

// TestContainer_SetKeepsOrder verifies replacing a section keeps its position
func TestContainer_SetKeepsOrder(t *testing.T) {
	c := NewContainer()
	c.Set(KindItem, nil)
	c.Set(KindNPC, []Record{{"name": "a"}})
	c.Set(KindItem, []Record{{"name": "b"}})

	assert.Equal(t, []string{KindItem, KindNPC}, c.Kinds())
	assert.NotNil(t, c.Records(KindItem))
	assert.Len(t, c.Items(), 1)
}

// TestSingleItem verifies the accessor only answers for exactly one item
func TestSingleItem(t *testing.T) {
	c := NewContainer()

	_, ok := c.SingleItem()
	assert.False(t, ok, "no item section")

	c.Set(KindItem, []Record{})
	_, ok = c.SingleItem()
	assert.False(t, ok, "zero items")

	c.Set(KindItem, []Record{{"name": "a"}})
	item, ok := c.SingleItem()
	require.True(t, ok, "one item")
	assert.Equal(t, "a", item["name"])

	c.Set(KindItem, []Record{{"name": "a"}, {"name": "b"}})
	_, ok = c.SingleItem()
	assert.False(t, ok, "two items")
}
