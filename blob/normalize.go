package blob

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Keys written into a normalized stats map next to the key=value tokens.
const (
	StatValue   = "value"
	StatRarity  = "rarity"
	StatBinding = "binding"
	StatClasses = "reqp"
)

// TypeField is the record field holding the category an item was found
// under.
const TypeField = "type"

var (
	rarities = []string{"heroic", "unique", "legendary"}
	bindings = []string{"binds", "soulbound"}
)

// classNames maps single-letter class codes to class names.
var classNames = map[rune]string{
	'p': "Paladyn",
	'w': "Wojownik",
	'b': "Tancerz Ostrzy",
	'm': "Mag",
	't': "Tropiciel",
	'h': "Łowca",
}

// Report lists what normalization tolerated without failing.
type Report struct {
	// Dropped holds stat tokens that were neither key=value pairs nor a
	// known rarity or binding keyword, in the order they were seen.
	Dropped []string
}

// NormalizeItems rewrites every item record of the container: the packed
// stats string becomes a map, and the record's type field is set to itemType
// when it is not empty. The container is only modified when every item
// normalizes; a container without an item section is left as is.
func NormalizeItems(c *Container, itemType string) (*Report, error) {
	report := &Report{}
	if !c.Has(KindItem) {
		return report, nil
	}

	items := c.Items()
	normalized := make([]Record, 0, len(items))
	for i, item := range items {
		record, dropped, err := NormalizeItem(item)
		if err != nil {
			var sfe *StatsFormatError
			if errors.As(err, &sfe) {
				sfe.Index = i
				return nil, sfe
			}
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		if itemType != "" {
			record[TypeField] = itemType
		}
		report.Dropped = append(report.Dropped, dropped...)
		normalized = append(normalized, record)
	}

	c.Set(KindItem, normalized)
	return report, nil
}

// NormalizeItem returns a copy of item with its stats string replaced by the
// parsed stats map, plus the tokens that were dropped.
func NormalizeItem(item Record) (Record, []string, error) {
	raw, ok := item["stats"]
	if !ok {
		return nil, nil, &StatsFormatError{Reason: "missing stats field"}
	}

	switch v := raw.(type) {
	case string:
		stats, dropped, err := ParseStats(v)
		if err != nil {
			return nil, nil, err
		}
		record := maps.Clone(item)
		record["stats"] = stats
		return record, dropped, nil
	case map[string]any:
		return nil, nil, &StatsFormatError{Reason: "stats is already a map", Err: ErrAlreadyNormalized}
	default:
		return nil, nil, &StatsFormatError{Reason: fmt.Sprintf("stats has type %T, want string", raw)}
	}
}

// ParseStats unpacks a stats string of the form
// `desc||key=value;keyword;...||value` into a map. Keywords from the rarity
// and binding vocabularies are stored under rarity and binding; any other
// token that is not a key=value pair is returned in dropped.
func ParseStats(stats string) (map[string]any, []string, error) {
	segments := strings.Split(stats, "||")
	if len(segments) < 2 {
		return nil, nil, &StatsFormatError{Reason: fmt.Sprintf("want at least 2 '||' segments, got %d", len(segments))}
	}

	result := map[string]any{
		StatValue: segments[len(segments)-1],
	}

	var dropped []string
	for token := range strings.SplitSeq(segments[1], ";") {
		if token == "" {
			continue
		}

		parts := strings.Split(token, "=")
		if len(parts) == 2 {
			result[parts[0]] = parts[1]

			if parts[0] == StatClasses {
				classes, err := ExpandClasses(parts[1])
				if err != nil {
					return nil, nil, err
				}
				result[StatClasses] = classes
			}
			continue
		}

		matched := false
		if slices.Contains(rarities, parts[0]) {
			result[StatRarity] = parts[0]
			matched = true
		}
		if slices.Contains(bindings, parts[0]) {
			result[StatBinding] = parts[0]
			matched = true
		}
		if !matched {
			dropped = append(dropped, token)
		}
	}

	return result, dropped, nil
}

// ExpandClasses turns a string of class codes such as "pw" into class names.
func ExpandClasses(codes string) ([]string, error) {
	classes := make([]string, 0, len(codes))
	for _, code := range codes {
		name, ok := classNames[code]
		if !ok {
			return nil, &UnknownClassCodeError{Code: code, Codes: codes}
		}
		classes = append(classes, name)
	}
	return classes, nil
}
