package blob

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the container as an object in kind order. An item
// section holding exactly one record is written as that record instead of a
// one-element array; every other section is an array.
func (c *Container) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, kind := range c.kinds {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(&buf, kind); err != nil {
			return nil, err
		}
		buf.WriteByte(':')

		var value any = c.records[kind]
		if single, ok := c.SingleItem(); ok && kind == KindItem {
			value = single
		}
		if err := encodeValue(&buf, value); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", kind, err)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a container written by MarshalJSON. The item
// section may be a single object or an array; it is always stored as a
// sequence.
func (c *Container) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	decoded := NewContainer()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		kind, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		records, err := decodeRecords(raw)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", kind, err)
		}
		decoded.Set(kind, records)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return err
	}

	*c = *decoded
	return nil
}

// decodeRecords accepts either an array of records or a single record.
func decodeRecords(raw json.RawMessage) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var record Record
		if err := dec.Decode(&record); err != nil {
			return nil, err
		}
		return []Record{record}, nil
	}

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}
