package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// EncodingText marks an entry whose raw value was plain text and is
// exported as a JSON string.
const EncodingText = "text"

// Entry is one exported key-value pair.
type Entry struct {
	Key      string          `json:"key"`
	Value    json.RawMessage `json:"value"`
	Encoding string          `json:"encoding,omitempty"`
}

// ExportAll returns every entry whose key starts with prefix. Values that are
// not JSON are exported as JSON strings.
func ExportAll(ctx context.Context, s Store, prefix string) ([]Entry, error) {
	keys, err := s.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		v, err := s.Get(ctx, k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		e := Entry{Key: k, Value: json.RawMessage(v)}
		if !json.Valid(v) {
			e.Value, _ = json.Marshal(string(v))
			e.Encoding = EncodingText
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Import writes entries from an export, overwriting existing keys.
func Import(ctx context.Context, s Store, entries []Entry) (int, error) {
	imported := 0
	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		value := []byte(e.Value)
		if e.Encoding == EncodingText {
			var text string
			if err := json.Unmarshal(e.Value, &text); err != nil {
				return imported, fmt.Errorf("import %s: %w", e.Key, err)
			}
			value = []byte(text)
		}
		if err := s.Set(ctx, e.Key, value); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
