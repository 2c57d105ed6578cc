package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadBatch reads a JSON batch file written by the annotation backend
// (annotation_<task>_<timestamp>.json, a JSON array of items).
// A top-level value that is not an array yields an empty batch, not an
// error; the review UI renders an explicit "no examples" state instead.
func LoadBatch(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return DecodeBatch(data)
}

// DecodeBatch parses a JSON array of items.
func DecodeBatch(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		// Not an array (or not items at all): degrade to empty.
		var probe any
		if probeErr := json.Unmarshal(data, &probe); probeErr == nil {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}
