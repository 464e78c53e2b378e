// Package models defines the core data types shared between the share
// extension and the host application.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category is the content category label stored in a SharedItem's type field.
type Category string

// Known content categories.
const (
	CategoryThreads Category = "threads"
	CategoryTwitter Category = "twitter"
	CategoryYouTube Category = "youtube"
	CategoryWeb     Category = "web"
)

// ValidCategories lists every category a SharedItem may carry.
var ValidCategories = []Category{CategoryThreads, CategoryTwitter, CategoryYouTube, CategoryWeb}

// IsValid reports whether c is one of ValidCategories.
func (c Category) IsValid() bool {
	for _, v := range ValidCategories {
		if v == c {
			return true
		}
	}
	return false
}

// SharedItem is one record of the shared queue.
//
// The canonical wire form is
//
//	{"path": "...", "type": "web", "thumbnail": "", "duration": 0}
//
// and is the only form ever written.
type SharedItem struct {
	Path      string   `json:"path"`
	Type      Category `json:"type"`
	Thumbnail string   `json:"thumbnail"`
	Duration  float64  `json:"duration"`
}

// NewSharedItem returns a SharedItem for path with the given category and
// empty thumbnail/duration placeholders.
func NewSharedItem(path string, category Category) SharedItem {
	return SharedItem{Path: path, Type: category}
}

// Reclassifier maps a payload to its category. It is used when decoding
// legacy records whose type field is an integer code.
type Reclassifier func(path string) Category

// legacyItem mirrors the loosest record shape seen in stored queues.
type legacyItem struct {
	Path      string          `json:"path"`
	Type      json.RawMessage `json:"type"`
	Thumbnail *string         `json:"thumbnail"`
	Duration  *float64        `json:"duration"`
}

// DecodeQueue parses a serialized queue. Legacy records (integer type,
// null thumbnail or duration) are normalized; records with an integer or
// unknown type are reclassified from their path using reclassify.
// An empty or nil input decodes to an empty, non-nil slice.
func DecodeQueue(data []byte, reclassify Reclassifier) ([]SharedItem, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return make([]SharedItem, 0), nil
	}

	var raw []legacyItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("models.DecodeQueue: %w", err)
	}

	items := make([]SharedItem, 0, len(raw))
	for _, r := range raw {
		item := SharedItem{Path: r.Path}
		if r.Thumbnail != nil {
			item.Thumbnail = *r.Thumbnail
		}
		if r.Duration != nil {
			item.Duration = *r.Duration
		}

		var cat string
		if err := json.Unmarshal(r.Type, &cat); err == nil && Category(cat).IsValid() {
			item.Type = Category(cat)
		} else if reclassify != nil {
			item.Type = reclassify(r.Path)
		} else {
			item.Type = CategoryWeb
		}
		items = append(items, item)
	}
	return items, nil
}

// EncodeQueue serializes items in the canonical schema. A nil slice encodes
// as an empty JSON array.
func EncodeQueue(items []SharedItem) ([]byte, error) {
	if items == nil {
		items = make([]SharedItem, 0)
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("models.EncodeQueue: %w", err)
	}
	return b, nil
}
