// Package items models the shopping list entries a user keeps.
package items

import (
	"errors"
	"strings"
)

// MaxItemLength matches the item column width.
const MaxItemLength = 100

var (
	ErrNotFound     = errors.New("saved item not found")
	ErrItemRequired = errors.New("item name is required")
	ErrItemTooLong  = errors.New("item name too long")
)

// SavedItem is one shopping list row.
type SavedItem struct {
	ID     int64  `json:"id"`
	Item   string `json:"item"`
	Size   string `json:"size"`
	UserID *int64 `json:"user_id"`
}

// Validate checks the item name.
func (s *SavedItem) Validate() error {
	s.Item = strings.TrimSpace(s.Item)
	if s.Item == "" {
		return ErrItemRequired
	}
	if len(s.Item) > MaxItemLength {
		return ErrItemTooLong
	}
	return nil
}

// Update carries a partial update. Empty strings leave the field unchanged.
type Update struct {
	Item *string
	Size *string
}

// Apply copies non-empty fields onto s.
func (u Update) Apply(s *SavedItem) error {
	if u.Item != nil && *u.Item != "" {
		s.Item = *u.Item
	}
	if u.Size != nil && *u.Size != "" {
		s.Size = *u.Size
	}
	return s.Validate()
}
