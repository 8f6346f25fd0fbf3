// Package catalog builds the flat, ordered list of playable items from
// source directories and playlist files.
package catalog

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Item describes one playable audio file. Items are immutable once built.
type Item struct {
	ID          string
	DisplayName string
	Source      string
}

// NewItem creates an Item for the audio file at source.
func NewItem(source string) Item {
	return Item{
		ID:          uuid.NewString(),
		DisplayName: DisplayName(source),
		Source:      source,
	}
}

// DisplayName derives the list label for source: the file name without its
// extension, with '[', ']' and '.' removed.
func DisplayName(source string) string {
	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '.':
			return -1
		}
		return r
	}, name)
}
