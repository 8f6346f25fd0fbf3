package player

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Tags holds what the Playing pane shows besides the display name.
type Tags struct {
	Title  string
	Artist string
	Album  string
}

// ReadTags reads ID3v2 tags from an MP3 file. Other formats, and files
// without tags, return empty Tags.
func ReadTags(path string) Tags {
	if filepath.Ext(path) != ".mp3" {
		return Tags{}
	}
	tag, err := id3v2.Open(path, id3v2.Options{
		Parse:       true,
		ParseFrames: []string{"Title", "Artist", "Album"},
	})
	if err != nil {
		return Tags{}
	}
	defer tag.Close()

	return Tags{
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
		Album:  strings.TrimSpace(tag.Album()),
	}
}

// Line joins artist and album for display, skipping empty parts.
func (t Tags) Line() string {
	var parts []string
	if t.Artist != "" {
		parts = append(parts, t.Artist)
	}
	if t.Album != "" {
		parts = append(parts, t.Album)
	}
	return strings.Join(parts, " - ")
}
