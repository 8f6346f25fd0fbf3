package catalog

import (
	"path/filepath"
	"strings"
)

// audioExts is the allow-list of playable extensions. Matching is
// case-sensitive: "song.MP3" is not playable.
var audioExts = map[string]bool{
	".mp3": true,
	".wav": true,
	".m4a": true,
}

var playlistExts = map[string]bool{
	".m3u":  true,
	".m3u8": true,
	".pls":  true,
}

// IsSupported reports whether path has one of the allow-listed extensions.
func IsSupported(path string) bool {
	return audioExts[filepath.Ext(path)]
}

// IsPlaylist reports whether path names a playlist file.
func IsPlaylist(path string) bool {
	return playlistExts[strings.ToLower(filepath.Ext(path))]
}
