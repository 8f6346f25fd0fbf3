package catalog

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// entryFunc extracts the path from one playlist line, or returns "".
type entryFunc func(line string) string

// ReadPlaylist returns the playable items listed in an .m3u, .m3u8 or .pls
// file, in file order. Relative entries are resolved against the directory of
// the playlist; remote URLs, missing files and other formats are dropped.
func ReadPlaylist(path string) ([]Item, error) {
	var entry entryFunc
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u", ".m3u8":
		entry = m3uEntry
	case ".pls":
		entry = plsEntry
	default:
		return nil, errors.Newf("%s is not a playlist", path)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading playlist")
	}
	if !utf8.Valid(data) {
		return nil, errors.Newf("playlist %s is not valid UTF-8", path)
	}
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))

	dir := filepath.Dir(path)
	var items []Item
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		raw := entry(strings.TrimSpace(scanner.Text()))
		if raw == "" || strings.Contains(raw, "://") {
			continue
		}
		p := filepath.Clean(raw)
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		if playableFile(p) {
			items = append(items, NewItem(p))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading playlist")
	}
	return items, nil
}

func m3uEntry(line string) string {
	if strings.HasPrefix(line, "#") {
		return ""
	}
	return line
}

// plsEntry accepts FileN=path lines; the key is matched case-insensitively.
func plsEntry(line string) string {
	key, val, ok := strings.Cut(line, "=")
	if !ok {
		return ""
	}
	key = strings.TrimSpace(key)
	if len(key) <= 4 || !strings.EqualFold(key[:4], "file") {
		return ""
	}
	for _, c := range key[4:] {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return strings.TrimSpace(val)
}

func playableFile(path string) bool {
	if !IsSupported(path) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
