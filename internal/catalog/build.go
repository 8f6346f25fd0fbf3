package catalog

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
)

// ErrNoSources is returned by Build when none of the roots could be read.
var ErrNoSources = errors.New("no readable sources")

// Progress is reported by Build after each root has been scanned.
type Progress struct {
	Root  string
	Done  int
	Total int
	Found int
}

// Build scans every root in order and returns the concatenated items.
// Directories are walked recursively in os.ReadDir order; playlist files
// contribute their playable entries in file order. Roots that cannot be read
// are logged and skipped.
func Build(roots []string, progress func(Progress)) ([]Item, error) {
	var (
		items  []Item
		failed int
	)
	for i, root := range roots {
		found, err := scanRoot(root)
		if err != nil {
			failed++
			log.Warn().Err(err).Str("root", root).Msg("skipping source")
		}
		items = append(items, found...)
		if progress != nil {
			progress(Progress{Root: root, Done: i + 1, Total: len(roots), Found: len(items)})
		}
	}
	if len(roots) > 0 && failed == len(roots) {
		return nil, ErrNoSources
	}
	log.Info().Int("items", len(items)).Int("roots", len(roots)).Msg("catalog built")
	return items, nil
}

func scanRoot(root string) ([]Item, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "reading source %s", root)
	}
	if !info.IsDir() {
		if !IsPlaylist(root) {
			return nil, errors.Newf("%s is neither a directory nor a playlist", root)
		}
		return ReadPlaylist(root)
	}
	return Scan(root)
}

// Scan returns the playable items under dir, recursing into subdirectories
// at the point where they appear in the listing. Symlinked directories are
// followed, but each real directory is scanned at most once.
func Scan(dir string) ([]Item, error) {
	return scanDir(dir, make(map[string]bool))
}

func scanDir(dir string, visited map[string]bool) ([]Item, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", dir)
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}
	if visited[resolved] {
		log.Debug().Str("dir", dir).Str("target", resolved).Msg("skipping directory already scanned")
		return nil, nil
	}
	visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}

	var items []Item
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				continue
			}
			isDir = target.IsDir()
		}

		if isDir {
			sub, err := scanDir(path, visited)
			if err != nil {
				log.Debug().Err(err).Str("dir", path).Msg("skipping unreadable directory")
				continue
			}
			items = append(items, sub...)
			continue
		}
		if IsSupported(e.Name()) {
			items = append(items, NewItem(path))
		}
	}
	return items, nil
}
