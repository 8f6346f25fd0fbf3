package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDisplayNameStripsPresentationChars(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/music/a.mp3", "a"},
		{"/music/[Live] Song.v2.wav", "Live Songv2"},
		{"Track [Remaster].m4a", "Track Remaster"},
		{"/music/no-extension", "no-extension"},
		{"/music/..[..]..mp3", ""},
		{"relative/dir/Artist - Tune.mp3", "Artist - Tune"},
	}
	for _, tc := range cases {
		if got := DisplayName(tc.in); got != tc.want {
			t.Fatalf("DisplayName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewItemAssignsDistinctIDs(t *testing.T) {
	a := NewItem("/music/a.mp3")
	b := NewItem("/music/a.mp3")
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if a.Source != "/music/a.mp3" || a.DisplayName != "a" {
		t.Fatalf("unexpected item: %+v", a)
	}
}

func TestIsSupportedIsCaseSensitive(t *testing.T) {
	for _, name := range []string{"a.mp3", "b.wav", "c.m4a", "dir/d.e.mp3"} {
		if !IsSupported(name) {
			t.Fatalf("expected %s to be supported", name)
		}
	}
	for _, name := range []string{"a.MP3", "b.Wav", "c.flac", "d.ogg", "noext", "mp3"} {
		if IsSupported(name) {
			t.Fatalf("expected %s to be rejected", name)
		}
	}
}

func TestScanRecursesInListingOrder(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"b.wav",
		"a.mp3",
		"notes.txt",
		"LOUD.MP3",
		"m/inner.m4a",
		"m/deeper/z.mp3",
		"z.m4a",
	)

	items, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "b.wav"),
		filepath.Join(dir, "m", "deeper", "z.mp3"),
		filepath.Join(dir, "m", "inner.m4a"),
		filepath.Join(dir, "z.m4a"),
	}
	if got := sources(items); !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan() = %v, want %v", got, want)
	}
}

func TestScanVisitsSymlinkedDirectoriesOnce(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.mp3", "sub/b.wav")
	if err := os.Symlink(".", filepath.Join(dir, "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink("..", filepath.Join(dir, "sub", "up")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	items, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "sub", "b.wav"),
	}
	if got := sources(items); !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan() = %v, want %v", got, want)
	}
}

func TestScanFollowsSymlinkToOutsideDirectory(t *testing.T) {
	outside := t.TempDir()
	writeFiles(t, outside, "far.mp3")
	dir := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(dir, "linked")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	items, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []string{filepath.Join(dir, "linked", "far.mp3")}
	if got := sources(items); !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan() = %v, want %v", got, want)
	}
}

func TestBuildConcatenatesRootsAndReportsProgress(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFiles(t, first, "one.mp3")
	writeFiles(t, second, "two.wav", "three.m4a")

	var reports []Progress
	items, err := Build([]string{first, filepath.Join(first, "missing"), second}, func(p Progress) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{
		filepath.Join(first, "one.mp3"),
		filepath.Join(second, "three.m4a"),
		filepath.Join(second, "two.wav"),
	}
	if got := sources(items); !reflect.DeepEqual(got, want) {
		t.Fatalf("Build() = %v, want %v", got, want)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 progress reports, got %d", len(reports))
	}
	last := reports[2]
	if last.Done != 3 || last.Total != 3 || last.Found != 3 {
		t.Fatalf("unexpected final progress: %+v", last)
	}
}

func TestBuildFailsWhenNoRootIsReadable(t *testing.T) {
	_, err := Build([]string{filepath.Join(t.TempDir(), "nope")}, nil)
	if err != ErrNoSources {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
}

func TestBuildAcceptsPlaylistRoots(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "song1.mp3", "sub/song2.wav", "skip.flac")
	playlist := filepath.Join(dir, "list.m3u")
	content := "\uFEFF#EXTM3U\n\nsong1.mp3\n#comment\nhttps://example.com/stream\nsub/song2.wav\nskip.flac\nmissing.mp3\n"
	if err := os.WriteFile(playlist, []byte(content), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	items, err := Build([]string{playlist}, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "song1.mp3"),
		filepath.Join(dir, "sub", "song2.wav"),
	}
	if got := sources(items); !reflect.DeepEqual(got, want) {
		t.Fatalf("Build() = %v, want %v", got, want)
	}
}

func TestReadPlaylistPLS(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "one.mp3", "abs/two.wav", "bad.mp3")
	playlist := filepath.Join(dir, "list.pls")
	abs := filepath.Join(dir, "abs", "two.wav")
	content := "[playlist]\n file1 = one.mp3 \nTitle1=One\nLength1=120\nFile2=https://example.com/live\nFileX=bad.mp3\nFile3=\nFile4=" + abs + "\n"
	if err := os.WriteFile(playlist, []byte(content), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	items, err := ReadPlaylist(playlist)
	if err != nil {
		t.Fatalf("ReadPlaylist() error = %v", err)
	}

	want := []string{filepath.Join(dir, "one.mp3"), abs}
	if got := sources(items); !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadPlaylist() = %#v, want %#v", got, want)
	}
}

func TestReadPlaylistRejectsOtherExtensions(t *testing.T) {
	if _, err := ReadPlaylist("list.txt"); err == nil {
		t.Fatal("expected error for unsupported playlist format")
	}
}

func TestPLSEntry(t *testing.T) {
	cases := []struct{ line, want string }{
		{"File1=a.mp3", "a.mp3"},
		{"file12 = b.wav", "b.wav"},
		{"FileX=c.mp3", ""},
		{"File=d.mp3", ""},
		{"Title1=e", ""},
		{"[playlist]", ""},
	}
	for _, tc := range cases {
		if got := plsEntry(tc.line); got != tc.want {
			t.Fatalf("plsEntry(%q) = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func sources(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Source
	}
	return out
}
