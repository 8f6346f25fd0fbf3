// Package config loads and saves the JSON settings file: the source
// directories to scan, the key bindings and the playlist window size.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

// ErrInvalidConfiguration marks a settings file that exists but could not be
// used. Load still returns usable defaults alongside it.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Controls maps each command to the key that triggers it.
type Controls struct {
	Previous string `koanf:"previous" default:"q" validate:"required"`
	Next     string `koanf:"next" default:"e" validate:"required"`
	Pause    string `koanf:"pause" default:"f" validate:"required"`
	Play     string `koanf:"play" default:"g" validate:"required"`
	Up       string `koanf:"up" default:"up" validate:"required"`
	Down     string `koanf:"down" default:"down" validate:"required"`
	Repeat   string `koanf:"repeat" default:"r" validate:"required"`
}

// Bindings lists the configured keys by name, in a fixed order.
func (c Controls) Bindings() [][2]string {
	return [][2]string{
		{"previous", c.Previous},
		{"next", c.Next},
		{"pause", c.Pause},
		{"play", c.Play},
		{"up", c.Up},
		{"down", c.Down},
		{"repeat", c.Repeat},
	}
}

// Config is the persisted application state.
type Config struct {
	SoundPaths []string `koanf:"sound_paths"`
	Controls   Controls `koanf:"controls"`
	WindowSize int      `koanf:"window_size" default:"25" validate:"gte=1"`
}

// Default returns the configuration used when no file is usable.
func Default() Config {
	var cfg Config
	// Only fails for malformed default tags.
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	cfg.SoundPaths = []string{}
	return cfg
}

// Validate checks field constraints and that no key is bound twice.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	seen := make(map[string]string)
	for _, b := range c.Controls.Bindings() {
		key := strings.ToLower(b[1])
		if other, ok := seen[key]; ok {
			return errors.Newf("key %q bound to both %s and %s", b[1], other, b[0])
		}
		seen[key] = b[0]
	}
	return nil
}

// Store reads and writes one settings file.
type Store struct {
	path string
}

// NewStore returns a Store for path. An empty path selects DefaultPath.
func NewStore(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{path: ExpandPath(path)}, nil
}

// DefaultPath is config.json under the XDG config directory.
func DefaultPath() (string, error) {
	p, err := xdg.ConfigFile(filepath.Join("crate", "config.json"))
	if err != nil {
		return "", errors.Wrap(err, "resolving config path")
	}
	return p, nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file. A missing or empty file yields the defaults
// without error. A file that cannot be parsed or fails validation yields the
// defaults and an error marked ErrInvalidConfiguration.
func (s *Store) Load() (Config, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", s.path).Msg("no config file, using defaults")
		return Default(), nil
	}
	if err != nil {
		return Default(), errors.Wrapf(err, "reading %s", s.path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Default(), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(s.path), json.Parser()); err != nil {
		return Default(), invalid(err, "parsing %s", s.path)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Default(), invalid(err, "decoding %s", s.path)
	}
	if err := defaults.Set(&cfg); err != nil {
		return Default(), errors.Wrap(err, "failed to set defaults")
	}
	if err := cfg.Validate(); err != nil {
		return Default(), invalid(err, "validating %s", s.path)
	}

	if cfg.SoundPaths == nil {
		cfg.SoundPaths = []string{}
	}
	for i, p := range cfg.SoundPaths {
		cfg.SoundPaths[i] = ExpandPath(p)
	}
	return cfg, nil
}

func invalid(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrInvalidConfiguration)
}

// Save writes cfg as JSON, creating the parent directory if needed.
func (s *Store) Save(cfg Config) error {
	k := koanf.New(".")
	paths := cfg.SoundPaths
	if paths == nil {
		paths = []string{}
	}
	values := map[string]any{
		"sound_paths":       paths,
		"window_size":       cfg.WindowSize,
		"controls.previous": cfg.Controls.Previous,
		"controls.next":     cfg.Controls.Next,
		"controls.pause":    cfg.Controls.Pause,
		"controls.play":     cfg.Controls.Play,
		"controls.up":       cfg.Controls.Up,
		"controls.down":     cfg.Controls.Down,
		"controls.repeat":   cfg.Controls.Repeat,
	}
	for key, v := range values {
		if err := k.Set(key, v); err != nil {
			return errors.Wrapf(err, "setting %s", key)
		}
	}

	out, err := k.Marshal(json.Parser())
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := os.WriteFile(s.path, out, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", s.path)
	}
	log.Info().Str("path", s.path).Int("sources", len(paths)).Msg("config saved")
	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
