// Package settings holds the editor preferences persisted alongside the project.
package settings

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Word wrap modes understood by the editor widget
const (
	WrapOn      = "on"
	WrapOff     = "off"
	WrapColumn  = "wordWrapColumn"
	WrapBounded = "bounded"
)

// ErrInvalid reports a preference outside its allowed range
var ErrInvalid = errors.New("invalid settings")

// Settings are the editor preferences
type Settings struct {
	FontSize      int    `json:"fontSize" toml:"font_size"`
	Minimap       bool   `json:"minimap" toml:"minimap"`
	WordWrap      string `json:"wordWrap" toml:"word_wrap"`
	AutoSave      bool   `json:"autoSave" toml:"auto_save"`
	AutoSaveDelay int    `json:"autoSaveDelay" toml:"auto_save_delay"` // milliseconds
}

// Default returns the preferences of a fresh install
func Default() Settings {
	return Settings{
		FontSize:      14,
		Minimap:       true,
		WordWrap:      WrapOn,
		AutoSave:      true,
		AutoSaveDelay: 1000,
	}
}

// Validate checks every field against its allowed range
func (s Settings) Validate() error {
	if s.FontSize < 8 || s.FontSize > 72 {
		return fmt.Errorf("%w: fontSize %d out of range 8..72", ErrInvalid, s.FontSize)
	}
	switch s.WordWrap {
	case WrapOn, WrapOff, WrapColumn, WrapBounded:
	default:
		return fmt.Errorf("%w: unknown wordWrap %q", ErrInvalid, s.WordWrap)
	}
	if s.AutoSaveDelay < 100 || s.AutoSaveDelay > 60000 {
		return fmt.Errorf("%w: autoSaveDelay %d out of range 100..60000", ErrInvalid, s.AutoSaveDelay)
	}
	return nil
}

// Delay returns AutoSaveDelay as a duration
func (s Settings) Delay() time.Duration {
	return time.Duration(s.AutoSaveDelay) * time.Millisecond
}

// Parse overlays TOML data onto base. Keys absent from data keep base values.
func Parse(data []byte, base Settings) (Settings, error) {
	out := base
	if err := toml.Unmarshal(data, &out); err != nil {
		return base, fmt.Errorf("parse settings: %w", err)
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}

// LoadFile overlays the TOML file at path onto base. An empty path or a
// missing file returns base unchanged.
func LoadFile(path string, base Settings) (Settings, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return base, nil
	}
	if err != nil {
		return base, fmt.Errorf("read settings file: %w", err)
	}
	return Parse(data, base)
}

// Encode renders settings as TOML
func Encode(s Settings) ([]byte, error) {
	return toml.Marshal(s)
}
