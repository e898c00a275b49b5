package prefs

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/coni/hyperisle/internal/shared/types"
)

// Preset names selectable as a single unit
const (
	PresetMeeting    = "MEETING"
	PresetDriving    = "DRIVING"
	PresetHeadphones = "HEADPHONES"
)

// PresetBundle is one named bundle of context-filtering rules.
type PresetBundle struct {
	Allow []string `yaml:"allow"`
}

// Presets maps preset name to its allow-set.
type Presets map[string]PresetBundle

// presetFile is the YAML document shape.
type presetFile struct {
	Presets Presets `yaml:"presets"`
}

// DefaultPresets returns the built-in preset bundles. Each allow-set
// is narrower than the raw context filter.
func DefaultPresets() Presets {
	return Presets{
		PresetMeeting:    {Allow: []string{string(types.CategoryCall), string(types.CategoryAlarm)}},
		PresetDriving:    {Allow: []string{string(types.CategoryCall), string(types.CategoryNavigation)}},
		PresetHeadphones: {Allow: []string{string(types.CategoryCall), string(types.CategoryMessage)}},
	}
}

// LoadPresets reads preset bundles from a YAML file, falling back to
// the built-ins when the file is absent.
func LoadPresets(path string) (Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPresets(), nil
		}
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var doc presetFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	if len(doc.Presets) == 0 {
		return DefaultPresets(), nil
	}
	return doc.Presets, nil
}

// Allows reports whether the named preset admits a category. An
// unknown preset admits everything; presets never apply to media.
func (p Presets) Allows(name string, cat types.Category) bool {
	if cat == types.CategoryMedia {
		return true
	}
	bundle, ok := p[strings.ToUpper(name)]
	if !ok {
		return true
	}
	for _, allowed := range bundle.Allow {
		if strings.EqualFold(allowed, string(cat)) {
			return true
		}
	}
	return false
}
