// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/catalog"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Tracker    TrackerConfig         `toml:"tracker"`
	Range      map[string]SlotConfig `toml:"range" validate:"dive,keys,oneof=IAL IGCSE,endkeys"`
	Ceiling    map[string]SlotConfig `toml:"ceiling" validate:"dive,keys,oneof=IAL IGCSE,endkeys"`
	Exclusions []model.ExclusionRule `toml:"exclusions"`
}

// TrackerConfig maps tracker-related settings.
type TrackerConfig struct {
	Mode       *string `toml:"mode" validate:"omitempty,oneof=IAL IGCSE"`
	Subject    *string `toml:"subject" validate:"omitempty,min=1"`
	DebounceMs *int    `toml:"debounce-ms" validate:"omitempty,gte=0,lte=60000"`
}

// SlotConfig is one year/session pair.
type SlotConfig struct {
	Year    int    `toml:"year" validate:"gte=1900,lte=2999"`
	Session string `toml:"session" validate:"required,oneof=Jan Jun Oct Nov"`
}

var validate = validator.New()

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return FileConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	if err := validateSlots("range", cfg.Range); err != nil {
		return FileConfig{}, err
	}
	if err := validateSlots("ceiling", cfg.Ceiling); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

// validateSlots checks every [section.<mode>] table; the struct tag on the
// map only covers its keys.
func validateSlots(section string, slots map[string]SlotConfig) error {
	modes := make([]string, 0, len(slots))
	for mode := range slots {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	for _, mode := range modes {
		if err := validate.Struct(slots[mode]); err != nil {
			return fmt.Errorf("invalid [%s.%s]: %w", section, mode, err)
		}
	}
	return nil
}

// Catalog applies the range, ceiling and exclusion sections on top of base.
func (c FileConfig) Catalog(base *catalog.Catalog) (*catalog.Catalog, error) {
	if len(c.Range) == 0 && len(c.Ceiling) == 0 && len(c.Exclusions) == 0 {
		return base, nil
	}
	starts, err := slotsByMode(c.Range)
	if err != nil {
		return nil, fmt.Errorf("invalid [range]: %w", err)
	}
	ceilings, err := slotsByMode(c.Ceiling)
	if err != nil {
		return nil, fmt.Errorf("invalid [ceiling]: %w", err)
	}
	rules := make([]model.ExclusionRule, 0, len(c.Exclusions))
	for i, rule := range c.Exclusions {
		if rule.Mode != nil {
			mode, err := model.ParseMode(string(*rule.Mode))
			if err != nil {
				return nil, fmt.Errorf("invalid exclusion %d: %w", i+1, err)
			}
			rule.Mode = &mode
		}
		if rule.Session != nil {
			sess, err := model.ParseSession(string(*rule.Session))
			if err != nil {
				return nil, fmt.Errorf("invalid exclusion %d: %w", i+1, err)
			}
			rule.Session = &sess
		}
		rules = append(rules, rule)
	}
	cat, err := base.WithOverrides(ceilings, starts, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to apply config to catalog: %w", err)
	}
	return cat, nil
}

func slotsByMode(in map[string]SlotConfig) (map[model.Mode]model.YearSession, error) {
	out := make(map[model.Mode]model.YearSession, len(in))
	for key, slot := range in {
		mode, err := model.ParseMode(key)
		if err != nil {
			return nil, err
		}
		sess, err := model.ParseSession(slot.Session)
		if err != nil {
			return nil, err
		}
		out[mode] = model.YearSession{Year: slot.Year, Session: sess}
	}
	return out, nil
}
