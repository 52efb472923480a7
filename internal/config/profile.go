package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// BuildProfile overrides the builder filters. Empty fields keep the builder defaults.
type BuildProfile struct {
	TitleTypes     []string       `yaml:"title_types"`
	RoleCategories []string       `yaml:"role_categories"`
	Separator      string         `yaml:"separator"`
	Columns        ProfileColumns `yaml:"columns"`
}

// ProfileColumns renames the header fields read from each table.
type ProfileColumns struct {
	TitleID               string `yaml:"title_id"`
	TitleType             string `yaml:"title_type"`
	TitleName             string `yaml:"title_name"`
	ParticipationTitleID  string `yaml:"participation_title_id"`
	ParticipationPersonID string `yaml:"participation_person_id"`
	ParticipationCategory string `yaml:"participation_category"`
	PersonID              string `yaml:"person_id"`
	PersonName            string `yaml:"person_name"`
}

// SeparatorRune returns the configured separator, or 0 when unset.
func (p BuildProfile) SeparatorRune() rune {
	r, _ := utf8.DecodeRuneInString(p.Separator)
	if r == utf8.RuneError {
		return 0
	}
	return r
}

// LoadBuildProfile reads a YAML build profile from path.
func LoadBuildProfile(path string) (BuildProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BuildProfile{}, fmt.Errorf("read build profile: %w", err)
	}

	var profile BuildProfile
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return BuildProfile{}, fmt.Errorf("parse build profile %s: %w", path, err)
	}
	if utf8.RuneCountInString(profile.Separator) > 1 {
		return BuildProfile{}, fmt.Errorf("build profile %s: separator %q must be a single character", path, profile.Separator)
	}
	return profile, nil
}
