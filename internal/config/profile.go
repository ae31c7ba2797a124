package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// defaultSection is an optional section that every named profile inherits
// values from.
const defaultSection = "default"

// profile holds the raw values of a single section in the profile file.
// Port and the boolean fields stay loosely typed so that a malformed value
// surfaces as a ValidationError naming the field rather than as an opaque
// decoder error.
type profile struct {
	Env            *string  `toml:"env" yaml:"env"`
	Debug          any      `toml:"debug" yaml:"debug"`
	Host           *string  `toml:"host" yaml:"host"`
	Port           any      `toml:"port" yaml:"port"`
	LoggingLevel   *string  `toml:"logging_level" yaml:"logging_level"`
	RequestLogging any      `toml:"request_logging" yaml:"request_logging"`
	RateLimitRPS   *float64 `toml:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst *int     `toml:"rate_limit_burst" yaml:"rate_limit_burst"`

	ShutdownGracePeriod *string `toml:"shutdown_grace_period" yaml:"shutdown_grace_period"`
	ReadHeaderTimeout   *string `toml:"read_header_timeout" yaml:"read_header_timeout"`
	WriteTimeout        *string `toml:"write_timeout" yaml:"write_timeout"`
	IdleTimeout         *string `toml:"idle_timeout" yaml:"idle_timeout"`
}

// loadProfiles reads the profile file and decodes every section. TOML is the
// native format; .yaml/.yml files with top-level mappings as sections are
// accepted as well.
func loadProfiles(path string) (map[string]*profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("read profile file: %w", err)
	}

	profiles := make(map[string]*profile)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &profiles); err != nil {
			return nil, fmt.Errorf("parse YAML profiles: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, &profiles); err != nil {
			return nil, fmt.Errorf("parse TOML profiles: %w", err)
		}
	}

	return profiles, nil
}

// selectProfile picks the named section and folds the default section into any
// field the profile leaves unset. The default section itself is a valid target.
func selectProfile(profiles map[string]*profile, name string) (*profile, error) {
	p, ok := profiles[name]
	if !ok || p == nil {
		return nil, &NotFoundError{Profile: name}
	}

	merged := *p
	if base, ok := profiles[defaultSection]; ok && base != nil && name != defaultSection {
		if err := mergo.Merge(&merged, *base); err != nil {
			return nil, fmt.Errorf("merge default profile: %w", err)
		}
	}

	return &merged, nil
}
