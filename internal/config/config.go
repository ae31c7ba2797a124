package config

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// DefaultProfile is activated when neither a CLI flag nor APP_PROFILE
	// selects one.
	DefaultProfile = "dev"

	// EnvPrefix is shared by every override variable (APP_PORT, APP_DEBUG, ...).
	EnvPrefix = "APP_"

	defaultHost         = "0.0.0.0"
	defaultPort         = 8080
	defaultLoggingLevel = "INFO"

	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// LoggingLevels enumerates the accepted logging_level values. Input is matched
// case-insensitively and normalized to this spelling.
var LoggingLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// Settings is the resolved, validated runtime configuration. Instances are
// immutable: a reload produces a fresh Settings and swaps it wholesale, it
// never mutates one that is already visible to readers.
type Settings struct {
	Environment  string
	Debug        bool
	Host         string
	Port         int
	LoggingLevel string

	RequestLogging bool
	RateLimitRPS   float64
	RateLimitBurst int

	ShutdownGracePeriod time.Duration
	ReadHeaderTimeout   time.Duration
	WriteTimeout        time.Duration
	IdleTimeout         time.Duration
}

// Addr returns the host:port the HTTP server binds to.
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Overrides holds command-line flag overrides. They are applied last and beat
// both the profile file and environment variables.
type Overrides struct {
	Profile      string
	Host         *string
	Port         *string
	LoggingLevel *string
	Debug        *bool
}

// envOverrides captures the raw override variables. Values stay strings so the
// same token validation applies to file and environment input alike.
type envOverrides struct {
	Profile        *string `env:"PROFILE"`
	Env            *string `env:"ENV"`
	Debug          *string `env:"DEBUG"`
	Host           *string `env:"HOST"`
	Port           *string `env:"PORT"`
	LoggingLevel   *string `env:"LOGGING_LEVEL"`
	RequestLogging *string `env:"REQUEST_LOGGING"`
	RateLimitRPS   *string `env:"RATE_LIMIT_RPS"`
	RateLimitBurst *string `env:"RATE_LIMIT_BURST"`
}

// Loader resolves Settings from its sources with precedence:
// CLI flags > environment variables > profile section > default section > built-in defaults.
//
// Environment is injectable so resolution can be tested without touching the
// process environment; nil means the real one.
type Loader struct {
	ProfilePath string
	Environment map[string]string
	Overrides   *Overrides
}

// Resolve merges all sources into a validated Settings. It either returns a
// complete Settings or an error, never a partially applied one.
func (l *Loader) Resolve() (*Settings, error) {
	fromEnv, err := l.parseEnv()
	if err != nil {
		return nil, err
	}

	name := l.profileName(fromEnv)
	if name == "" {
		return nil, &ValidationError{Field: "profile", Value: "", Reason: "profile name must not be empty"}
	}

	profiles, err := loadProfiles(l.ProfilePath)
	if err != nil {
		return nil, err
	}

	selected, err := selectProfile(profiles, name)
	if err != nil {
		return nil, err
	}

	settings := defaultSettings(name)
	if err := applyProfile(settings, selected); err != nil {
		return nil, err
	}
	if err := applyEnv(settings, fromEnv); err != nil {
		return nil, err
	}
	if err := applyOverrides(settings, l.Overrides); err != nil {
		return nil, err
	}
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

func (l *Loader) parseEnv() (*envOverrides, error) {
	overrides := &envOverrides{}
	opts := env.Options{Prefix: EnvPrefix}
	if l.Environment != nil {
		opts.Environment = l.Environment
	}
	if err := env.ParseWithOptions(overrides, opts); err != nil {
		return nil, fmt.Errorf("parse environment overrides: %w", err)
	}
	return overrides, nil
}

func (l *Loader) profileName(fromEnv *envOverrides) string {
	if l.Overrides != nil && l.Overrides.Profile != "" {
		return l.Overrides.Profile
	}
	if fromEnv.Profile != nil {
		return strings.TrimSpace(*fromEnv.Profile)
	}
	return DefaultProfile
}

// defaultSettings returns the built-in defaults for the named profile. The
// environment name defaults to the profile name itself.
func defaultSettings(name string) *Settings {
	return &Settings{
		Environment:         name,
		Host:                defaultHost,
		Port:                defaultPort,
		LoggingLevel:        defaultLoggingLevel,
		RequestLogging:      true,
		RateLimitRPS:        defaultRateLimitRPS,
		RateLimitBurst:      defaultRateLimitBurst,
		ShutdownGracePeriod: 10 * time.Second,
		ReadHeaderTimeout:   5 * time.Second,
		WriteTimeout:        15 * time.Second,
		IdleTimeout:         60 * time.Second,
	}
}

// applyProfile copies the values a profile section defines onto the settings.
func applyProfile(settings *Settings, p *profile) error {
	if p.Env != nil {
		settings.Environment = *p.Env
	}
	if p.Debug != nil {
		value, err := coerceBool("debug", p.Debug)
		if err != nil {
			return err
		}
		settings.Debug = value
	}
	if p.Host != nil {
		settings.Host = *p.Host
	}
	if p.Port != nil {
		port, err := coercePort("port", p.Port)
		if err != nil {
			return err
		}
		settings.Port = port
	}
	if p.LoggingLevel != nil {
		level, err := normalizeLevel("logging_level", *p.LoggingLevel)
		if err != nil {
			return err
		}
		settings.LoggingLevel = level
	}
	if p.RequestLogging != nil {
		value, err := coerceBool("request_logging", p.RequestLogging)
		if err != nil {
			return err
		}
		settings.RequestLogging = value
	}
	if p.RateLimitRPS != nil {
		settings.RateLimitRPS = *p.RateLimitRPS
	}
	if p.RateLimitBurst != nil {
		settings.RateLimitBurst = *p.RateLimitBurst
	}

	durations := []struct {
		field string
		raw   *string
		dst   *time.Duration
	}{
		{"shutdown_grace_period", p.ShutdownGracePeriod, &settings.ShutdownGracePeriod},
		{"read_header_timeout", p.ReadHeaderTimeout, &settings.ReadHeaderTimeout},
		{"write_timeout", p.WriteTimeout, &settings.WriteTimeout},
		{"idle_timeout", p.IdleTimeout, &settings.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(*d.raw))
		if err != nil {
			return &ValidationError{Field: d.field, Value: *d.raw, Reason: "must be a duration such as 10s or 1m"}
		}
		*d.dst = parsed
	}

	return nil
}

// applyEnv copies the override variables onto the settings. Environment
// variables beat the profile file.
func applyEnv(settings *Settings, fromEnv *envOverrides) error {
	if fromEnv.Env != nil && *fromEnv.Env != "" {
		settings.Environment = *fromEnv.Env
	}
	if fromEnv.Debug != nil {
		value, err := parseBoolToken("debug", *fromEnv.Debug)
		if err != nil {
			return err
		}
		settings.Debug = value
	}
	if fromEnv.Host != nil && *fromEnv.Host != "" {
		settings.Host = *fromEnv.Host
	}
	if fromEnv.Port != nil {
		port, err := parsePort("port", *fromEnv.Port)
		if err != nil {
			return err
		}
		settings.Port = port
	}
	if fromEnv.LoggingLevel != nil {
		level, err := normalizeLevel("logging_level", *fromEnv.LoggingLevel)
		if err != nil {
			return err
		}
		settings.LoggingLevel = level
	}
	if fromEnv.RequestLogging != nil {
		value, err := parseBoolToken("request_logging", *fromEnv.RequestLogging)
		if err != nil {
			return err
		}
		settings.RequestLogging = value
	}
	if fromEnv.RateLimitRPS != nil {
		value, err := strconv.ParseFloat(strings.TrimSpace(*fromEnv.RateLimitRPS), 64)
		if err != nil || value < 0 {
			return &ValidationError{Field: "rate_limit_rps", Value: *fromEnv.RateLimitRPS, Reason: "must be a non-negative number"}
		}
		settings.RateLimitRPS = value
	}
	if fromEnv.RateLimitBurst != nil {
		value, err := strconv.Atoi(strings.TrimSpace(*fromEnv.RateLimitBurst))
		if err != nil || value < 0 {
			return &ValidationError{Field: "rate_limit_burst", Value: *fromEnv.RateLimitBurst, Reason: "must be a non-negative integer"}
		}
		settings.RateLimitBurst = value
	}

	return nil
}

// applyOverrides copies CLI flag overrides onto the settings. Flags have the
// highest precedence.
func applyOverrides(settings *Settings, overrides *Overrides) error {
	if overrides == nil {
		return nil
	}
	if overrides.Host != nil && *overrides.Host != "" {
		settings.Host = *overrides.Host
	}
	if overrides.Port != nil && *overrides.Port != "" {
		port, err := parsePort("port", *overrides.Port)
		if err != nil {
			return err
		}
		settings.Port = port
	}
	if overrides.LoggingLevel != nil && *overrides.LoggingLevel != "" {
		level, err := normalizeLevel("logging_level", *overrides.LoggingLevel)
		if err != nil {
			return err
		}
		settings.LoggingLevel = level
	}
	if overrides.Debug != nil {
		settings.Debug = *overrides.Debug
	}
	return nil
}

// validateSettings checks the fully merged result. Field-level parsing already
// rejected malformed tokens; this guards the cross-source invariants.
func validateSettings(settings *Settings) error {
	if strings.TrimSpace(settings.Environment) == "" {
		return &ValidationError{Field: "env", Value: settings.Environment, Reason: "environment name must not be empty"}
	}
	if settings.Port < 1 || settings.Port > 65535 {
		return &ValidationError{Field: "port", Value: strconv.Itoa(settings.Port), Reason: "must be between 1 and 65535"}
	}
	if !slices.Contains(LoggingLevels, settings.LoggingLevel) {
		return &ValidationError{Field: "logging_level", Value: settings.LoggingLevel, Reason: levelReason()}
	}
	if settings.RateLimitRPS < 0 {
		return &ValidationError{Field: "rate_limit_rps", Value: strconv.FormatFloat(settings.RateLimitRPS, 'f', -1, 64), Reason: "must be a non-negative number"}
	}
	if settings.RateLimitBurst < 0 {
		return &ValidationError{Field: "rate_limit_burst", Value: strconv.Itoa(settings.RateLimitBurst), Reason: "must be a non-negative integer"}
	}
	return nil
}

// coercePort accepts the numeric types the file decoders produce as well as
// numeric strings, and validates the range.
func coercePort(field string, raw any) (int, error) {
	switch value := raw.(type) {
	case int:
		return validatePortRange(field, value)
	case int64:
		return validatePortRange(field, int(value))
	case uint64:
		return validatePortRange(field, int(value))
	case float64:
		if value != float64(int(value)) {
			return 0, &ValidationError{Field: field, Value: strconv.FormatFloat(value, 'f', -1, 64), Reason: "must be an integer"}
		}
		return validatePortRange(field, int(value))
	case string:
		return parsePort(field, value)
	default:
		return 0, &ValidationError{Field: field, Value: fmt.Sprint(raw), Reason: "must be an integer"}
	}
}

func parsePort(field, raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ValidationError{Field: field, Value: raw, Reason: "must be an integer"}
	}
	return validatePortRange(field, value)
}

func validatePortRange(field string, value int) (int, error) {
	if value < 1 || value > 65535 {
		return 0, &ValidationError{Field: field, Value: strconv.Itoa(value), Reason: "must be between 1 and 65535"}
	}
	return value, nil
}

// coerceBool accepts native booleans from the file decoders and the textual
// tokens used by environment variables.
func coerceBool(field string, raw any) (bool, error) {
	switch value := raw.(type) {
	case bool:
		return value, nil
	case string:
		return parseBoolToken(field, value)
	default:
		return false, &ValidationError{Field: field, Value: fmt.Sprint(raw), Reason: boolReason}
	}
}

const boolReason = `must be "true" or "false"`

func parseBoolToken(field, raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, &ValidationError{Field: field, Value: raw, Reason: boolReason}
	}
}

// normalizeLevel matches the logging level case-insensitively and returns the
// canonical uppercase spelling.
func normalizeLevel(field, raw string) (string, error) {
	level := strings.ToUpper(strings.TrimSpace(raw))
	if !slices.Contains(LoggingLevels, level) {
		return "", &ValidationError{Field: field, Value: raw, Reason: levelReason()}
	}
	return level, nil
}

func levelReason() string {
	return "must be one of " + strings.Join(LoggingLevels, ", ")
}
