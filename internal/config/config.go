package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"freecal/internal/availability"
	"freecal/internal/ics"
	"freecal/internal/present"
)

const (
	defaultURLFile     = "ical_url"
	defaultTimezone    = "America/Chicago"
	defaultDayStart    = "09:00"
	defaultDayEnd      = "18:00"
	defaultWeekdays    = 5
	defaultRefreshCron = "*/15 * * * *"
	defaultListen      = "127.0.0.1:8080"
	defaultLogLevel    = "info"
	defaultMaxOccur    = 5000
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the HTTP API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// URL is the ICS feed endpoint. If empty, it is read from URLFile.
	URL string `yaml:"url" json:"url"`
	// URLFile holds the feed URL on a single line (default "ical_url").
	URLFile string `yaml:"url_file" json:"url_file"`

	// Timezone is the IANA zone of the working window (e.g. "America/Chicago").
	Timezone string `yaml:"timezone" json:"timezone"`
	// DayStart / DayEnd are the working window clock times ("09:00", "18:00").
	DayStart string `yaml:"day_start" json:"day_start"`
	DayEnd   string `yaml:"day_end" json:"day_end"`

	// DisplayTimezone, if set, adds converted times to the output.
	DisplayTimezone string `yaml:"display_timezone,omitempty" json:"display_timezone,omitempty"`

	// RangeDays is the recurrence expansion horizon.
	RangeDays int `yaml:"range_days" json:"range_days"`
	// Weekdays is the number of weekdays to report.
	Weekdays int `yaml:"weekdays" json:"weekdays"`

	// TimezoneAliases maps non-IANA TZIDs found in feeds to IANA names.
	TimezoneAliases map[string]string `yaml:"timezone_aliases" json:"timezone_aliases"`
	// ZoneNames maps IANA names to short labels used in the output.
	ZoneNames map[string]string `yaml:"zone_names" json:"zone_names"`

	SkipCancelled   bool `yaml:"skip_cancelled" json:"skip_cancelled"`
	SkipTransparent bool `yaml:"skip_transparent" json:"skip_transparent"`

	MaxOccurrencesPerEvent int `yaml:"max_occurrences_per_event" json:"max_occurrences_per_event"`

	// Refresh is a cron schedule for serve mode (e.g. "*/15 * * * *").
	Refresh string `yaml:"refresh" json:"refresh"`
	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen" json:"listen"`
	// CacheDir enables the conditional HTTP cache for the feed when set.
	CacheDir string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
	// CORSOrigins lists browser origins allowed to call the HTTP API.
	CORSOrigins []string `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		URLFile:                defaultURLFile,
		Timezone:               defaultTimezone,
		DayStart:               defaultDayStart,
		DayEnd:                 defaultDayEnd,
		RangeDays:              ics.DefaultRangeDays,
		Weekdays:               defaultWeekdays,
		TimezoneAliases:        ics.DefaultTimezoneAliases(),
		ZoneNames:              present.DefaultZoneNames(),
		SkipCancelled:          true,
		SkipTransparent:        true,
		MaxOccurrencesPerEvent: defaultMaxOccur,
		Refresh:                defaultRefreshCron,
		Listen:                 defaultListen,
		LogLevel:               defaultLogLevel,
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.URLFile == "" {
		c.URLFile = defaultURLFile
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.DayStart == "" {
		c.DayStart = defaultDayStart
	}
	if c.DayEnd == "" {
		c.DayEnd = defaultDayEnd
	}
	if c.RangeDays <= 0 {
		c.RangeDays = ics.DefaultRangeDays
	}
	if c.Weekdays <= 0 {
		c.Weekdays = defaultWeekdays
	}
	if c.TimezoneAliases == nil {
		c.TimezoneAliases = ics.DefaultTimezoneAliases()
	}
	if c.ZoneNames == nil {
		c.ZoneNames = present.DefaultZoneNames()
	}
	if c.MaxOccurrencesPerEvent <= 0 {
		c.MaxOccurrencesPerEvent = defaultMaxOccur
	}
	if c.Refresh == "" {
		c.Refresh = defaultRefreshCron
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Location loads the working window timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// WorkingWindow converts the configured clock times and timezone into a
// validated availability.WorkingWindow.
func (c *Config) WorkingWindow() (availability.WorkingWindow, error) {
	loc, err := c.Location()
	if err != nil {
		return availability.WorkingWindow{}, err
	}
	start, err := availability.ParseTimeOfDay(c.DayStart)
	if err != nil {
		return availability.WorkingWindow{}, fmt.Errorf("config: day_start: %w", err)
	}
	end, err := availability.ParseTimeOfDay(c.DayEnd)
	if err != nil {
		return availability.WorkingWindow{}, fmt.Errorf("config: day_end: %w", err)
	}

	w := availability.WorkingWindow{DayStart: start, DayEnd: end, Location: loc}
	if err := w.Validate(); err != nil {
		return availability.WorkingWindow{}, err
	}
	return w, nil
}

// ResolveURL returns URL, or the first line of URLFile when URL is empty.
// A relative URLFile is resolved against baseDir.
func (c *Config) ResolveURL(baseDir string) (string, error) {
	if u := strings.TrimSpace(c.URL); u != "" {
		return u, nil
	}

	path := c.URLFile
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("config: no feed url configured and %s does not exist", path)
		}
		return "", err
	}

	line, _, _ := strings.Cut(string(data), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("config: %s is empty", path)
	}
	return line, nil
}

// ApplyEnv overrides fields from FREECAL_* environment variables, after
// loading a .env file from the working directory if one exists.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("FREECAL_URL"); v != "" {
		c.URL = v
	}
	if v := os.Getenv("FREECAL_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("FREECAL_DISPLAY_TIMEZONE"); v != "" {
		c.DisplayTimezone = v
	}
	if v := os.Getenv("FREECAL_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("FREECAL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("FREECAL_WEEKDAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Weekdays = n
		}
	}
}

// Load loads configuration from the given YAML path. A missing file is not an
// error: the defaults are returned and nothing is written. Use Save (the
// "init" command) to create the file explicitly.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".freecal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
