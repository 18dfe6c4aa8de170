// Package config provides Viper-based configuration loading for the warp randomizer.
package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/warprando/internal/warp"
)

// RandomizerConfig holds the settings of one randomization.
type RandomizerConfig struct {
	// Level is the world size, 0-10.
	Level int `mapstructure:"level"`
	// ExtraDeadendRemoval prunes warps tagged extra_deadend.
	ExtraDeadendRemoval bool `mapstructure:"extra_deadend_removal"`
	// Seed is the seed of the first attempt.
	Seed int64 `mapstructure:"seed"`
	// InGymOrder selects the strict gym-order flag table.
	InGymOrder bool `mapstructure:"in_gym_order"`
	// MaxAttempts bounds the retry loop; 0 retries until an attempt succeeds.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// WarpConfig converts the settings into the engine configuration.
func (r RandomizerConfig) WarpConfig() warp.Config {
	return warp.Config{
		Level:               r.Level,
		ExtraDeadendRemoval: r.ExtraDeadendRemoval,
		Seed:                r.Seed,
		InGymOrder:          r.InGymOrder,
	}
}

// DataConfig locates the static world data.
type DataConfig struct {
	// WorldDir is a directory of world YAML files.
	WorldDir string `mapstructure:"world_dir"`
	// Scripts is an optional Lua scorer script. Empty selects the built-in heuristic.
	Scripts string `mapstructure:"scripts"`
}

// DatabaseConfig holds PostgreSQL connection settings for the run archive.
type DatabaseConfig struct {
	// Enabled turns the run archive on.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection URL. User, password and database
// name are escaped.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File, when set, sends log output to a rotating file instead of stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// OutputConfig controls the binary remap table.
type OutputConfig struct {
	// TableCapacity is the number of record slots in the ROM table.
	TableCapacity int `mapstructure:"table_capacity"`
}

// Config is the top-level application configuration.
type Config struct {
	Randomizer RandomizerConfig `mapstructure:"randomizer"`
	Data       DataConfig       `mapstructure:"data"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Output     OutputConfig     `mapstructure:"output"`
}

// problems collects every violation found by Validate.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Validate checks all configuration invariants. Database settings are only
// checked when the archive is enabled.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var p problems
	c.Randomizer.validate(&p)
	if c.Data.WorldDir == "" {
		p.addf("data.world_dir must not be empty")
	}
	if c.Database.Enabled {
		c.Database.validate(&p)
	}
	c.Logging.validate(&p)
	if c.Output.TableCapacity < 1 {
		p.addf("output.table_capacity must be >= 1, got %d", c.Output.TableCapacity)
	}
	if len(p) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(p, "; "))
	}
	return nil
}

func (r RandomizerConfig) validate(p *problems) {
	if err := r.WarpConfig().Validate(); err != nil {
		p.addf("randomizer.%v", err)
	}
	if r.MaxAttempts < 0 {
		p.addf("randomizer.max_attempts must be >= 0, got %d", r.MaxAttempts)
	}
}

var sslModes = []string{"disable", "require", "verify-ca", "verify-full"}

func (d DatabaseConfig) validate(p *problems) {
	for _, f := range [][2]string{{"host", d.Host}, {"user", d.User}, {"name", d.Name}} {
		if f[1] == "" {
			p.addf("database.%s must not be empty", f[0])
		}
	}
	if d.Port < 1 || d.Port > 65535 {
		p.addf("database.port must be 1-65535, got %d", d.Port)
	}
	if !slices.Contains(sslModes, d.SSLMode) {
		p.addf("database.sslmode must be one of %v, got %q", sslModes, d.SSLMode)
	}
	switch {
	case d.MaxConns < 1:
		p.addf("database.max_conns must be >= 1, got %d", d.MaxConns)
	case d.MinConns < 0 || d.MinConns > d.MaxConns:
		p.addf("database.min_conns must be 0-%d, got %d", d.MaxConns, d.MinConns)
	}
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "console"}
)

func (l LoggingConfig) validate(p *problems) {
	if !slices.Contains(logLevels, l.Level) {
		p.addf("logging.level must be one of %v, got %q", logLevels, l.Level)
	}
	if !slices.Contains(logFormats, l.Format) {
		p.addf("logging.format must be one of %v, got %q", logFormats, l.Format)
	}
	if l.File != "" && l.MaxSizeMB < 1 {
		p.addf("logging.max_size_mb must be >= 1 when logging.file is set, got %d", l.MaxSizeMB)
	}
	if l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		p.addf("logging.max_backups and logging.max_age_days must not be negative")
	}
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and WARPRANDO_ environment
// overrides applied, ready for flags to be bound to it.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("WARPRANDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("randomizer.level", warp.MaxLevel)
	v.SetDefault("randomizer.extra_deadend_removal", false)
	v.SetDefault("randomizer.seed", 0)
	v.SetDefault("randomizer.in_gym_order", false)
	v.SetDefault("randomizer.max_attempts", 0)

	v.SetDefault("data.world_dir", "content/world")
	v.SetDefault("data.scripts", "")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "warprando")
	v.SetDefault("database.password", "warprando")
	v.SetDefault("database.name", "warprando")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("logging.compress", true)

	v.SetDefault("output.table_capacity", 1024)
}
