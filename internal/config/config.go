package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Data source modes. The mode is explicit configuration handed to the
// assembler wiring; nothing downstream toggles it at runtime.
const (
	SourceLive    = "live"    // query the clinical research database
	SourceFixture = "fixture" // replay serialized per-case extracts
)

type Config struct {
	Env           string   `mapstructure:"ENV"`
	SourceMode    string   `mapstructure:"SOURCE_MODE"`
	DatabaseURL   string   `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32    `mapstructure:"DB_MIN_CONNS"`
	FixtureDir    string   `mapstructure:"FIXTURE_DIR"`
	TablesDir     string   `mapstructure:"TABLES_DIR"`
	OutputDir     string   `mapstructure:"OUTPUT_DIR"`
	CaseTimesFile string   `mapstructure:"CASE_TIMES_FILE"`
	Workers       int      `mapstructure:"WORKERS"`
	NoteTypes     []string `mapstructure:"NOTE_TYPES"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("SOURCE_MODE", SourceFixture)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("TABLES_DIR", "tables")
	v.SetDefault("OUTPUT_DIR", "cases")
	v.SetDefault("WORKERS", 4)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("SOURCE_MODE")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("FIXTURE_DIR")
	v.BindEnv("TABLES_DIR")
	v.BindEnv("OUTPUT_DIR")
	v.BindEnv("CASE_TIMES_FILE")
	v.BindEnv("WORKERS")
	v.BindEnv("NOTE_TYPES")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.NoteTypes == nil {
		types := v.GetString("NOTE_TYPES")
		if types != "" {
			cfg.NoteTypes = strings.Split(types, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration can actually drive a run: a
// recognized source mode with the inputs that mode needs, and somewhere to
// write.
func (c *Config) Validate() error {
	switch c.SourceMode {
	case SourceLive:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SOURCE_MODE is %q", SourceLive)
		}
	case SourceFixture:
		if c.FixtureDir == "" {
			return fmt.Errorf("FIXTURE_DIR is required when SOURCE_MODE is %q", SourceFixture)
		}
	default:
		return fmt.Errorf("SOURCE_MODE must be %q or %q, got %q", SourceLive, SourceFixture, c.SourceMode)
	}
	if c.TablesDir == "" {
		return fmt.Errorf("TABLES_DIR is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers)
	}
	return nil
}
