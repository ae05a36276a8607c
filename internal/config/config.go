package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	IndexDir     string    `mapstructure:"index_dir"`
	GraphicsDir  string    `mapstructure:"graphics_dir"`
	Database     string    `mapstructure:"database"`
	HeadSystem   string    `mapstructure:"head_system"`
	HelmetSystem string    `mapstructure:"helmet_system"`
	LogLevel     string    `mapstructure:"log_level"`
	LogFormat    string    `mapstructure:"log_format"`
	Workers      int       `mapstructure:"workers"`
	Detection    Detection `mapstructure:"detection"`
}

// Detection holds the sprite segmentation tunables
type Detection struct {
	AlphaThreshold int `mapstructure:"alpha_threshold"`
	MinPixels      int `mapstructure:"min_pixels"`
	MinSize        int `mapstructure:"min_size"`
	MergeDistance  int `mapstructure:"merge_distance"`
}

// Load initializes and loads configuration from file
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("index_dir", "INIT")
	v.SetDefault("graphics_dir", "Graficos")
	v.SetDefault("database", "aoind.db")
	v.SetDefault("head_system", "directional")
	v.SetDefault("helmet_system", "directional")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("workers", 4)
	v.SetDefault("detection.alpha_threshold", 0)
	v.SetDefault("detection.min_pixels", 5)
	v.SetDefault("detection.min_size", 3)
	v.SetDefault("detection.merge_distance", 0)

	// Config file handling
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName("aoind")
		v.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks enumerated fields and numeric ranges. It is called again by
// the CLI after flag overrides are applied.
func (c *Config) Validate() error {
	if err := oneOf("log_level", c.LogLevel, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	if err := oneOf("log_format", c.LogFormat, "text", "json"); err != nil {
		return err
	}
	if err := oneOf("head_system", c.HeadSystem, "directional", "mold"); err != nil {
		return err
	}
	if err := oneOf("helmet_system", c.HelmetSystem, "directional", "mold"); err != nil {
		return err
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	d := c.Detection
	if d.AlphaThreshold < 0 || d.AlphaThreshold > 255 {
		return fmt.Errorf("detection.alpha_threshold must be between 0 and 255, got %d", d.AlphaThreshold)
	}
	if d.MinPixels < 0 || d.MinSize < 0 || d.MergeDistance < 0 {
		return fmt.Errorf("detection values cannot be negative")
	}

	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s '%s': expected one of %v", field, value, allowed)
}
