package sprig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ScriptConfig selects the script engine and the entry script.
type ScriptConfig struct {
	// Engine is "none", "lua" or "js".
	Engine string `mapstructure:"engine"`
	Dir    string `mapstructure:"dir"`
	Main   string `mapstructure:"main"`
}

// WindowConfig holds the game window settings.
type WindowConfig struct {
	Title  string `mapstructure:"title"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
}

// Config is the top-level configuration of a sprig program.
type Config struct {
	Debug   bool          `mapstructure:"debug"`
	Logging LoggingConfig `mapstructure:"logging"`
	Script  ScriptConfig  `mapstructure:"script"`
	Window  WindowConfig  `mapstructure:"window"`
}

// ScriptType maps Script.Engine to a ScriptType.
func (c Config) ScriptType() ScriptType {
	switch c.Script.Engine {
	case "lua":
		return ScriptTypeLua
	case "js":
		return ScriptTypeJavaScript
	default:
		return ScriptTypeNone
	}
}

// RunConfig returns the window settings for Run.
func (c Config) RunConfig() RunConfig {
	return RunConfig{Title: c.Window.Title, Width: c.Window.Width, Height: c.Window.Height}
}

// Validate checks all configuration invariants.
func (c Config) Validate() error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", c.Logging.Format))
	}
	validEngines := map[string]bool{"none": true, "lua": true, "js": true}
	if !validEngines[c.Script.Engine] {
		errs = append(errs, fmt.Sprintf("script.engine must be one of [none, lua, js], got %q", c.Script.Engine))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Sprintf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if len(errs) > 0 {
		return errors.New("configuration validation failed: " + strings.Join(errs, "; "))
	}
	return nil
}

// LoadConfig reads configuration from path, applies SPRIG_ environment
// overrides and validates the result. An empty path uses defaults and the
// environment only.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SPRIG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadConfigFromViper(v)
}

// LoadConfigFromViper builds a Config from an already configured Viper.
func LoadConfigFromViper(v *viper.Viper) (Config, error) {
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
	v.SetDefault("debug", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("script.engine", "none")
	v.SetDefault("script.dir", "scripts")
	v.SetDefault("script.main", "")
	v.SetDefault("window.title", "sprig")
	v.SetDefault("window.width", 640)
	v.SetDefault("window.height", 480)
}
