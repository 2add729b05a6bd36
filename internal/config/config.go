// Package config loads CLI settings from an optional config file and
// FORMRULES_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/goliatone/go-formrules/pkg/model"
)

// EnvPrefix namespaces environment overrides, e.g. FORMRULES_LOG_LEVEL.
const EnvPrefix = "FORMRULES"

// Config holds CLI settings.
type Config struct {
	LogLevel    string        `mapstructure:"log_level"`
	RestoreMode string        `mapstructure:"restore_mode"`
	Scope       string        `mapstructure:"scope"`
	Strict      bool          `mapstructure:"strict"`
	Output      string        `mapstructure:"output"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// Restore parses RestoreMode. An empty value defers to the definition.
func (c Config) Restore() (model.RestoreMode, bool, error) {
	if strings.TrimSpace(c.RestoreMode) == "" {
		return "", false, nil
	}
	mode, err := model.ParseRestoreMode(c.RestoreMode)
	if err != nil {
		return "", false, err
	}
	return mode, true, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults replaces ${VAR} and ${VAR:-default} references.
func expandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) > 2 {
			return parts[2]
		}
		return ""
	})
}

// Load reads configFile when given, otherwise looks for formrules.{yaml,json,toml}
// in the working directory and the user config dir. A missing implicit file is
// not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("output", "json")
	v.SetDefault("http_timeout", "10s")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"log_level", "restore_mode", "scope", "strict", "output", "http_timeout"} {
		_ = v.BindEnv(key)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if ext := strings.TrimLeft(filepath.Ext(configFile), "."); ext != "" {
			v.SetConfigType(ext)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("formrules")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "formrules"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if value == "" || !strings.Contains(value, "${") {
			continue
		}
		expanded := expandEnvWithDefaults(value)
		if b, err := strconv.ParseBool(expanded); err == nil && (expanded == "true" || expanded == "false") {
			v.Set(key, b)
			continue
		}
		v.Set(key, expanded)
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if _, _, err := cfg.Restore(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
