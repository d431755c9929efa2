package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the full daemon configuration as loaded from file, environment
// and flags.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Debug    bool           `mapstructure:"debug" yaml:"debug"`
}

// DatabaseConfig selects the storage engine and its DSN.
type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	DSN  string `mapstructure:"dsn" yaml:"dsn"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "./boxdir.db",
		"server.listen": ":5000",
		"debug":         false,
	}
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		// System-wide configuration paths
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Boxdir")
		default: // Linux, macOS, etc.
			configDir = "/etc/boxdir"
		}
	} else {
		// User-specific configuration paths
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "boxdir")
	}

	return filepath.Join(configDir, "boxdir.yaml"), nil
}

// LoadConfig resolves configuration with the usual precedence: flags over
// environment over config file over defaults. An explicit config file path
// (from --config) wins over the standard search locations.
func LoadConfig(cmd *cobra.Command, configFilePath string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("boxdir")
	v.SetConfigType("yaml")

	if configFilePath != "" {
		v.SetConfigFile(configFilePath)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for boxdir.yaml in current dir

	if err := v.ReadInConfig(); err != nil {
		// It's okay if the file is not found, but other errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("boxdir")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Flag names and config keys differ (db-type vs database.type), so the
	// flags are bound to their keys explicitly.
	for key, flagName := range map[string]string{
		"database.type": "db-type",
		"database.dsn":  "db-dsn",
		"server.listen": "listen",
		"debug":         "debug",
	} {
		f := cmd.Flags().Lookup(flagName)
		if f == nil {
			f = cmd.InheritedFlags().Lookup(flagName)
		}
		if f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return c, err
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// WriteConfigFile persists the configuration to the user or system config
// location, creating the directory as needed.
func WriteConfigFile(c *Config, system bool) (string, error) {
	path, err := getConfigPath(system)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}

	return path, nil
}
