package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/dslh/cadscript-mcp/internal/paths"
)

// Config is the service configuration
type Config struct {
	// Registry is a path to a registry document; empty uses the embedded one.
	Registry   string     `mapstructure:"registry"`
	HTTP       HTTPConfig `mapstructure:"http"`
	Log        LogConfig  `mapstructure:"log"`
	ExportDir  string     `mapstructure:"export_dir"`
	ScriptsDir string     `mapstructure:"scripts_dir"`
}

// HTTPConfig holds the HTTP transport settings
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registry", "")
	v.SetDefault("http.host", "127.0.0.1")
	v.SetDefault("http.port", 8000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.file", "")
	v.SetDefault("export_dir", "")
	v.SetDefault("scripts_dir", "")
}

// Load reads configuration from configPath, or from config.yaml in the data
// directory when configPath is empty. A missing default file is not an error;
// a missing explicit one is. CADSCRIPT_* environment variables override both.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CADSCRIPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := configPath != ""
	if !explicit {
		p, err := paths.GetConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if explicit {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}
	if err := cfg.fillDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expand performs ${VAR} expansion on path values
func (c *Config) expand() error {
	fields := map[string]*string{
		"registry":    &c.Registry,
		"export_dir":  &c.ExportDir,
		"scripts_dir": &c.ScriptsDir,
		"log.file":    &c.Log.File,
	}
	for key, field := range fields {
		expanded, err := expandString(*field)
		if err != nil {
			return fmt.Errorf("error expanding %s: %w", key, err)
		}
		*field = expanded
	}
	return nil
}

func (c *Config) fillDirs() error {
	if c.ExportDir == "" {
		dir, err := paths.GetExportDir()
		if err != nil {
			return err
		}
		c.ExportDir = dir
	}
	if c.ScriptsDir == "" {
		dir, err := paths.GetScriptsDir()
		if err != nil {
			return err
		}
		c.ScriptsDir = dir
	}
	return nil
}

// envVarPattern matches ${VAR_NAME} patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandString expands ${VAR} environment variable references in a string.
// Unset variables expand to the empty string.
func expandString(s string) (string, error) {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	}), nil
}

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true,
	"error": true, "fatal": true, "panic": true, "disabled": true,
}

// Validate checks the configuration for basic validity
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if strings.TrimSpace(c.HTTP.Host) == "" {
		return fmt.Errorf("http.host is empty")
	}
	if !logLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return nil
}
