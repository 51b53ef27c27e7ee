package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfigPath = "CUBETILE_CONFIG"

// Config represents the cubetile configuration file (~/.config/cubetile/config.yaml).
// Scalar options are pointers so we can distinguish "not set" from zero values.
type Config struct {
	TargetsDir string `yaml:"targets_dir"`

	// Planning defaults
	Target string `yaml:"target"`
	Format string `yaml:"format"`
	Verify *bool  `yaml:"verify"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string         `yaml:"server_address"`
	ReadTimeout   *time.Duration `yaml:"read_timeout"`
}

func configPath() string {
	if p := os.Getenv(envConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cubetile", "config.yaml")
}

// applyGlobalConfig applies config file defaults to the root flags when the
// corresponding flag was not explicitly set.
func applyGlobalConfig(c *cli.Command, cfg Config) {
	if cfg.TargetsDir != "" && !c.IsSet("targets-dir") {
		targetsDir = cfg.TargetsDir
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyPlanConfig applies config file defaults to plan command variables.
func applyPlanConfig(c *cli.Command, cfg Config, targetName, format *string, verify *bool) {
	if cfg.Target != "" && !c.IsSet("target") {
		*targetName = cfg.Target
	}
	if cfg.Format != "" && !c.IsSet("format") {
		*format = cfg.Format
	}
	if cfg.Verify != nil && !c.IsSet("verify") {
		*verify = *cfg.Verify
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, readTimeout *time.Duration) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.ReadTimeout != nil && !c.IsSet("read-timeout") {
		*readTimeout = *cfg.ReadTimeout
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	cfg, err := loadConfigFile(path)
	if err != nil {
		return Config{}
	}
	return cfg
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
