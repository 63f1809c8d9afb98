package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LoadedFiles []string `yaml:"-"` // Track all files loaded for this config
	Include     []string `yaml:"include"`
	Debug       bool     `yaml:"debug"`
	HotReload   bool     `yaml:"hotReload"`

	General  GeneralConfig  `yaml:"general"`
	Loggers  []LoggerConfig `yaml:"loggers"`
	Listener ListenerConfig `yaml:"listener"`
	Poll     PollConfig     `yaml:"poll"`
}

type GeneralConfig struct {
	SystemName    string `yaml:"systemName"`
	WelcomeBanner string `yaml:"welcomeBanner,omitempty"`
	GoodbyeBanner string `yaml:"goodbyeBanner,omitempty"`
}

type LoggerConfig struct {
	Stdout     bool   `yaml:"stdout,omitempty"`
	File       string `yaml:"file,omitempty"`
	Level      string `yaml:"level"`
	Source     bool   `yaml:"source"`
	HideTime   bool   `yaml:"hideTime,omitempty"`
	TimeFormat string `yaml:"timeFormat,omitempty"`
}

type ListenerConfig struct {
	Port  int `yaml:"port"`
	Lines int `yaml:"lines"`
}

type PollConfig struct {
	IntervalMs        int `yaml:"intervalMs"`
	StatusIntervalSec int `yaml:"statusIntervalSec"`
}

// Banner templates may reference {{.SystemName}} and any sprig function;
// they are rendered once at server start.
const (
	DefaultWelcomeBanner = "\n\r\nConnected to the {{.SystemName}} multiplexor\r\n\n"
	DefaultGoodbyeBanner = "\r\nDisconnected from the {{.SystemName}} multiplexor\r\n\n"
)

func Load(filename string) (*Config, error) {
	cfg := &Config{
		LoadedFiles: []string{},
	}

	// Keep track of processed files to avoid infinite loops
	processed := make(map[string]bool)

	if err := loadRecursive(filename, cfg, processed); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

func loadRecursive(filename string, cfg *Config, processed map[string]bool) error {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	if processed[absPath] {
		return nil // Already processed
	}
	processed[absPath] = true
	cfg.LoadedFiles = append(cfg.LoadedFiles, absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}

	// Expand environment variables in the YAML content
	expandedData := []byte(os.ExpandEnv(string(data)))

	// Unmarshal into a temporary struct to load includes first
	var tempCfg struct {
		Include []string `yaml:"include"`
	}
	if err := yaml.Unmarshal(expandedData, &tempCfg); err != nil {
		return err
	}

	baseDir := filepath.Dir(absPath)
	for _, includePath := range tempCfg.Include {
		// Resolve relative paths relative to the current config file
		fullPath := includePath
		if !filepath.IsAbs(includePath) {
			fullPath = filepath.Join(baseDir, includePath)
		}

		if err := loadRecursive(fullPath, cfg, processed); err != nil {
			return fmt.Errorf("failed to load included config %s: %w", fullPath, err)
		}
	}

	// Now apply the current file's configuration over the accumulated config
	return yaml.Unmarshal(expandedData, cfg)
}

func (c *Config) applyDefaults() {
	if c.General.SystemName == "" {
		c.General.SystemName = "telmux"
	}
	if c.General.WelcomeBanner == "" {
		c.General.WelcomeBanner = DefaultWelcomeBanner
	}
	if c.General.GoodbyeBanner == "" {
		c.General.GoodbyeBanner = DefaultGoodbyeBanner
	}
	if c.Listener.Lines <= 0 {
		c.Listener.Lines = 4
	}
	if c.Poll.IntervalMs <= 0 {
		c.Poll.IntervalMs = 10
	}
	if c.Poll.StatusIntervalSec <= 0 {
		c.Poll.StatusIntervalSec = 60
	}
}
