package cfg

import (
	"fmt"
	"os"
	"strings"
	"time"

	"exoseeker/internal/common"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	DataDir          string
	DataPath         string
	Seed             int64
	TestFraction     float64
	SkipInsufficient bool
	APIPort          int
	MetricsPort      int
	LogLevel         string
	MLMode           string
	MLServiceURL     string
	MLTimeout        time.Duration
}

type ConfigFile struct {
	Data struct {
		Dir  string `yaml:"dir"`
		Path string `yaml:"path"`
	} `yaml:"data"`

	Training struct {
		Seed             int64   `yaml:"seed"`
		TestFraction     float64 `yaml:"testFraction"`
		SkipInsufficient bool    `yaml:"skipInsufficient"`
	} `yaml:"training"`

	Client struct {
		Mode       string `yaml:"mode"`
		ServiceURL string `yaml:"serviceURL"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"client"`

	System struct {
		APIPort     int    `yaml:"apiPort"`
		MetricsPort int    `yaml:"metricsPort"`
		LogLevel    string `yaml:"logLevel"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	loadDotEnv()

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	timeout, err := time.ParseDuration(config.Client.Timeout)
	if err != nil {
		timeout = 30 * time.Second
	}

	settings := Settings{
		DataDir:          getEnvOrDefault(common.EnvDataDir, orDefault(config.Data.Dir, common.DefaultDataDir)),
		DataPath:         getEnvOrDefault(common.EnvDataPath, config.Data.Path),
		Seed:             int64(getIntFromEnvOrConfig(common.EnvSeed, int(config.Training.Seed), common.DefaultSeed)),
		TestFraction:     getFloatFromEnvOrConfig(common.EnvTestFraction, config.Training.TestFraction, common.DefaultTestFraction),
		SkipInsufficient: getBoolFromEnvOrConfig(common.EnvSkipInsufficient, config.Training.SkipInsufficient),
		APIPort:          getIntFromEnvOrConfig(common.EnvAPIPort, config.System.APIPort, common.DefaultAPIPort),
		MetricsPort:      getIntFromEnvOrConfig(common.EnvMetricsPort, config.System.MetricsPort, common.DefaultMetricsPort),
		LogLevel:         getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
		MLMode:           strings.ToLower(getEnvOrDefault(common.EnvMLMode, orDefault(config.Client.Mode, common.DefaultMLMode))),
		MLServiceURL:     getEnvOrDefault(common.EnvMLServiceURL, orDefault(config.Client.ServiceURL, common.DefaultMLServiceURL)),
		MLTimeout:        getDurationOrDefault(common.EnvMLTimeout, timeout),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		DataDir:          getEnvOrDefault(common.EnvDataDir, common.DefaultDataDir),
		DataPath:         os.Getenv(common.EnvDataPath), // optional
		Seed:             int64(getIntOrDefault(common.EnvSeed, common.DefaultSeed)),
		TestFraction:     getFloatOrDefault(common.EnvTestFraction, common.DefaultTestFraction),
		SkipInsufficient: getBoolOrDefault(common.EnvSkipInsufficient, false),
		APIPort:          getIntOrDefault(common.EnvAPIPort, common.DefaultAPIPort),
		MetricsPort:      getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		LogLevel:         getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		MLMode:           strings.ToLower(getEnvOrDefault(common.EnvMLMode, common.DefaultMLMode)),
		MLServiceURL:     getEnvOrDefault(common.EnvMLServiceURL, common.DefaultMLServiceURL),
		MLTimeout:        getDurationOrDefault(common.EnvMLTimeout, 30*time.Second),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// validateSettings performs range checks on every configuration value
func validateSettings(settings *Settings) error {
	if settings.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if settings.TestFraction <= 0 || settings.TestFraction > common.MaxTestFraction {
		return fmt.Errorf("test fraction must be in (0, %.1f], got %f", common.MaxTestFraction, settings.TestFraction)
	}

	if settings.APIPort < common.MinPort || settings.APIPort > common.MaxPort {
		return fmt.Errorf("API port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.APIPort)
	}
	if settings.MetricsPort < common.MinPort || settings.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.MetricsPort)
	}
	if settings.APIPort == settings.MetricsPort {
		return fmt.Errorf("API port and metrics port must differ, both are %d", settings.APIPort)
	}

	switch settings.MLMode {
	case common.MLModeHTTP:
		if settings.MLServiceURL == "" {
			return fmt.Errorf("ML service URL is required in %s mode", common.MLModeHTTP)
		}
	case common.MLModeMock:
	default:
		return fmt.Errorf("ML mode must be %q or %q, got %q", common.MLModeHTTP, common.MLModeMock, settings.MLMode)
	}

	if settings.MLTimeout < time.Second || settings.MLTimeout > 5*time.Minute {
		return fmt.Errorf("ML timeout must be between 1s and 5m, got %v", settings.MLTimeout)
	}

	return nil
}
