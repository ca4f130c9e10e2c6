package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("service.snapshot_debounce_ms", cfg.Service.SnapshotDebounceMS)
	v.SetDefault("service.home_url", cfg.Service.HomeURL)
	v.SetDefault("service.home_title", cfg.Service.HomeTitle)
	v.SetDefault("service.title_max_runes", cfg.Service.TitleMaxRunes)
	v.SetDefault("replica.suppression_timeout_ms", cfg.Replica.SuppressionTimeoutMS)
	v.SetDefault("replica.command_timeout_ms", cfg.Replica.CommandTimeoutMS)
	v.SetDefault("replica.drag_threshold", cfg.Replica.DragThreshold)
	v.SetDefault("http.addr", cfg.HTTP.Addr)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Service.SnapshotDebounceMS < 0 {
		return Config{}, fmt.Errorf("service.snapshot_debounce_ms must not be negative")
	}
	if cfg.Replica.SuppressionTimeoutMS < 0 {
		return Config{}, fmt.Errorf("replica.suppression_timeout_ms must not be negative")
	}
	return cfg, nil
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
