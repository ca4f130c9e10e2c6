package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/tabdeck/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Service       ServiceConfig `mapstructure:"service" yaml:"service"`
	Replica       ReplicaConfig `mapstructure:"replica" yaml:"replica"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ServiceConfig controls the tab registry.
type ServiceConfig struct {
	SnapshotDebounceMS int    `mapstructure:"snapshot_debounce_ms" yaml:"snapshot_debounce_ms"`
	HomeURL            string `mapstructure:"home_url" yaml:"home_url"`
	HomeTitle          string `mapstructure:"home_title" yaml:"home_title"`
	TitleMaxRunes      int    `mapstructure:"title_max_runes" yaml:"title_max_runes"`
}

// ReplicaConfig controls the UI replica and drag behavior.
type ReplicaConfig struct {
	SuppressionTimeoutMS int `mapstructure:"suppression_timeout_ms" yaml:"suppression_timeout_ms"`
	CommandTimeoutMS     int `mapstructure:"command_timeout_ms" yaml:"command_timeout_ms"`
	DragThreshold        int `mapstructure:"drag_threshold" yaml:"drag_threshold"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// ToSchema converts the registry settings to their runtime form.
func (c ServiceConfig) ToSchema() schema.ServiceConfig {
	return schema.ServiceConfig{
		SnapshotDebounce: time.Duration(c.SnapshotDebounceMS) * time.Millisecond,
		HomeURL:          c.HomeURL,
		HomeTitle:        c.HomeTitle,
		TitleMax:         c.TitleMaxRunes,
	}
}

// ToSchema converts the replica settings to their runtime form.
func (c ReplicaConfig) ToSchema() schema.ReplicaConfig {
	return schema.ReplicaConfig{
		SuppressionTimeout: time.Duration(c.SuppressionTimeoutMS) * time.Millisecond,
		CommandTimeout:     time.Duration(c.CommandTimeoutMS) * time.Millisecond,
		DragThreshold:      c.DragThreshold,
	}
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Service: ServiceConfig{
			SnapshotDebounceMS: int(schema.DefaultSnapshotDebounce / time.Millisecond),
			HomeURL:            "about:home",
			HomeTitle:          "Home",
			TitleMaxRunes:      schema.DefaultTitleMax,
		},
		Replica: ReplicaConfig{
			SuppressionTimeoutMS: int(schema.DefaultSuppressionTimeout / time.Millisecond),
			CommandTimeoutMS:     int(schema.DefaultCommandTimeout / time.Millisecond),
			DragThreshold:        schema.DefaultDragThreshold,
		},
		HTTP: HTTPConfig{
			Addr: ":27490",
		},
	}
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tabdeck", "config.yaml"), nil
}
