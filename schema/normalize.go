package schema

import (
	"errors"
	"strings"
)

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.SnapshotDebounce < 0 {
		return ServiceConfig{}, errors.New("snapshot debounce must not be negative")
	}
	if cfg.SnapshotDebounce == 0 {
		cfg.SnapshotDebounce = DefaultSnapshotDebounce
	}
	if cfg.TitleMax <= 0 {
		cfg.TitleMax = DefaultTitleMax
	}
	if cfg.HomeURL != "" && cfg.HomeTitle == "" {
		cfg.HomeTitle = "Home"
	}
	return cfg, nil
}

// NormalizeReplicaConfig applies defaults and validates the config.
func NormalizeReplicaConfig(cfg ReplicaConfig) (ReplicaConfig, error) {
	if cfg.SuppressionTimeout < 0 || cfg.CommandTimeout < 0 {
		return ReplicaConfig{}, errors.New("timeouts must not be negative")
	}
	if cfg.SuppressionTimeout == 0 {
		cfg.SuppressionTimeout = DefaultSuppressionTimeout
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.DragThreshold < 0 {
		return ReplicaConfig{}, errors.New("drag threshold must not be negative")
	}
	if cfg.DragThreshold == 0 {
		cfg.DragThreshold = DefaultDragThreshold
	}
	return cfg, nil
}

// ValidateUserID ensures a user id matches [a-z0-9._-] with no normalization.
func ValidateUserID(userID UserID) error {
	raw := string(userID)
	if raw == "" || strings.TrimSpace(raw) != raw {
		return ErrInvalidUser
	}
	for _, r := range raw {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == '_' || r == '-' {
			continue
		}
		return ErrInvalidUser
	}
	return nil
}

// NormalizeURL validates a tab URL. Content loading is out of scope, so the
// check is shape-level: non-empty after trimming, no embedded whitespace.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidURL
	}
	if strings.ContainsAny(trimmed, " \t\n\r") {
		return "", ErrInvalidURL
	}
	return trimmed, nil
}

// TruncateTitle bounds a title to max runes, appending an ellipsis when cut.
func TruncateTitle(title string, max int) string {
	if max <= 0 {
		return title
	}
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}
	if max == 1 {
		return string(runes[:1])
	}
	return string(runes[:max-1]) + "…"
}
