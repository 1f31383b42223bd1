package config

import (
	"os"
	"strconv"
)

// LoadFromEnv overlays environment variables onto cfg, applied after
// Defaults() but before flag parsing so CLI flags still win.
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("DANDIDAV_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if logLevel := os.Getenv("DANDIDAV_LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}

	if apiURL := os.Getenv("DANDIDAV_API_URL"); apiURL != "" {
		cfg.Archive.APIURL = apiURL
	}

	if manifestRoot := os.Getenv("DANDIDAV_MANIFEST_ROOT"); manifestRoot != "" {
		cfg.Zarrman.ManifestRoot = manifestRoot
	}

	if cacheMB := os.Getenv("DANDIDAV_ZARRMAN_CACHE_MB"); cacheMB != "" {
		if size, err := strconv.Atoi(cacheMB); err == nil {
			cfg.Zarrman.CacheSizeMB = size
		}
	}
}

// GetEnvOrDefault returns the named environment variable, or
// defaultValue if it is unset or empty.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
