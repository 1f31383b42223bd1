// Package config holds the gateway's typed configuration, grouped into
// nested per-concern structs (server, archive, zarrman, view).
package config

import (
	"flag"
	"fmt"
	"net/url"
	"time"
)

// Config is the gateway's immutable, process-lifetime configuration.
// It is built once in main and passed down by constructor injection,
// per the "global state" design note.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Archive ArchiveConfig `yaml:"archive"`
	Zarrman ZarrmanConfig `yaml:"zarrman"`
	View    ViewConfig    `yaml:"view"`
}

// ServerConfig controls the HTTP bind address and port.
type ServerConfig struct {
	IPAddr   string `yaml:"ip_addr" default:"127.0.0.1"`
	Port     int    `yaml:"port" default:"8080"`
	LogLevel string `yaml:"log_level" default:"info"`
}

// ArchiveConfig controls access to the upstream REST archive API.
type ArchiveConfig struct {
	APIURL            string        `yaml:"api_url" default:"https://api.dandiarchive.org/api"`
	PreferS3Redirects bool          `yaml:"prefer_s3_redirects" default:"false"`
	UpstreamTimeout   time.Duration `yaml:"upstream_timeout" default:"30s"`
	S3ClientCacheSize int           `yaml:"s3_client_cache_size" default:"8"`
}

// ZarrmanConfig controls the Zarr-manifest client and its cache.
type ZarrmanConfig struct {
	ManifestRoot  string        `yaml:"manifest_root" default:"https://zarrman.dandiarchive.org"`
	CacheSizeMB   int           `yaml:"cache_size_mb" default:"100"`
	IdleTTL       time.Duration `yaml:"idle_ttl" default:"1h"`
	SweepInterval time.Duration `yaml:"sweep_interval" default:"1h"`
	// BucketBase is the base URL Zarr entry redirects are built under:
	// {BucketBase}/{zarr_id}/{entry_path}.
	BucketBase string `yaml:"bucket_base" default:"https://dandiarchive.s3.amazonaws.com/zarr-checksums"`
}

// ViewConfig controls HTML rendering.
type ViewConfig struct {
	Title string `yaml:"title" default:"dandidav"`
}

// CacheSizeBytes returns the configured manifest cache bound in bytes.
func (z ZarrmanConfig) CacheSizeBytes() int64 {
	return int64(z.CacheSizeMB) * 1024 * 1024
}

// Defaults returns a Config populated with every documented default.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{IPAddr: "127.0.0.1", Port: 8080, LogLevel: "info"},
		Archive: ArchiveConfig{
			APIURL:            "https://api.dandiarchive.org/api",
			PreferS3Redirects: false,
			UpstreamTimeout:   30 * time.Second,
			S3ClientCacheSize: 8,
		},
		Zarrman: ZarrmanConfig{
			ManifestRoot:  "https://zarrman.dandiarchive.org",
			CacheSizeMB:   100,
			IdleTTL:       time.Hour,
			SweepInterval: time.Hour,
			BucketBase:    "https://dandiarchive.s3.amazonaws.com/zarr-checksums",
		},
		View: ViewConfig{Title: "dandidav"},
	}
}

// Parse parses CLI flags into a Config starting from Defaults() and an
// environment overlay. It returns an error if --api-url is not an
// http(s) URL.
func Parse(args []string, fs *flag.FlagSet) (*Config, error) {
	cfg := Defaults()
	LoadFromEnv(cfg)

	fs.StringVar(&cfg.Archive.APIURL, "api-url", cfg.Archive.APIURL, "base URL of the archive API")
	fs.StringVar(&cfg.Server.IPAddr, "ip-addr", cfg.Server.IPAddr, "bind address")
	fs.IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "bind port")
	fs.IntVar(&cfg.Server.Port, "p", cfg.Server.Port, "bind port (shorthand)")
	fs.BoolVar(&cfg.Archive.PreferS3Redirects, "prefer-s3-redirects", cfg.Archive.PreferS3Redirects, "redirect blob GETs straight to S3")
	fs.StringVar(&cfg.View.Title, "title", cfg.View.Title, "HTML view title")
	fs.StringVar(&cfg.View.Title, "T", cfg.View.Title, "HTML view title (shorthand)")
	fs.IntVar(&cfg.Zarrman.CacheSizeMB, "zarrman-cache-mb", cfg.Zarrman.CacheSizeMB, "zarr-manifest cache size bound, in MiB")
	fs.IntVar(&cfg.Zarrman.CacheSizeMB, "Z", cfg.Zarrman.CacheSizeMB, "zarr-manifest cache size bound, in MiB (shorthand)")
	fs.StringVar(&cfg.Zarrman.ManifestRoot, "manifest-root", cfg.Zarrman.ManifestRoot, "base URL of the zarr-manifest hierarchy")
	fs.StringVar(&cfg.Server.LogLevel, "log-level", cfg.Server.LogLevel, "zap log level: debug, info, warn, or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that flag parsing alone cannot enforce.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Archive.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config: --api-url must be an http(s) URL, got %q", c.Archive.APIURL)
	}
	if c.Zarrman.CacheSizeMB <= 0 {
		return fmt.Errorf("config: --zarrman-cache-mb must be positive, got %d", c.Zarrman.CacheSizeMB)
	}
	return nil
}

// Addr returns the host:port string to bind to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.IPAddr, c.Server.Port)
}
