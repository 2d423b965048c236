// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Sections: Server, Security, Media, Mongo and Redis each own an env prefix.
  - Fail fast: every missing required key is reported in a single error,
    followed by semantic checks joined the same way.
  - Immutability: Once loaded, configuration is read-only.
*/
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/mediavault/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the media server.
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Security SecurityConfig `envPrefix:"SECURITY_"`
	Media    MediaConfig    `envPrefix:"MEDIA_"`
	Mongo    MongoConfig    `envPrefix:"MONGO_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port        string `env:"PORT"        envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG"       envDefault:"false"`

	// TrustProxy makes the gate identify clients by forwarded headers.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	// AllowedOrigins lists CORS origins; empty allows every origin in development only.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// SecurityConfig holds the gate's credentials and abuse thresholds.
type SecurityConfig struct {
	TokenSecret      string        `env:"TOKEN_SECRET,required,notEmpty"`
	TokenTTL         time.Duration `env:"TOKEN_TTL"          envDefault:"8760h"`
	PasswordHashFile string        `env:"PASSWORD_HASH_FILE,required,notEmpty"`
	BlacklistFile    string        `env:"BLACKLIST_FILE"     envDefault:"./data/blacklist.tsv"`

	// FailureThreshold is the count of 4xx outcomes that promotes a client to the blacklist.
	FailureThreshold int `env:"FAILURE_THRESHOLD" envDefault:"10"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW"   envDefault:"15m"`

	BlacklistRefresh    time.Duration `env:"BLACKLIST_REFRESH"    envDefault:"1m"`
	ReputationRetention time.Duration `env:"REPUTATION_RETENTION" envDefault:"24h"`
	ReputationSweep     time.Duration `env:"REPUTATION_SWEEP"     envDefault:"10m"`
}

// MediaConfig holds the media roots and the grant folder settings.
type MediaConfig struct {
	MangaDir     string `env:"MANGA_DIR,required,notEmpty"`
	VideoDir     string `env:"VIDEO_DIR,required,notEmpty"`
	SubtitlesDir string `env:"SUBTITLES_DIR,required,notEmpty"`
	MusicDir     string `env:"MUSIC_DIR"`
	ImageDir     string `env:"IMAGE_DIR"`

	// GrantRoot holds one symlinked folder per token plus the reserved assets folder.
	GrantRoot string `env:"GRANT_ROOT" envDefault:"./public"`
	AssetsDir string `env:"ASSETS_DIR" envDefault:"./public/assets"`

	// GrantSuffixLength is how many trailing token characters name a grant folder.
	GrantSuffixLength int `env:"GRANT_SUFFIX_LENGTH" envDefault:"16"`

	IndexRefresh time.Duration `env:"INDEX_REFRESH" envDefault:"10m"`
	IndexWorkers int           `env:"INDEX_WORKERS" envDefault:"8"`
}

// MongoConfig holds the metadata store connection.
type MongoConfig struct {
	URI             string `env:"URI,required,notEmpty"`
	Database        string `env:"DATABASE"         envDefault:"mediaMetadata"`
	MangaCollection string `env:"MANGA_COLLECTION" envDefault:"manga"`
	VideoCollection string `env:"VIDEO_COLLECTION" envDefault:"video"`
}

// RedisConfig holds the optional metadata cache. An empty URL disables caching.
type RedisConfig struct {
	URL      string        `env:"URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	// env.Parse collects every failing field into one aggregate error,
	// so all missing required keys are reported together.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid settings: %w", err)
	}

	return cfg, nil
}

// Validate performs the semantic checks env tags cannot express.
// Every violation is returned, joined into a single error.
func (c *Config) Validate() error {
	var errs []error

	check := func(failed bool, format string, args ...any) {
		if failed {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(len(c.Security.TokenSecret) < 32, "SECURITY_TOKEN_SECRET must be at least 32 bytes")
	check(c.Security.TokenTTL <= 0, "SECURITY_TOKEN_TTL must be positive")
	check(c.Security.FailureThreshold < 1, "SECURITY_FAILURE_THRESHOLD must be at least 1")
	check(c.Security.RateLimitRequests < 1, "SECURITY_RATE_LIMIT_REQUESTS must be at least 1")
	check(c.Security.RateLimitWindow <= 0, "SECURITY_RATE_LIMIT_WINDOW must be positive")
	check(c.Security.BlacklistRefresh <= 0, "SECURITY_BLACKLIST_REFRESH must be positive")
	check(c.Security.ReputationRetention <= 0, "SECURITY_REPUTATION_RETENTION must be positive")
	check(c.Security.ReputationSweep <= 0, "SECURITY_REPUTATION_SWEEP must be positive")
	check(c.Media.GrantSuffixLength < 8 || c.Media.GrantSuffixLength > 43,
		"MEDIA_GRANT_SUFFIX_LENGTH must be between 8 and 43, got %d", c.Media.GrantSuffixLength)
	check(c.Media.IndexRefresh <= 0, "MEDIA_INDEX_REFRESH must be positive")
	check(c.Media.IndexWorkers < 1, "MEDIA_INDEX_WORKERS must be at least 1")

	return errors.Join(errs...)
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// CORSOrigins returns the configured CORS origins.
func (c *Config) CORSOrigins() []string {
	return c.Server.AllowedOrigins
}

// MediaLinks returns the symlink name → target directory pairs of a grant folder.
// Optional roots that are not configured are omitted.
func (c *Config) MediaLinks() map[string]string {
	links := map[string]string{
		constants.KindManga:     c.Media.MangaDir,
		constants.KindVideo:     c.Media.VideoDir,
		constants.KindSubtitles: c.Media.SubtitlesDir,
		constants.KindAssets:    c.Media.AssetsDir,
	}
	if c.Media.MusicDir != "" {
		links[constants.KindMusic] = c.Media.MusicDir
	}
	if c.Media.ImageDir != "" {
		links[constants.KindImage] = c.Media.ImageDir
	}
	return links
}
