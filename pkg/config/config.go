package config

import (
	"time"

	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/lockfile"
)

// Duration is a time.Duration that reads and writes the human "60s"
// form in TOML and environment variables.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse,
			"invalid duration: %s", string(text))
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Sync holds settings for recording kit files
type Sync struct {
	// ChecksumConcurrency bounds how many files are hashed at once
	ChecksumConcurrency int `koanf:"checksum_concurrency" toml:"checksum_concurrency"`
}

// Diff holds settings for the review diffs shown during updates
type Diff struct {
	// ContextLines is the unified diff context window
	ContextLines int `koanf:"context_lines" toml:"context_lines"`
	// MaxFileSize caps how many bytes of a file are diffed
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size"`
}

// Lock holds manifest lock acquisition settings
type Lock struct {
	StaleAfter Duration `koanf:"stale_after" toml:"stale_after"`
	Retries    int      `koanf:"retries" toml:"retries"`
	RetryDelay Duration `koanf:"retry_delay" toml:"retry_delay"`
}

// Uninstall holds uninstall behavior settings
type Uninstall struct {
	// Preserve lists extra path patterns uninstall never deletes
	Preserve []string `koanf:"preserve" toml:"preserve"`
}

// Config is the main configuration structure
type Config struct {
	Sync      Sync      `koanf:"sync" toml:"sync"`
	Diff      Diff      `koanf:"diff" toml:"diff"`
	Lock      Lock      `koanf:"lock" toml:"lock"`
	Uninstall Uninstall `koanf:"uninstall" toml:"uninstall"`
}

// Default returns the built-in configuration.
func Default() *Config {
	if cfg, err := parseDefaults(); err == nil {
		return cfg
	}

	// Fallback if the embedded defaults fail to parse
	return &Config{
		Sync: Sync{ChecksumConcurrency: 20},
		Diff: Diff{ContextLines: 3, MaxFileSize: 10 * 1024 * 1024},
		Lock: Lock{
			StaleAfter: Duration(60 * time.Second),
			Retries:    10,
			RetryDelay: Duration(250 * time.Millisecond),
		},
	}
}

// LockOptions converts the lock section into lockfile options.
func (c *Config) LockOptions() lockfile.Options {
	return lockfile.Options{
		Retries:    c.Lock.Retries,
		RetryDelay: c.Lock.RetryDelay.Std(),
		StaleAfter: c.Lock.StaleAfter.Std(),
	}
}
