// Package config loads the repo-local ".dvs/config.toml" overlay: default
// hash algorithm, default storage remote, and permission settings. It
// follows the teacher's configuration package in shape (a typed struct,
// defaults filled in after unmarshal) but is TOML-based rather than YAML,
// matching the rest of the core's on-disk formats.
package config

import (
	"bytes"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/a2-ai/dvs/internal/atomicfile"
	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/oid"
)

// Storage configures where newly added objects are written.
type Storage struct {
	// Root names a local storage directory. It has no default, and
	// ops.Open does not read it: a Repo's cache store is always the
	// layout's .dvs/cache/objects.
	Root string `toml:"root,omitempty"`
	// RemoteURL is the base URL of an HTTP CAS, if one is configured.
	RemoteURL string `toml:"remote_url,omitempty"`
}

// Permissions configures filesystem permissions/group applied to newly
// written objects in the repo's local cache store. Pointer records and
// state files are written with their own fixed mode.
type Permissions struct {
	// FileMode is an octal string, e.g. "0644". Defaults to "0644".
	FileMode string `toml:"file_mode,omitempty"`
	// Group is an optional group name to chown written files to.
	Group string `toml:"group,omitempty"`
}

// Config is the parsed ".dvs/config.toml" overlay.
type Config struct {
	// HashAlgorithm is the default algorithm new pointer records are
	// written with. Defaults to BLAKE3.
	HashAlgorithm oid.Algorithm `toml:"hash_algorithm,omitempty"`
	// DefaultFormat is the default pointer-record sidecar format ("json"
	// or "toml"). Defaults to "json".
	DefaultFormat string `toml:"default_format,omitempty"`
	Storage       Storage     `toml:"storage,omitempty"`
	Permissions   Permissions `toml:"permissions,omitempty"`
}

// Default returns the configuration used when no config.toml is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.HashAlgorithm == "" {
		c.HashAlgorithm = oid.BLAKE3
	}
	if c.DefaultFormat == "" {
		c.DefaultFormat = "json"
	}
	if c.Permissions.FileMode == "" {
		c.Permissions.FileMode = "0644"
	}
}

// Load parses the config.toml at path. A missing file is not an error; it
// yields Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, dvserr.Wrap(dvserr.IOError, "reading config", err).WithPath(path)
	}
	var c Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, dvserr.Wrap(dvserr.TOMLError, "parsing config", err).WithPath(path)
	}
	if !c.HashAlgorithm.IsValid() && c.HashAlgorithm != "" {
		return nil, dvserr.New(dvserr.ConfigError, "unknown hash_algorithm "+string(c.HashAlgorithm)).WithPath(path)
	}
	c.applyDefaults()
	return &c, nil
}

// Save writes c to path as TOML.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return dvserr.Wrap(dvserr.TOMLError, "encoding config", err).WithPath(path)
	}
	if err := atomicfile.WriteBytes(path, data, 0o644); err != nil {
		return dvserr.Wrap(dvserr.IOError, "writing config", err).WithPath(path)
	}
	return nil
}
