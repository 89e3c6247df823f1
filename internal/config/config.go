// Package config resolves vault options from defaults, an optional JSON file,
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Hussein-Mazeh/lockbox/auth"
	"github.com/Hussein-Mazeh/lockbox/krypto"
)

// Backend selects where vault artifacts are persisted.
type Backend string

const (
	BackendFS     Backend = "fs"
	BackendSQLite Backend = "sqlite"
)

// Environment variables.
const (
	EnvConfig   = "LOCKBOX_CONFIG"
	EnvDir      = "LOCKBOX_DIR"
	EnvKeyFile  = "LOCKBOX_KEY_FILE"
	EnvBackend  = "LOCKBOX_BACKEND"
	EnvLogLevel = "LOCKBOX_LOG_LEVEL"
)

// Argon2 holds the cost parameters for new master credential records.
type Argon2 struct {
	MemoryMB    uint32 `json:"memory_mb"`
	Time        uint32 `json:"time"`
	Parallelism uint8  `json:"parallelism"`
}

// Options holds the resolved configuration.
type Options struct {
	// Dir is the vault root holding one directory per username.
	Dir string `json:"dir"`
	// KeyFile is the shared root key; defaults to <Dir>/encryption_key.txt.
	KeyFile  string  `json:"key_file"`
	Backend  Backend `json:"backend"`
	LogLevel string  `json:"log_level"`

	// MaxAttempts caps master credential prompts per session command.
	MaxAttempts int `json:"max_attempts"`

	ManualMinLength  int `json:"manual_min_length"`
	GenMinLength     int `json:"gen_min_length"`
	GenMaxLength     int `json:"gen_max_length"`
	DefaultGenLength int `json:"default_gen_length"`

	Argon2 Argon2 `json:"argon2"`

	// Config is the path of the JSON file that was loaded, if any.
	Config string `json:"-"`
}

// Default returns the built-in options.
func Default() Options {
	p := krypto.DefaultArgon2Params()
	return Options{
		Dir:              "passwords",
		Backend:          BackendFS,
		LogLevel:         "warn",
		MaxAttempts:      3,
		ManualMinLength:  auth.DefaultManualMinLength,
		GenMinLength:     auth.DefaultGenMinLength,
		GenMaxLength:     auth.DefaultGenMaxLength,
		DefaultGenLength: 12,
		Argon2: Argon2{
			MemoryMB:    p.MemoryMB,
			Time:        p.Time,
			Parallelism: p.Parallelism,
		},
	}
}

// RegisterFlags binds the common flags to fs. Values are applied by Load only
// when the flag was set explicitly.
func RegisterFlags(fs *flag.FlagSet) {
	d := Default()
	fs.String("config", "", "path to JSON config file")
	fs.String("dir", d.Dir, "vault root directory")
	fs.String("key-file", "", "encryption key file (default <dir>/encryption_key.txt)")
	fs.String("backend", string(d.Backend), "storage backend: fs or sqlite")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
}

// Load resolves options for an already parsed flag set. fs may be nil.
func Load(fs *flag.FlagSet) (*Options, error) {
	opts := Default()

	set := map[string]string{}
	if fs != nil {
		fs.Visit(func(f *flag.Flag) { set[f.Name] = f.Value.String() })
	}

	cfgPath := os.Getenv(EnvConfig)
	if v, ok := set["config"]; ok {
		cfgPath = v
	}
	if cfgPath != "" {
		if err := loadFile(cfgPath, &opts); err != nil {
			return nil, err
		}
		opts.Config = cfgPath
	}

	applyEnv(&opts)

	if v, ok := set["dir"]; ok {
		opts.Dir = v
	}
	if v, ok := set["key-file"]; ok {
		opts.KeyFile = v
	}
	if v, ok := set["backend"]; ok {
		opts.Backend = Backend(v)
	}
	if v, ok := set["log-level"]; ok {
		opts.LogLevel = v
	}

	if opts.KeyFile == "" {
		opts.KeyFile = filepath.Join(opts.Dir, "encryption_key.txt")
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

func loadFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(opts *Options) {
	if v := os.Getenv(EnvDir); v != "" {
		opts.Dir = v
	}
	if v := os.Getenv(EnvKeyFile); v != "" {
		opts.KeyFile = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		opts.Backend = Backend(strings.ToLower(v))
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		opts.LogLevel = v
	}
}

// Validate checks option consistency.
func (o *Options) Validate() error {
	var errs []error
	if o.Dir == "" {
		errs = append(errs, errors.New("vault directory is required"))
	}
	switch o.Backend {
	case BackendFS, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", o.Backend))
	}
	if o.MaxAttempts < 1 {
		errs = append(errs, errors.New("max_attempts must be at least 1"))
	}
	if o.ManualMinLength < 1 {
		errs = append(errs, errors.New("manual_min_length must be positive"))
	}
	if o.GenMinLength < 1 || o.GenMaxLength < o.GenMinLength {
		errs = append(errs, fmt.Errorf("invalid generator bounds [%d, %d]", o.GenMinLength, o.GenMaxLength))
	}
	if err := o.Argon2Params().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("argon2: %w", err))
	}
	return errors.Join(errs...)
}

// Argon2Params converts the configured costs into derivation parameters.
func (o *Options) Argon2Params() krypto.Argon2Params {
	p := krypto.DefaultArgon2Params()
	p.MemoryMB = o.Argon2.MemoryMB
	p.Time = o.Argon2.Time
	p.Parallelism = o.Argon2.Parallelism
	return p
}

// GeneratorBounds returns the configured generation window.
func (o *Options) GeneratorBounds() auth.GeneratorBounds {
	return auth.GeneratorBounds{Min: o.GenMinLength, Max: o.GenMaxLength}
}

// Policy returns the manual entry policy.
func (o *Options) Policy() auth.Policy {
	return auth.Policy{MinLength: o.ManualMinLength}
}
