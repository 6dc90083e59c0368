// Package config loads the afd tool settings: default file locations, parser
// options, evaluation concurrency and daemon parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lc/afd/internal/filesys"
)

var (
	// ErrInvalidConfig is returned when the settings are invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the settings file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

const (
	// DefaultConfigPath is the settings file, relative to the home directory.
	DefaultConfigPath = ".afd/config.yaml"
	// DefaultAutomatonFile is the automaton configuration read by `afd run`.
	DefaultAutomatonFile = "Conf.txt"
	// DefaultStringsFile holds the strings evaluated by `afd run`.
	DefaultStringsFile = "Cadenas.txt"
	// DefaultHeaderMarker starts section header lines.
	DefaultHeaderMarker = "#"
	// DefaultMaxStates is the state registry capacity.
	DefaultMaxStates = 64
	// DefaultWorkers is the number of concurrent evaluators.
	DefaultWorkers = 4
	// DefaultSocketPath is the Unix socket of the afdd daemon.
	DefaultSocketPath = "/tmp/afdd.socket"
	// DefaultIdleTTL is how long the daemon keeps an unused automaton.
	DefaultIdleTTL = 30 * time.Minute
)

// Config holds the tool settings.
type Config struct {
	Files  FilesConfig  `yaml:"files" toml:"files"`
	Parser ParserConfig `yaml:"parser" toml:"parser"`
	Eval   EvalConfig   `yaml:"eval" toml:"eval"`
	Socket SocketConfig `yaml:"socket" toml:"socket"`
	Store  StoreConfig  `yaml:"store" toml:"store"`
}

// FilesConfig names the input files used when no flag overrides them.
type FilesConfig struct {
	Automaton string `yaml:"automaton" toml:"automaton"`
	Strings   string `yaml:"strings" toml:"strings"`
}

// ParserConfig tunes the automaton configuration parser.
type ParserConfig struct {
	HeaderMarker string `yaml:"header_marker" toml:"header_marker"`
	MaxStates    int    `yaml:"max_states" toml:"max_states"`
}

// EvalConfig controls batch evaluation.
type EvalConfig struct {
	Workers int `yaml:"workers" toml:"workers"`
}

// SocketConfig holds socket-related configuration.
type SocketConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// StoreConfig controls the daemon's automaton catalogue.
type StoreConfig struct {
	IdleTTL time.Duration `yaml:"idle_ttl" toml:"idle_ttl"`
}

// Provider defines the interface for loading configuration.
type Provider interface {
	Load() (*Config, error)
}

// FSProvider implements Provider using the local filesystem.
type FSProvider struct {
	fs   filesys.ReadWriteFS
	path string
}

var _ Provider = (*FSProvider)(nil)

// New returns a provider for ~/.afd/config.yaml, or ./.afd/config.yaml when
// the home directory cannot be determined.
func New() Provider {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine home directory: %v\n", err)
		home = ""
	}
	return NewWithPath(filesys.OS(), filepath.Join(home, DefaultConfigPath))
}

// NewWithPath creates a provider for a specific settings file. Files ending
// in .toml are decoded as TOML, anything else as YAML.
func NewWithPath(fs filesys.ReadWriteFS, path string) Provider {
	return &FSProvider{
		fs:   fs,
		path: path,
	}
}

// Default returns the settings used when no file exists.
func Default() *Config {
	return &Config{
		Files: FilesConfig{
			Automaton: DefaultAutomatonFile,
			Strings:   DefaultStringsFile,
		},
		Parser: ParserConfig{
			HeaderMarker: DefaultHeaderMarker,
			MaxStates:    DefaultMaxStates,
		},
		Eval: EvalConfig{
			Workers: DefaultWorkers,
		},
		Socket: SocketConfig{
			Path: DefaultSocketPath,
		},
		Store: StoreConfig{
			IdleTTL: DefaultIdleTTL,
		},
	}
}

// Load reads the settings file. Values missing from the file keep their
// defaults; a missing file yields Default().
func (p *FSProvider) Load() (*Config, error) {
	_ = p.ensureConfigDir()

	cfg, err := p.loadAndParse()
	if err != nil {
		if errors.Is(err, ErrNoConfig) {
			return Default(), nil
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Validate returns the first problem found in the settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Parser.HeaderMarker) == "" {
		return errors.New("header marker cannot be empty")
	}
	if c.Parser.MaxStates < 1 {
		return errors.New("max states must be at least 1")
	}
	if c.Eval.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if strings.TrimSpace(c.Socket.Path) == "" {
		return errors.New("socket path cannot be empty")
	}
	if c.Store.IdleTTL < 0 {
		return errors.New("idle ttl cannot be negative")
	}
	return nil
}

func (p *FSProvider) ensureConfigDir() error {
	dir := filepath.Dir(p.path)
	if _, err := p.fs.Stat(dir); os.IsNotExist(err) {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return nil
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	cfg := Default()
	if strings.EqualFold(filepath.Ext(p.path), ".toml") {
		if _, err := toml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decoding config file: %w", err)
		}
		return cfg, nil
	}
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}
	return cfg, nil
}
