package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hnrobert/debspawn/internal/hostfs"
	"github.com/hnrobert/debspawn/internal/logger"
)

type LogConfig struct {
	Dir        string `yaml:"dir"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type Config struct {
	// EscalationHelpers are looked up on $PATH in order when root is needed.
	EscalationHelpers []string `yaml:"escalation_helpers"`
	// IdentityRoot selects where owner names are resolved. Empty means the
	// system database with /etc files as fallback.
	IdentityRoot string    `yaml:"identity_root"`
	AllowUnicode *bool     `yaml:"allow_unicode,omitempty"`
	Log          LogConfig `yaml:"log"`
}

func Default() Config {
	return Config{}.WithDefaults()
}

func (c Config) WithDefaults() Config {
	if len(c.EscalationHelpers) == 0 {
		c.EscalationHelpers = []string{"sudo"}
	}
	if c.AllowUnicode == nil {
		v := true
		c.AllowUnicode = &v
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 5
	}
	return c
}

func (c Config) UnicodeAllowed() bool {
	return c.AllowUnicode == nil || *c.AllowUnicode
}

func (c Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	for _, h := range c.EscalationHelpers {
		if h == "" {
			return errors.New("empty escalation helper name")
		}
	}
	if c.IdentityRoot != "" && !filepath.IsAbs(c.IdentityRoot) {
		return fmt.Errorf("identity_root must be absolute, got %q", c.IdentityRoot)
	}
	return nil
}

type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func DefaultPath() string {
	return filepath.Join("/etc", "debspawn", "debspawn.yaml")
}

func (s *Store) Path() string {
	return s.path
}

// Get loads the config. A missing or empty file yields the defaults.
func (s *Store) Get() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := hostfs.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	if len(b) == 0 {
		return Default(), nil
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return cfg, nil
}

func (s *Store) Save(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := hostfs.EnsureDir(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return hostfs.WriteFileAtomic(s.path, b, 0o644)
}
