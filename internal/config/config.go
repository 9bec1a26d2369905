package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort           = 6970
	DefaultHost           = "127.0.0.1"
	DefaultConfigFilename = "config.json"
)

// Backend configures the upstream provider endpoint.
type Backend struct {
	Endpoint string        `json:"endpoint" yaml:"endpoint"`
	APIKey   string        `json:"api_key" yaml:"api_key"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ModelOverride pins an exact model string to a capability, taking precedence
// over the built-in pattern table.
type ModelOverride struct {
	BackendType             string `json:"backend_type" yaml:"backend_type"`
	SupportsNativeToolCalls bool   `json:"supports_native_tool_calls" yaml:"supports_native_tool_calls"`
	RequiresNormalization   bool   `json:"requires_normalization" yaml:"requires_normalization"`
	DefaultMaxTokens        int    `json:"default_max_tokens,omitempty" yaml:"default_max_tokens,omitempty"`
}

type Config struct {
	Host      string                   `json:"host,omitempty" yaml:"host,omitempty"`
	Port      int                      `json:"port,omitempty" yaml:"port,omitempty"`
	APIKey    string                   `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Backend   Backend                  `json:"backend" yaml:"backend"`
	Overrides map[string]ModelOverride `json:"model_overrides,omitempty" yaml:"model_overrides,omitempty"`
}

// Manager loads the configuration once and serves it lock-free afterwards.
type Manager struct {
	configPath  string
	configValue atomic.Value
}

func NewManager(baseDir string) *Manager {
	return &Manager{
		configPath: filepath.Join(baseDir, DefaultConfigFilename),
	}
}

// NewManagerWithPath uses an explicit config file path; the extension decides
// between JSON and YAML decoding.
func NewManagerWithPath(path string) *Manager {
	return &Manager{configPath: path}
}

func (m *Manager) Load() (*Config, error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config

	switch strings.ToLower(filepath.Ext(m.configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal json config: %w", err)
		}
	}

	applyDefaults(&cfg)

	m.configValue.Store(&cfg)

	return &cfg, nil
}

func (m *Manager) Get() *Config {
	if v := m.configValue.Load(); v != nil {
		return v.(*Config)
	}

	cfg, err := m.Load()
	if err != nil {
		cfg = &Config{}
		applyDefaults(cfg)
	}

	return cfg
}

func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(m.configPath)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	m.configValue.Store(cfg)

	return nil
}

func (m *Manager) GetPath() string {
	return m.configPath
}

func (m *Manager) Exists() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
}
