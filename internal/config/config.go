package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
)

var (
	// ConfigDir is the global configuration directory (~/.pepe)
	ConfigDir string

	// DefaultsFile is the optional YAML defaults file
	DefaultsFile string
)

// Defaults are flag defaults loaded from the config file. Zero values mean
// "not set"; command-line flags win over file values.
type Defaults struct {
	Number      int    `yaml:"number"`
	Concurrency int    `yaml:"concurrency"`
	TimeoutSec  int    `yaml:"timeout"`
	Method      string `yaml:"method"`
	UserAgent   string `yaml:"user_agent"`
	Proxy       string `yaml:"proxy"`

	DisableCompression bool `yaml:"disable_compression"`
	DisableKeepalive   bool `yaml:"disable_keepalive"`
	DisableRedirects   bool `yaml:"disable_redirects"`
}

// Initialize sets up the configuration directory
// It creates ~/.pepe/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	ConfigDir = filepath.Join(homeDir, ".pepe")
	DefaultsFile = filepath.Join(ConfigDir, "config.yaml")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	return nil
}

// Load reads defaults from path. A missing file is not an error: installs
// start without one.
func Load(path string) (Defaults, error) {
	var d Defaults

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return d, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("failed to parse config file: %w", err)
	}

	return d, nil
}
