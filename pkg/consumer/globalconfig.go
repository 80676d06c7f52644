package consumer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// GlobalConfigFile is the per-user settings file in the home directory.
	GlobalConfigFile = ".bitconfig.toml"
	// GlobalConfigEnv overrides the location of the per-user settings.
	GlobalConfigEnv = "BIT_CONFIG"
)

// GlobalConfig holds per-user settings shared by every workspace.
type GlobalConfig struct {
	User UserConfig `toml:"user"`
}

// UserConfig identifies the author of committed versions.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// GlobalConfigPath returns $BIT_CONFIG, or ~/.bitconfig.toml.
func GlobalConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(GlobalConfigEnv)); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("global config: %w", err)
	}
	return filepath.Join(home, GlobalConfigFile), nil
}

// LoadGlobalConfig reads the TOML settings at path. A missing file yields an
// empty config. BIT_USER_NAME and BIT_USER_EMAIL override the file.
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	cfg := &GlobalConfig{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read global config: %w", err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse global config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *GlobalConfig) applyEnvOverrides() {
	if v := os.Getenv("BIT_USER_NAME"); v != "" {
		c.User.Name = v
	}
	if v := os.Getenv("BIT_USER_EMAIL"); v != "" {
		c.User.Email = v
	}
}

// Save writes the config to path as TOML.
func (c *GlobalConfig) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode global config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write global config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write global config: %w", err)
	}
	return nil
}
