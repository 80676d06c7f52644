package scope

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConfigFile is the name of the scope settings file.
const ConfigFile = "scope.json"

// Config stores scope settings: the scope's name and its named remotes,
// each mapped to the directory of another scope.
type Config struct {
	Name    string            `json:"name"`
	Remotes map[string]string `json:"remotes,omitempty"`
}

func configPath(dir string) string {
	return filepath.Join(dir, ConfigFile)
}

// ReadConfig reads dir/scope.json.
func ReadConfig(dir string) (*Config, error) {
	data, err := os.ReadFile(configPath(dir))
	if err != nil {
		return nil, fmt.Errorf("read scope config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("read scope config: unmarshal: %w", err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]string)
	}
	return &cfg, nil
}

// WriteConfig atomically writes dir/scope.json.
func WriteConfig(dir string, cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]string)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("write scope config: marshal: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write scope config: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".scope-tmp-*")
	if err != nil {
		return fmt.Errorf("write scope config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write scope config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write scope config: close: %w", err)
	}
	if err := os.Rename(tmpName, configPath(dir)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write scope config: rename: %w", err)
	}
	return nil
}

// SetRemote stores or updates a named remote pointing at another scope
// directory.
func (s *Scope) SetRemote(name, path string) error {
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return fmt.Errorf("set remote: %w", err)
	}
	if name == s.name {
		return fmt.Errorf("set remote: %q is the local scope", name)
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("set remote: remote path is required")
	}

	cfg, err := ReadConfig(s.path)
	if err != nil {
		return err
	}
	cfg.Remotes[name] = path
	return WriteConfig(s.path, cfg)
}

// RemoveRemote deletes a named remote.
func (s *Scope) RemoveRemote(name string) error {
	cfg, err := ReadConfig(s.path)
	if err != nil {
		return err
	}
	if _, ok := cfg.Remotes[name]; !ok {
		return fmt.Errorf("remove remote: remote %q is not configured", name)
	}
	delete(cfg.Remotes, name)
	return WriteConfig(s.path, cfg)
}

// RemotePath returns the configured path of the given remote.
func (s *Scope) RemotePath(name string) (string, error) {
	return RemotePath(s.path, name)
}

// RemotePath returns the path configured for remote name in the scope at
// dir.
func RemotePath(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("remote name is required")
	}
	cfg, err := ReadConfig(dir)
	if err != nil {
		return "", err
	}
	path, ok := cfg.Remotes[name]
	if !ok || strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("remote %q is not configured", name)
	}
	return path, nil
}

// RemoteNames lists the configured remotes in sorted order.
func (s *Scope) RemoteNames() ([]string, error) {
	cfg, err := ReadConfig(s.path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cfg.Remotes))
	for name := range cfg.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
