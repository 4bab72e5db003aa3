package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileSettings is the non-secret subset of Config persisted by `invops connect`.
// Secrets go to the keychain, never to this file.
type FileSettings struct {
	Backend   string        `yaml:"backend,omitempty"`
	Datastore FileDatastore `yaml:"datastore,omitempty"`
	Sync      FileSync      `yaml:"sync,omitempty"`
	Output    string        `yaml:"output,omitempty"`
}

// FileDatastore is the datastore section of the config file.
type FileDatastore struct {
	URL  string `yaml:"url,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// FileSync is the sync section of the config file.
type FileSync struct {
	Address  string `yaml:"address,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`
}

// ReadFile loads settings from path. A missing file yields zero settings.
func ReadFile(path string) (*FileSettings, error) {
	var s FileSettings
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}

// Merge overlays the non-empty fields of o onto s.
func (s *FileSettings) Merge(o FileSettings) {
	if o.Backend != "" {
		s.Backend = o.Backend
	}
	if o.Datastore.URL != "" {
		s.Datastore.URL = o.Datastore.URL
	}
	if o.Datastore.Path != "" {
		s.Datastore.Path = o.Datastore.Path
	}
	if o.Sync.Address != "" {
		s.Sync.Address = o.Sync.Address
		s.Sync.Insecure = o.Sync.Insecure
	}
	if o.Output != "" {
		s.Output = o.Output
	}
}

// WriteFile writes settings to path with private permissions, creating the
// parent directory when needed. Keys not modelled by FileSettings (presets)
// are preserved.
func WriteFile(path string, s *FileSettings) error {
	var doc map[string]any
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if doc == nil {
		doc = map[string]any{}
	}

	raw, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	var fresh map[string]any
	if err := yaml.Unmarshal(raw, &fresh); err != nil {
		return err
	}
	for k, v := range fresh {
		doc[k] = v
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}
