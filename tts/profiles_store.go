package tts

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// profileFile is the on-disk shape: a flat mapping from profile name to
// attributes. Persistence is a convenience for reload, not load-bearing
// for correctness.
type profileFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
	Order    []string           `yaml:"order,omitempty"`
}

// SaveProfiles writes the manager's profiles to a YAML document.
func (m *Manager) SaveProfiles(path string) error {
	m.mu.RLock()
	file := profileFile{
		Profiles: make(map[string]Profile, len(m.profiles)),
		Order:    append([]string(nil), m.profileOrder...),
	}
	for name, p := range m.profiles {
		file.Profiles[name] = *p
	}
	m.mu.RUnlock()

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create profiles dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}

// LoadProfiles merges profiles from a YAML document into the manager.
// Invalid profiles are skipped with an error listing them; valid ones
// are still loaded.
func (m *Manager) LoadProfiles(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profiles: %w", err)
	}
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse profiles: %w", err)
	}

	names := file.Order
	if len(names) == 0 {
		for name := range file.Profiles {
			names = append(names, name)
		}
	}

	var bad []string
	for _, name := range names {
		p, ok := file.Profiles[name]
		if !ok {
			continue
		}
		if p.Name == "" {
			p.Name = name
		}
		if err := m.AddProfile(p); err != nil {
			bad = append(bad, name)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("skipped invalid profiles: %v", bad)
	}
	return nil
}
