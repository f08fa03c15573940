package persona

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

type personaFile struct {
	Personalities map[string]Traits `yaml:"personalities"`
	Order         []string          `yaml:"order"`
}

// Save writes all personalities to a YAML file, creating parent
// directories as needed.
func (m *Manager) Save(path string) error {
	m.mu.Lock()
	file := personaFile{
		Personalities: make(map[string]Traits, len(m.personas)),
		Order:         append([]string(nil), m.order...),
	}
	for name, t := range m.personas {
		file.Personalities[name] = *t
	}
	m.mu.Unlock()

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("encoding personalities: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating personality directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing personalities: %w", err)
	}
	log.Debug("personalities saved", "path", path, "count", len(file.Personalities))
	return nil
}

// Load merges personalities from a YAML file into the manager.
// Invalid entries are skipped and reported in the returned error;
// valid entries still land.
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading personalities: %w", err)
	}
	var file personaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decoding personalities: %w", err)
	}

	names := file.Order
	if len(names) == 0 {
		for name := range file.Personalities {
			names = append(names, name)
		}
	}

	var skipped []string
	for _, name := range names {
		t, ok := file.Personalities[name]
		if !ok {
			continue
		}
		if t.Name == "" {
			t.Name = name
		}
		if err := m.Add(t); err != nil {
			skipped = append(skipped, name)
			log.Warn("skipping invalid personality", "name", name, "err", err)
		}
	}
	if len(skipped) > 0 {
		return fmt.Errorf("skipped invalid personalities: %v", skipped)
	}
	return nil
}
