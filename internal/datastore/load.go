package datastore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SampleFile models the YAML sample sheet:
//
//	title: my_project
//	project:
//	  fasta.nucl: /data/assembly.fasta
//	samples:
//	  - name: S1
//	    slots:
//	      fasta.nucl: /data/S1.fasta
type SampleFile struct {
	Title   string            `yaml:"title"`
	Project map[string]string `yaml:"project,omitempty"`
	Samples []SampleEntry     `yaml:"samples"`
}

// SampleEntry is a single sample and its initial slots.
type SampleEntry struct {
	Name  string            `yaml:"name"`
	Slots map[string]string `yaml:"slots,omitempty"`
}

// ParseSampleYAML decodes a sample sheet into a store using the given schema.
func ParseSampleYAML(data []byte, schema Schema) (*Store, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("datastore: sample payload is empty")
	}
	var file SampleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("datastore: decode samples: %w", err)
	}
	return file.Store(schema)
}

// LoadSampleFile reads a sample sheet from disk. Relative slot paths are
// resolved against the sheet's directory.
func LoadSampleFile(path string, schema Schema) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("datastore: read %s: %w", path, err)
	}
	var file SampleFile
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("datastore: %s: sample payload is empty", path)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("datastore: %s: decode samples: %w", path, err)
	}
	file.resolvePaths(filepath.Dir(path))
	store, err := file.Store(schema)
	if err != nil {
		return nil, fmt.Errorf("datastore: %s: %w", path, err)
	}
	return store, nil
}

// Store materializes the sheet.
func (f SampleFile) Store(schema Schema) (*Store, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return nil, fmt.Errorf("datastore: title is required")
	}
	if len(f.Samples) == 0 {
		return nil, fmt.Errorf("datastore: at least one sample is required")
	}
	store := New(title, schema)
	if err := setAll(store, ProjectKey, f.Project); err != nil {
		return nil, err
	}
	for idx, entry := range f.Samples {
		if err := store.AddSample(entry.Name); err != nil {
			return nil, fmt.Errorf("samples[%d]: %w", idx, err)
		}
		if err := setAll(store, strings.TrimSpace(entry.Name), entry.Slots); err != nil {
			return nil, fmt.Errorf("samples[%d]: %w", idx, err)
		}
	}
	return store, nil
}

func (f *SampleFile) resolvePaths(base string) {
	for key, value := range f.Project {
		f.Project[key] = resolvePath(base, value)
	}
	for i := range f.Samples {
		for key, value := range f.Samples[i].Slots {
			f.Samples[i].Slots[key] = resolvePath(base, value)
		}
	}
}

func setAll(store *Store, unit string, slots map[string]string) error {
	keys := make([]string, 0, len(slots))
	for key := range slots {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		slot := Slot(strings.TrimSpace(key))
		if err := store.Set(unit, slot, strings.TrimSpace(slots[key])); err != nil {
			return err
		}
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" || filepath.IsAbs(trimmed) || strings.Contains(trimmed, "://") {
		return trimmed
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
