package completion

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// OverrideLoader reads hand-written rule tables from a filesystem. Files
// ending in .yaml/.yml are YAML, .json is JSON, anything else is tried as
// YAML and then as JSON.
type OverrideLoader struct {
	fs fs.FS
}

// NewOverrideLoader creates a loader over the given filesystem.
func NewOverrideLoader(filesystem fs.FS) *OverrideLoader {
	return &OverrideLoader{
		fs: filesystem,
	}
}

// NewDirLoader creates a loader rooted at a directory on disk.
func NewDirLoader(dir string) *OverrideLoader {
	return NewOverrideLoader(os.DirFS(dir))
}

// LoadOverrideFile reads a single rule table from a path on disk.
func LoadOverrideFile(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	table, err := decodeRules(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

// Load reads one rule table.
func (ol *OverrideLoader) Load(path string) (*RuleTable, error) {
	data, err := fs.ReadFile(ol.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	table, err := decodeRules(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

// LoadAll merges every rule file in the filesystem, in lexical path order,
// into one table.
func (ol *OverrideLoader) LoadAll() (*RuleTable, error) {
	files, err := ol.ListFiles()
	if err != nil {
		return nil, err
	}

	merged := NewRuleTable()
	for _, path := range files {
		table, err := ol.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
		merged = Merge(merged, table)
	}
	return merged, nil
}

// ListFiles returns every YAML or JSON file in the filesystem, sorted.
func (ol *OverrideLoader) ListFiles() ([]string, error) {
	var files []string

	err := fs.WalkDir(ol.fs, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && isRuleFile(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

func isRuleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func decodeRules(path string, data []byte) (*RuleTable, error) {
	table := NewRuleTable()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, table); err != nil {
			return nil, err
		}
	case ".json":
		if len(strings.TrimSpace(string(data))) == 0 {
			return table, nil
		}
		if err := json.Unmarshal(data, table); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, table); err != nil {
			if jsonErr := json.Unmarshal(data, table); jsonErr != nil {
				return nil, err
			}
		}
	}
	return table, nil
}

// OverrideSearchPaths returns where override rules for program are looked
// for, most specific first.
func OverrideSearchPaths(program string) []string {
	var paths []string

	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		paths = append(paths, filepath.Join(xdgConfig, "compgen", program+".yaml"))
		paths = append(paths, filepath.Join(xdgConfig, "compgen", program+".json"))
	}

	// Then check home directory
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", "compgen", program+".yaml"))
		paths = append(paths, filepath.Join(home, ".config", "compgen", program+".json"))
		paths = append(paths, filepath.Join(home, "."+program+"_completions.yaml"))
		paths = append(paths, filepath.Join(home, "."+program+"_completions.json"))
	}

	return paths
}

// FindOverrides returns the first existing override file for program, or
// "" when there is none.
func FindOverrides(program string) string {
	for _, path := range OverrideSearchPaths(program) {
		if stat, err := os.Stat(path); err == nil && !stat.IsDir() {
			return path
		}
	}
	return ""
}
