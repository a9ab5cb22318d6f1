package completion

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOverrideLoader(t *testing.T) {
	loader := NewOverrideLoader(fstest.MapFS{})
	if loader == nil {
		t.Fatal("NewOverrideLoader returned nil")
	}
}

func TestOverrideLoader_LoadAll(t *testing.T) {
	tests := []struct {
		name          string
		fs            fstest.MapFS
		expected      *RuleTable
		expectedError bool
		errorContains string
	}{
		{
			name: "single YAML file",
			fs: fstest.MapFS{
				"app.yaml": &fstest.MapFile{
					Data: []byte(`app update:
  - $(app list)
app*--profile:
  - dev
  - prod
`),
				},
			},
			expected: table(
				Rule{"app update", []string{"$(app list)"}},
				Rule{"app*--profile", []string{"dev", "prod"}},
			),
		},
		{
			name: "files merged in path order",
			fs: fstest.MapFS{
				"b.yml": &fstest.MapFile{
					Data: []byte("app:\n  - second\n"),
				},
				"a.json": &fstest.MapFile{
					Data: []byte(`{"app": ["first"], "app run": ["--now"]}`),
				},
			},
			expected: table(
				Rule{"app", []string{"first", "second"}},
				Rule{"app run", []string{"--now"}},
			),
		},
		{
			name: "nested directories and other files",
			fs: fstest.MapFS{
				"rules/extra/tool.yaml": &fstest.MapFile{
					Data: []byte("tool:\n  - x\n"),
				},
				"README.md": &fstest.MapFile{
					Data: []byte("# not rules"),
				},
			},
			expected: table(Rule{"tool", []string{"x"}}),
		},
		{
			name: "empty files",
			fs: fstest.MapFS{
				"empty.yaml": &fstest.MapFile{Data: []byte("")},
				"empty.json": &fstest.MapFile{Data: []byte("  \n")},
			},
			expected: NewRuleTable(),
		},
		{
			name:     "empty filesystem",
			fs:       fstest.MapFS{},
			expected: NewRuleTable(),
		},
		{
			name: "invalid YAML",
			fs: fstest.MapFS{
				"bad.yaml": &fstest.MapFile{
					Data: []byte("app: [unclosed\n"),
				},
			},
			expectedError: true,
			errorContains: "failed to parse bad.yaml",
		},
		{
			name: "wrong shape",
			fs: fstest.MapFS{
				"bad.yaml": &fstest.MapFile{
					Data: []byte("app: run\n"),
				},
			},
			expectedError: true,
			errorContains: "failed to load overrides",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewOverrideLoader(tt.fs).LoadAll()

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			assertTable(t, tt.expected, got)
		})
	}
}

func TestOverrideLoader_ListFiles(t *testing.T) {
	loader := NewOverrideLoader(fstest.MapFS{
		"z.yaml":        &fstest.MapFile{},
		"a/b.JSON":      &fstest.MapFile{},
		"c.yml":         &fstest.MapFile{},
		"notes.txt":     &fstest.MapFile{},
		"dir.yaml/x.md": &fstest.MapFile{},
	})

	files, err := loader.ListFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b.JSON", "c.yml", "z.yaml"}, files)
}

func TestOverrideLoader_LoadMissing(t *testing.T) {
	_, err := NewOverrideLoader(fstest.MapFS{}).Load("missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read missing.yaml")
}

func TestLoadOverrideFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("app:\n  - <file>\n"), 0644))

	got, err := LoadOverrideFile(yamlPath)
	require.NoError(t, err)
	assertTable(t, table(Rule{"app", []string{"<file>"}}), got)

	// no extension: YAML first, then JSON
	plainPath := filepath.Join(dir, "rules")
	require.NoError(t, os.WriteFile(plainPath, []byte(`{"app": ["x"]}`), 0644))

	got, err = LoadOverrideFile(plainPath)
	require.NoError(t, err)
	assertTable(t, table(Rule{"app", []string{"x"}}), got)

	_, err = LoadOverrideFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(dir, "missing.yaml"))

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"app": 1}`), 0644))
	_, err = LoadOverrideFile(badPath)
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestNewDirLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.yaml"), []byte("app:\n  - run\n"), 0644))

	got, err := NewDirLoader(dir).LoadAll()
	require.NoError(t, err)
	assertTable(t, table(Rule{"app", []string{"run"}}), got)
}

func TestOverrideSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	t.Setenv("HOME", "/home/u")

	assert.Equal(t, []string{
		"/xdg/compgen/app.yaml",
		"/xdg/compgen/app.json",
		"/home/u/.config/compgen/app.yaml",
		"/home/u/.config/compgen/app.json",
		"/home/u/.app_completions.yaml",
		"/home/u/.app_completions.json",
	}, OverrideSearchPaths("app"))

	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Len(t, OverrideSearchPaths("app"), 4)
}

func TestFindOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)

	assert.Empty(t, FindOverrides("app"))

	fallback := filepath.Join(home, ".app_completions.yaml")
	require.NoError(t, os.WriteFile(fallback, []byte("app: []\n"), 0644))
	assert.Equal(t, fallback, FindOverrides("app"))

	preferred := filepath.Join(home, ".config", "compgen", "app.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(preferred), 0755))
	require.NoError(t, os.WriteFile(preferred, []byte("{}"), 0644))
	assert.Equal(t, preferred, FindOverrides("app"))
}
