package completion

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRuleTable_ZeroValue(t *testing.T) {
	var table RuleTable
	assert.Equal(t, 0, table.Len())
	assert.False(t, table.Has("app"))

	table.Set("app", []string{"a"})
	values, ok := table.Get("app")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, values)
}

func TestRuleTable_KeepsInsertionOrder(t *testing.T) {
	table := NewRuleTable()
	table.Set("zeta", []string{"z"})
	table.Set("alpha", []string{"a"})
	table.Set("mid", nil)
	table.Set("zeta", []string{"z2"})

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, table.Keys())

	values, _ := table.Get("zeta")
	assert.Equal(t, []string{"z2"}, values)

	values, ok := table.Get("mid")
	assert.True(t, ok)
	assert.Equal(t, []string{}, values)
}

func TestRuleTable_GetReturnsCopy(t *testing.T) {
	table := NewRuleTable()
	table.Set("app", []string{"a", "b"})

	values, _ := table.Get("app")
	values[0] = "changed"

	again, _ := table.Get("app")
	assert.Equal(t, []string{"a", "b"}, again)
}

func TestRuleTable_AppendAndDelete(t *testing.T) {
	table := NewRuleTable()
	table.Append("app", "a")
	table.Append("app", "b", "a")
	table.Append("other")

	values, _ := table.Get("app")
	assert.Equal(t, []string{"a", "b", "a"}, values)
	assert.True(t, table.Has("other"))

	table.Delete("app")
	table.Delete("missing")
	assert.Equal(t, []string{"other"}, table.Keys())
	assert.False(t, table.Has("app"))
}

func TestRuleTable_CloneAndEqual(t *testing.T) {
	table := NewRuleTable()
	table.Set("app", []string{"a"})
	table.Set("app*--file", []string{"<file>"})

	clone := table.Clone()
	assert.True(t, table.Equal(clone))

	clone.Append("app", "b")
	assert.False(t, table.Equal(clone))

	values, _ := table.Get("app")
	assert.Equal(t, []string{"a"}, values)

	reordered := NewRuleTable()
	reordered.Set("app*--file", []string{"<file>"})
	reordered.Set("app", []string{"a"})
	assert.False(t, table.Equal(reordered))
	assert.False(t, table.Equal(nil))
}

func TestSplitKey(t *testing.T) {
	path, flag := SplitKey("app sub*--output")
	assert.Equal(t, "app sub", path)
	assert.Equal(t, "--output", flag)

	path, flag = SplitKey("app sub")
	assert.Equal(t, "app sub", path)
	assert.Empty(t, flag)

	assert.Equal(t, "app*-o", ValuePatternKey("app", "-o"))
}

func TestRuleTable_YAMLRoundTripKeepsOrder(t *testing.T) {
	input := `
zeta:
  - z
app:
  - --config-file
  - update
app*--config-file:
  - <file>
empty:
nothing: []
`
	var table RuleTable
	require.NoError(t, yaml.Unmarshal([]byte(input), &table))

	assert.Equal(t, []string{"zeta", "app", "app*--config-file", "empty", "nothing"}, table.Keys())
	values, _ := table.Get("empty")
	assert.Equal(t, []string{}, values)

	out, err := yaml.Marshal(&table)
	require.NoError(t, err)

	var decoded RuleTable
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.True(t, table.Equal(&decoded), "got:\n%s", decoded.String())
}

func TestRuleTable_UnmarshalYAMLErrors(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		errorContains string
	}{
		{
			name:          "top level list",
			input:         "- a\n- b\n",
			errorContains: "expected a mapping",
		},
		{
			name:          "scalar candidates",
			input:         "app: run\n",
			errorContains: `candidates of "app" must be a list`,
		},
		{
			name:          "nested list",
			input:         "app:\n  - [a, b]\n",
			errorContains: `candidates of "app" must be strings`,
		},
		{
			name:          "mapping candidate",
			input:         "app:\n  - value: a\n",
			errorContains: `candidates of "app" must be strings`,
		},
		{
			name:          "non scalar key",
			input:         "? [a, b]\n: [c]\n",
			errorContains: "key must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var table RuleTable
			err := yaml.Unmarshal([]byte(tt.input), &table)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRule)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestRuleTable_NullDocument(t *testing.T) {
	var table RuleTable
	require.NoError(t, yaml.Unmarshal([]byte("~\n"), &table))
	assert.Equal(t, 0, table.Len())
}

func TestRuleTable_MarshalJSON(t *testing.T) {
	table := NewRuleTable()
	table.Set("app", []string{"--config-file", "update"})
	table.Set("app*--config-file", []string{"<file>"})
	table.Set("app update", nil)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(table))
	assert.Equal(t, `{"app":["--config-file","update"],"app*--config-file":["<file>"],"app update":[]}`+"\n", buf.String())

	// json.Marshal applies its own HTML escaping on top
	out, err := json.Marshal(table)
	require.NoError(t, err)
	assert.Equal(t, `{"app":["--config-file","update"],"app*--config-file":["\u003cfile\u003e"],"app update":[]}`, string(out))
}

func TestRuleTable_UnmarshalJSON(t *testing.T) {
	var table RuleTable
	err := json.Unmarshal([]byte(`{"b": ["1"], "a": ["2", "3"], "c": null}`), &table)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, table.Keys())
	values, _ := table.Get("a")
	assert.Equal(t, []string{"2", "3"}, values)

	err = json.Unmarshal([]byte(`{"a": "x"}`), &table)
	assert.ErrorIs(t, err, ErrInvalidRule)

	err = json.Unmarshal([]byte(`{"a": ["x"], "a": ["y"]}`), &table)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRule)
}
