package completion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"yaml": FormatYAML, "yml": FormatYAML, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("toml")
	assert.ErrorContains(t, err, `unknown output format "toml"`)
}

func TestWriteTable_YAML(t *testing.T) {
	generated, err := Generate(appTree())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, generated, FormatYAML))

	out := buf.String()
	assert.Contains(t, out, "<file>")
	assert.Less(t, strings.Index(out, "app:"), strings.Index(out, "app update:"))
	assert.Less(t, strings.Index(out, "app update:"), strings.Index(out, "app*--config-file:"))

	var decoded RuleTable
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assertTable(t, generated, &decoded)
}

func TestWriteTable_JSON(t *testing.T) {
	rules := table(
		Rule{"app", []string{"--config-file", "update"}},
		Rule{"app*--config-file", []string{"<file>"}},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rules, FormatJSON))

	assert.Equal(t, `{
  "app": [
    "--config-file",
    "update"
  ],
  "app*--config-file": [
    "<file>"
  ]
}
`, buf.String())
}

func TestWriteTable_UnknownFormat(t *testing.T) {
	err := WriteTable(&bytes.Buffer{}, NewRuleTable(), Format("xml"))
	assert.Error(t, err)
}
