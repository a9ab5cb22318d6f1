package completion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRule is wrapped by errors for rule documents that are not a
// mapping of strings to lists of strings.
var ErrInvalidRule = errors.New("invalid completion rule")

// patternSeparator splits a value-completion key into command path and flag.
const patternSeparator = "*"

// Rule is one entry of a RuleTable.
type Rule struct {
	Key        string
	Candidates []string
}

// RuleTable maps command-path patterns ("app sub" or "app sub*--flag") to
// ordered candidate lists. Keys keep the order they were first inserted in.
// The zero value is an empty table ready to use.
type RuleTable struct {
	keys    []string
	entries map[string][]string
}

// NewRuleTable creates an empty table.
func NewRuleTable() *RuleTable {
	return &RuleTable{entries: make(map[string][]string)}
}

// ValuePatternKey builds the key for candidates offered after flag at path.
func ValuePatternKey(path, flag string) string {
	return path + patternSeparator + flag
}

// SplitKey splits a key into its command path and, for value-completion
// patterns, the flag. flag is empty for plain command paths.
func SplitKey(key string) (path, flag string) {
	path, flag, _ = strings.Cut(key, patternSeparator)
	return path, flag
}

func (t *RuleTable) Len() int {
	return len(t.keys)
}

// Keys returns the keys in table order.
func (t *RuleTable) Keys() []string {
	return slices.Clone(t.keys)
}

// Get returns a copy of the candidates stored under key.
func (t *RuleTable) Get(key string) ([]string, bool) {
	values, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(values), true
}

// Has reports whether key is present.
func (t *RuleTable) Has(key string) bool {
	_, ok := t.entries[key]
	return ok
}

// Set replaces the candidates for key. A new key goes to the end; an
// existing key keeps its position.
func (t *RuleTable) Set(key string, values []string) {
	if t.entries == nil {
		t.entries = make(map[string][]string)
	}
	if _, ok := t.entries[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.entries[key] = slices.Clone(values)
	if t.entries[key] == nil {
		t.entries[key] = []string{}
	}
}

// Append adds candidates after the existing ones, creating the key if needed.
func (t *RuleTable) Append(key string, values ...string) {
	if existing, ok := t.entries[key]; ok {
		t.entries[key] = append(existing, values...)
		return
	}
	t.Set(key, values)
}

// Delete removes key. Missing keys are ignored.
func (t *RuleTable) Delete(key string) {
	if _, ok := t.entries[key]; !ok {
		return
	}
	delete(t.entries, key)
	t.keys = slices.DeleteFunc(t.keys, func(k string) bool { return k == key })
}

// Rules returns every entry in table order.
func (t *RuleTable) Rules() []Rule {
	rules := make([]Rule, 0, len(t.keys))
	for _, key := range t.keys {
		rules = append(rules, Rule{Key: key, Candidates: slices.Clone(t.entries[key])})
	}
	return rules
}

// Clone returns a deep copy.
func (t *RuleTable) Clone() *RuleTable {
	c := NewRuleTable()
	for _, key := range t.keys {
		c.Set(key, t.entries[key])
	}
	return c
}

// Equal reports whether both tables hold the same keys in the same order
// with the same candidates.
func (t *RuleTable) Equal(other *RuleTable) bool {
	if other == nil {
		return t == nil
	}
	if !slices.Equal(t.keys, other.keys) {
		return false
	}
	for _, key := range t.keys {
		if !slices.Equal(t.entries[key], other.entries[key]) {
			return false
		}
	}
	return true
}

// String renders the table in its YAML form, mostly for test failures.
func (t *RuleTable) String() string {
	out, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Sprintf("<invalid table: %v>", err)
	}
	return string(out)
}

// MarshalYAML encodes the table as an ordered mapping of key to list.
func (t *RuleTable) MarshalYAML() (interface{}, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range t.keys {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, value := range t.entries[key] {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
		}
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			seq,
		)
	}
	return mapping, nil
}

// UnmarshalYAML decodes an ordered mapping of key to list of strings. A null
// value is an empty list; anything else that is not a list of scalars is
// rejected, as are duplicate keys.
func (t *RuleTable) UnmarshalYAML(value *yaml.Node) error {
	*t = RuleTable{entries: make(map[string][]string)}

	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: expected a mapping of command patterns to lists", ErrInvalidRule, value.Line)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valueNode := value.Content[i], value.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w: line %d: key must be a string", ErrInvalidRule, keyNode.Line)
		}
		key := keyNode.Value
		if t.Has(key) {
			return fmt.Errorf("%w: line %d: duplicate key %q", ErrInvalidRule, keyNode.Line, key)
		}

		var values []string
		switch {
		case valueNode.Kind == yaml.ScalarNode && valueNode.Tag == "!!null":
		case valueNode.Kind == yaml.SequenceNode:
			for _, item := range valueNode.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("%w: line %d: candidates of %q must be strings", ErrInvalidRule, item.Line, key)
				}
				values = append(values, item.Value)
			}
		default:
			return fmt.Errorf("%w: line %d: candidates of %q must be a list", ErrInvalidRule, valueNode.Line, key)
		}
		t.Set(key, values)
	}
	return nil
}

// MarshalJSON encodes the table as a JSON object in table order.
func (t *RuleTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, t.entries[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSON encodes v without HTML escaping. json.Marshal escapes the
// result again; an Encoder with SetEscapeHTML(false), as used by
// WriteTable, keeps "<file>" as is.
func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON decodes a JSON object. JSON is valid YAML, so this goes
// through the YAML decoder to keep key order and the same validation.
func (t *RuleTable) UnmarshalJSON(data []byte) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		*t = RuleTable{entries: make(map[string][]string)}
		return nil
	}
	return t.UnmarshalYAML(node.Content[0])
}
