package command

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// nodeDoc is the on-disk shape of one command. Commands and Aliases stay as
// raw nodes so that mapping key order survives decoding.
//
//	name: app
//	options:
//	  - long: --config-file
//	    short: -c
//	    value: FILE
//	arguments: [FILE]
//	commands:
//	  update:
//	    options: [{long: --quiet}]
//	aliases:
//	  up: update
type nodeDoc struct {
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description"`
	Capabilities []string      `yaml:"capabilities"`
	Options      []optionDoc   `yaml:"options"`
	Arguments    []argumentDoc `yaml:"arguments"`
	Commands     yaml.Node     `yaml:"commands"`
	Aliases      yaml.Node     `yaml:"aliases"`
}

type optionDoc struct {
	Long        string `yaml:"long"`
	Short       string `yaml:"short"`
	Value       string `yaml:"value"`
	Description string `yaml:"description"`
}

type argumentDoc struct {
	Usage       string `yaml:"usage"`
	Description string `yaml:"description"`
}

// UnmarshalYAML accepts either a bare usage string or a mapping.
func (a *argumentDoc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		a.Usage = value.Value
		return nil
	}
	type plain argumentDoc
	return value.Decode((*plain)(a))
}

// LoadFile reads a tree description document from disk.
func LoadFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	root, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return root, nil
}

// Decode parses a YAML (or JSON) tree description document and validates
// the resulting tree.
func Decode(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}

	root, err := decodeNode(doc.Content[0], "")
	if err != nil {
		return nil, err
	}
	if err := Validate(root); err != nil {
		return nil, err
	}
	return root, nil
}

func decodeNode(value *yaml.Node, name string) (*Node, error) {
	// "config: ~" or "config:" declares a command with nothing in it.
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		return &Node{Name: name}, nil
	}
	if value.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: command %q must be a mapping", value.Line, name)
	}

	var doc nodeDoc
	if err := value.Decode(&doc); err != nil {
		return nil, err
	}
	if doc.Name != "" {
		if name != "" && doc.Name != name {
			return nil, fmt.Errorf("line %d: command %q declares conflicting name %q", value.Line, name, doc.Name)
		}
		name = doc.Name
	}

	n := &Node{Name: name, Description: doc.Description}
	for _, opt := range doc.Options {
		o := Option{Long: opt.Long, Short: opt.Short, Description: opt.Description}
		if opt.Value != "" {
			o.Value = &Value{Usage: opt.Value}
		}
		n.Options = append(n.Options, o)
	}
	for _, arg := range doc.Arguments {
		n.Arguments = append(n.Arguments, Argument(arg))
	}

	children, err := decodeCommands(&doc.Commands, name)
	if err != nil {
		return nil, err
	}
	n.Subcommands = children

	aliases, err := decodeAliases(&doc.Aliases, name)
	if err != nil {
		return nil, err
	}
	n.Aliases = aliases

	if doc.Capabilities != nil {
		caps, err := parseCapabilities(doc.Capabilities)
		if err != nil {
			return nil, fmt.Errorf("line %d: command %q: %w", value.Line, name, err)
		}
		n.Caps = caps
	} else {
		n.Caps = inferCapabilities(value)
	}

	return n, nil
}

func decodeCommands(value *yaml.Node, parent string) ([]*Node, error) {
	switch value.Kind {
	case 0:
		return nil, nil
	case yaml.MappingNode:
		children := make([]*Node, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			child, err := decodeNode(value.Content[i+1], value.Content[i].Value)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return children, nil
	case yaml.SequenceNode:
		children := make([]*Node, 0, len(value.Content))
		for _, item := range value.Content {
			child, err := decodeNode(item, "")
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return children, nil
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("line %d: commands of %q must be a mapping or a list", value.Line, parent)
}

func decodeAliases(value *yaml.Node, parent string) ([]Alias, error) {
	switch value.Kind {
	case 0:
		return nil, nil
	case yaml.MappingNode:
		aliases := make([]Alias, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			target := value.Content[i+1]
			if target.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: alias %q of %q must name a command", target.Line, value.Content[i].Value, parent)
			}
			aliases = append(aliases, Alias{Name: value.Content[i].Value, Target: target.Value})
		}
		return aliases, nil
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("line %d: aliases of %q must be a mapping", value.Line, parent)
}

// inferCapabilities derives capabilities from which keys the mapping
// declares, so "options: []" still marks the command as taking flags.
func inferCapabilities(value *yaml.Node) Capability {
	var caps Capability
	for i := 0; i+1 < len(value.Content); i += 2 {
		switch value.Content[i].Value {
		case "options":
			caps |= Options
		case "commands":
			caps |= Subcommands
		case "arguments":
			caps |= Arguments
		}
	}
	return caps
}

func parseCapabilities(names []string) (Capability, error) {
	var caps Capability
	for _, name := range names {
		switch name {
		case "options":
			caps |= Options
		case "subcommands", "commands":
			caps |= Subcommands
		case "arguments":
			caps |= Arguments
		default:
			return 0, fmt.Errorf("unknown capability %q", name)
		}
	}
	return caps, nil
}
