// Package command describes a command-line application as a tree of nodes:
// each node has options, positional arguments, sub-commands and aliases.
// Trees are built in code, decoded from a description document, or derived
// from a standard library flag set.
package command

import (
	"strings"
)

// Capability marks what a node can declare. Flags compose with |.
type Capability uint8

const (
	// Options means the node accepts flags.
	Options Capability = 1 << iota
	// Subcommands means the node dispatches to child commands.
	Subcommands
	// Arguments means the node takes positional arguments.
	Arguments
)

// String returns the capability names joined with "|", e.g. "options|arguments".
func (c Capability) String() string {
	var names []string
	if c&Options != 0 {
		names = append(names, "options")
	}
	if c&Subcommands != 0 {
		names = append(names, "subcommands")
	}
	if c&Arguments != 0 {
		names = append(names, "arguments")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Value is the value an option takes. Usage is the symbolic name shown in
// help output, e.g. "FILE" or "OUTPUT_DIR".
type Value struct {
	Usage string
}

// Option is a single flag. Short is empty when the option has no short form
// and Value is nil when the option is a switch.
type Option struct {
	Long        string
	Short       string
	Value       *Value
	Description string
}

// Argument is a positional parameter.
type Argument struct {
	Usage       string
	Description string
}

// Alias is an alternate name for one of a node's sub-commands.
type Alias struct {
	Name   string
	Target string
}

// Node is one command in the hierarchy.
type Node struct {
	Name        string
	Description string
	Caps        Capability

	Options   []Option
	Arguments []Argument

	// Subcommands are kept in declaration order and keyed by their Name.
	Subcommands []*Node
	Aliases     []Alias
}

// New creates a node with the given capabilities.
func New(name string, caps Capability) *Node {
	return &Node{Name: name, Caps: caps}
}

// Supports reports whether every capability in c is set on the node.
func (n *Node) Supports(c Capability) bool {
	return n.Caps&c == c
}

// AddOption appends an option and marks the node as accepting options.
func (n *Node) AddOption(opt Option) *Node {
	n.Caps |= Options
	n.Options = append(n.Options, opt)
	return n
}

// AddArgument appends a positional argument.
func (n *Node) AddArgument(usage string) *Node {
	n.Caps |= Arguments
	n.Arguments = append(n.Arguments, Argument{Usage: usage})
	return n
}

// AddSubcommand appends a child command.
func (n *Node) AddSubcommand(child *Node) *Node {
	n.Caps |= Subcommands
	n.Subcommands = append(n.Subcommands, child)
	return n
}

// AddAlias registers name as an alternate spelling of the target sub-command.
func (n *Node) AddAlias(name, target string) *Node {
	n.Aliases = append(n.Aliases, Alias{Name: name, Target: target})
	return n
}

// Subcommand looks up a direct child by name.
func (n *Node) Subcommand(name string) (*Node, bool) {
	for _, child := range n.Subcommands {
		if child.Name == name {
			return child, true
		}
	}
	return nil, false
}

// Flag returns a switch option.
func Flag(long, short string) Option {
	return Option{Long: long, Short: short}
}

// ValueFlag returns an option taking a value with the given usage name.
func ValueFlag(long, short, usage string) Option {
	return Option{Long: long, Short: short, Value: &Value{Usage: usage}}
}
