package command

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedNode is wrapped by every error Validate returns.
var ErrMalformedNode = errors.New("malformed command node")

// Validate walks the tree and rejects nodes the completion generator cannot
// describe: empty names, options without a long flag, duplicate sub-command
// names, aliases to unknown sub-commands and cycles.
func Validate(root *Node) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrMalformedNode)
	}
	return validate(root, nil, map[*Node]bool{})
}

func validate(n *Node, prefix []string, ancestors map[*Node]bool) error {
	path := strings.Join(append(append([]string{}, prefix...), n.Name), " ")

	if strings.TrimSpace(n.Name) == "" {
		if len(prefix) == 0 {
			return fmt.Errorf("%w: command has no name", ErrMalformedNode)
		}
		return fmt.Errorf("%w: sub-command of %q has no name", ErrMalformedNode, strings.Join(prefix, " "))
	}
	if strings.ContainsAny(n.Name, " \t*") {
		return fmt.Errorf("%w: %q: name must not contain blanks or '*'", ErrMalformedNode, path)
	}
	if ancestors[n] {
		return fmt.Errorf("%w: %q: sub-command cycle", ErrMalformedNode, path)
	}

	for i, opt := range n.Options {
		if opt.Long == "" {
			return fmt.Errorf("%w: %q: option %d has no long flag", ErrMalformedNode, path, i)
		}
	}

	seen := make(map[string]bool, len(n.Subcommands))
	for _, child := range n.Subcommands {
		if child == nil {
			return fmt.Errorf("%w: %q: nil sub-command", ErrMalformedNode, path)
		}
		if seen[child.Name] {
			return fmt.Errorf("%w: %q: duplicate sub-command %q", ErrMalformedNode, path, child.Name)
		}
		seen[child.Name] = true
	}
	for _, alias := range n.Aliases {
		if alias.Name == "" {
			return fmt.Errorf("%w: %q: alias has no name", ErrMalformedNode, path)
		}
		if !seen[alias.Target] {
			return fmt.Errorf("%w: %q: alias %q points to unknown sub-command %q", ErrMalformedNode, path, alias.Name, alias.Target)
		}
	}

	ancestors[n] = true
	defer delete(ancestors, n)

	childPrefix := append(append([]string{}, prefix...), n.Name)
	for _, child := range n.Subcommands {
		if err := validate(child, childPrefix, ancestors); err != nil {
			return err
		}
	}
	return nil
}
