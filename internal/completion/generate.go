package completion

import (
	"slices"
	"strings"

	"github.com/robottwo/compgen/internal/command"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// SubcommandPrecedence decides what a node that supports both sub-commands
// and positional arguments completes at its own position.
type SubcommandPrecedence int

const (
	// FallbackToArguments completes sub-commands when the node declares any
	// sub-command or alias, and falls back to the first argument otherwise.
	FallbackToArguments SubcommandPrecedence = iota
	// ExclusiveSubcommands never consults arguments on a node that supports
	// sub-commands, even if it declares none.
	ExclusiveSubcommands
)

// Generator derives completion rules from a command tree.
type Generator struct {
	shortFlags bool
	precedence SubcommandPrecedence
	logger     *zap.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithoutShortFlags leaves short flags out of candidates and value patterns.
func WithoutShortFlags() GeneratorOption {
	return func(g *Generator) {
		g.shortFlags = false
	}
}

// WithPrecedence selects how sub-commands and arguments interact.
func WithPrecedence(p SubcommandPrecedence) GeneratorOption {
	return func(g *Generator) {
		g.precedence = p
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator returns a Generator with short flags on and
// FallbackToArguments precedence, adjusted by opts.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		shortFlags: true,
		precedence: FallbackToArguments,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate derives the completion rules for root with the default settings.
func Generate(root *command.Node) (*RuleTable, error) {
	return NewGenerator().Generate(root)
}

// Generate validates the tree and returns its completion rules. prefix is
// prepended to every command path, for trees mounted under another command.
// Entries without candidates are left out.
func (g *Generator) Generate(root *command.Node, prefix ...string) (*RuleTable, error) {
	if err := command.Validate(root); err != nil {
		return nil, err
	}

	table := g.rulesFor(root, prefix)
	for _, key := range table.Keys() {
		if values, _ := table.Get(key); len(values) == 0 {
			table.Delete(key)
		}
	}

	g.logger.Debug("generated completion rules",
		zap.String("command", root.Name),
		zap.Int("rules", table.Len()),
	)
	return table, nil
}

// rulesFor returns the rules for n and its descendants: n's own path first,
// then every descendant entry, then n's value patterns. Empty entries are
// kept here and pruned once by Generate.
func (g *Generator) rulesFor(n *command.Node, prefix []string) *RuleTable {
	path := strings.Join(append(slices.Clone(prefix), n.Name), " ")

	table := NewRuleTable()
	table.Set(path, nil)

	var candidates []string
	patterns := NewRuleTable()

	if n.Supports(command.Options) {
		for _, opt := range n.Options {
			withShort := g.shortFlags && opt.Short != ""

			candidates = append(candidates, opt.Long)
			if withShort {
				candidates = append(candidates, opt.Short)
			}

			if opt.Value == nil {
				continue
			}
			keywords := ResolveUsage(opt.Value.Usage)
			if len(keywords) == 0 {
				continue
			}
			patterns.Set(ValuePatternKey(path, opt.Long), keywords)
			if withShort {
				patterns.Set(ValuePatternKey(path, opt.Short), keywords)
			}
		}
	}

	if g.completesSubcommands(n) {
		childPrefix := append(slices.Clone(prefix), n.Name)
		for _, child := range n.Subcommands {
			candidates = append(candidates, child.Name)
			for _, rule := range g.rulesFor(child, childPrefix).Rules() {
				table.Set(rule.Key, rule.Candidates)
			}
		}
		candidates = append(candidates, lo.Map(n.Aliases, func(a command.Alias, _ int) string {
			return a.Name
		})...)
	} else if n.Supports(command.Arguments) && len(n.Arguments) > 0 {
		candidates = append(candidates, ResolveUsage(n.Arguments[0].Usage)...)
	}

	table.Set(path, candidates)
	for _, rule := range patterns.Rules() {
		table.Set(rule.Key, rule.Candidates)
	}
	return table
}

func (g *Generator) completesSubcommands(n *command.Node) bool {
	if !n.Supports(command.Subcommands) {
		return false
	}
	if g.precedence == ExclusiveSubcommands || !n.Supports(command.Arguments) {
		return true
	}
	return len(n.Subcommands) > 0 || len(n.Aliases) > 0
}
