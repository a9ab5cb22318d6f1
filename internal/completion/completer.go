package completion

import (
	"context"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Completer answers completion queries against a rule table the way a
// generated completion script would: it finds the rule for the command path
// typed so far, expands placeholders and $(...) candidates, and filters by
// the word under the cursor.
type Completer struct {
	mu    sync.RWMutex
	table *RuleTable
	paths map[string]bool

	expander  *PlaceholderExpander
	evaluator Evaluator
	fuzzy     bool
	logger    *zap.Logger
}

// CompleterOption configures a Completer.
type CompleterOption func(*Completer)

// WithFuzzy ranks candidates with fuzzy matching when none starts with the
// current word.
func WithFuzzy() CompleterOption {
	return func(c *Completer) {
		c.fuzzy = true
	}
}

// WithExpander replaces the placeholder expander.
func WithExpander(e *PlaceholderExpander) CompleterOption {
	return func(c *Completer) {
		c.expander = e
	}
}

// WithEvaluator replaces the evaluator used for $(...) candidates.
func WithEvaluator(e Evaluator) CompleterOption {
	return func(c *Completer) {
		c.evaluator = e
	}
}

// WithCompleterLogger sets the logger for evaluation failures.
func WithCompleterLogger(logger *zap.Logger) CompleterOption {
	return func(c *Completer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCompleter returns a Completer answering from table.
func NewCompleter(table *RuleTable, opts ...CompleterOption) *Completer {
	c := &Completer{
		expander:  &PlaceholderExpander{},
		evaluator: &ShellEvaluator{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.SetTable(table)
	return c
}

// SetTable swaps the table queries are answered from.
func (c *Completer) SetTable(table *RuleTable) {
	if table == nil {
		table = NewRuleTable()
	}

	// every prefix of every key's command path is a command the user can
	// type, even when it has no rule of its own
	paths := make(map[string]bool)
	for _, key := range table.Keys() {
		path, _ := SplitKey(key)
		words := strings.Split(path, " ")
		for i := range words {
			paths[strings.Join(words[:i+1], " ")] = true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = table
	c.paths = paths
}

// Table returns the current table.
func (c *Completer) Table() *RuleTable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table
}

// ruleFor returns the table key that applies to the typed words, or false
// when no rule applies. The caller holds c.mu.
func (c *Completer) ruleFor(words []string) (string, bool) {
	if len(words) == 0 || !c.paths[words[0]] {
		return "", false
	}

	path := words[0]
	for i := 1; i < len(words); i++ {
		w := words[i]
		if strings.HasPrefix(w, "-") {
			// the word after a flag with a value rule is that flag's value
			if i+1 < len(words) && c.table.Has(ValuePatternKey(path, w)) {
				i++
			}
			continue
		}
		if next := path + " " + w; c.paths[next] {
			path = next
		}
	}

	if prev := words[len(words)-1]; len(words) > 1 && strings.HasPrefix(prev, "-") {
		if key := ValuePatternKey(path, prev); c.table.Has(key) {
			return key, true
		}
	}
	if c.table.Has(path) {
		return path, true
	}
	return "", false
}

// Complete returns the candidates for the end of line.
func (c *Completer) Complete(ctx context.Context, line string) ([]Candidate, error) {
	words, current := splitCommandLine(line)

	c.mu.RLock()
	key, ok := c.ruleFor(words)
	var raw []string
	if ok {
		raw, _ = c.table.Get(key)
	}
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	var expanded []Candidate
	for _, value := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		expanded = append(expanded, c.expand(ctx, value, current)...)
	}
	expanded = lo.UniqBy(expanded, func(cand Candidate) string {
		return cand.Value
	})

	matches := lo.Filter(expanded, func(cand Candidate, _ int) bool {
		return strings.HasPrefix(cand.Value, current)
	})
	if len(matches) == 0 && c.fuzzy && current != "" {
		matches = fuzzyMatches(current, expanded)
	}
	return matches, nil
}

func (c *Completer) expand(ctx context.Context, value, current string) []Candidate {
	if IsPlaceholder(value) {
		candidates, _ := c.expander.Expand(value, current)
		return candidates
	}

	if script, ok := commandSubstitution(value); ok {
		output, err := c.evaluator.Evaluate(ctx, script)
		if err != nil {
			c.logger.Debug("completion command failed", zap.String("script", script), zap.Error(err))
			return nil
		}
		return ParseCommandOutput(output)
	}

	return []Candidate{{Value: value}}
}

func fuzzyMatches(pattern string, candidates []Candidate) []Candidate {
	values := lo.Map(candidates, func(cand Candidate, _ int) string {
		return cand.Value
	})

	// fuzzy.Find returns matches best first
	ranked := fuzzy.Find(pattern, values)
	out := make([]Candidate, 0, len(ranked))
	for _, m := range ranked {
		out = append(out, candidates[m.Index])
	}
	return out
}
