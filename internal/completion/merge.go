package completion

// Merge combines generated rules with overrides into a new table. Keys in
// both get the generated candidates followed by the override candidates,
// duplicates included. Keys only in overrides are added after the generated
// keys in override order. Neither input is modified; a nil overrides table
// yields a copy of generated.
func Merge(generated, overrides *RuleTable) *RuleTable {
	merged := NewRuleTable()
	if generated != nil {
		merged = generated.Clone()
	}
	if overrides == nil {
		return merged
	}

	for _, rule := range overrides.Rules() {
		merged.Append(rule.Key, rule.Candidates...)
	}
	return merged
}
