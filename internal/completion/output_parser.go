package completion

import (
	"encoding/json"
	"strings"
)

// Candidate is a single completion suggestion.
type Candidate struct {
	Value       string `json:"Value" yaml:"value"`
	Description string `json:"Description,omitempty" yaml:"description,omitempty"`
}

// ParseCommandOutput turns the output of a $(...) candidate into candidates.
// A JSON list of strings or of {Value, Description} objects is taken as is.
// Otherwise each line is either "value<TAB>description" or a run of
// blank-separated words, the way a word list is split by the shell.
func ParseCommandOutput(output string) []Candidate {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var words []string
		if err := json.Unmarshal([]byte(trimmed), &words); err == nil {
			candidates := make([]Candidate, 0, len(words))
			for _, w := range words {
				candidates = append(candidates, Candidate{Value: w})
			}
			return candidates
		}

		var objects []Candidate
		if err := json.Unmarshal([]byte(trimmed), &objects); err == nil {
			candidates := make([]Candidate, 0, len(objects))
			for _, o := range objects {
				if o.Value != "" {
					candidates = append(candidates, o)
				}
			}
			return candidates
		}
	}

	var candidates []Candidate
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if value, description, found := strings.Cut(line, "\t"); found {
			value = strings.TrimSpace(value)
			if value != "" {
				candidates = append(candidates, Candidate{Value: value, Description: strings.TrimSpace(description)})
			}
			continue
		}

		for _, word := range strings.Fields(line) {
			candidates = append(candidates, Candidate{Value: word})
		}
	}
	return candidates
}
