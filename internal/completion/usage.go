package completion

import "strings"

// Placeholders understood by the completion script renderer. Each stands for
// "complete a value of this kind" rather than a literal word.
const (
	PlaceholderFile      = "<file>"
	PlaceholderDirectory = "<directory>"
	PlaceholderHostname  = "<hostname>"
	PlaceholderUser      = "<user>"
)

// usageKeywords is checked in order; the first family whose name equals the
// usage string, or is its "_"-separated suffix, wins.
var usageKeywords = []struct {
	name         string
	placeholders []string
}{
	{"FILE", []string{PlaceholderFile}},
	{"DIR", []string{PlaceholderDirectory}},
	{"PATH", []string{PlaceholderFile, PlaceholderDirectory}},
	{"HOST", []string{PlaceholderHostname}},
	{"USER", []string{PlaceholderUser}},
}

// ResolveUsage maps a value usage name such as "FILE" or "OUTPUT_DIR" to the
// placeholders to complete it with. Matching is case-sensitive and only at
// an underscore boundary, so "PROFILE" resolves to nothing.
func ResolveUsage(usage string) []string {
	for _, kw := range usageKeywords {
		if usage == kw.name || strings.HasSuffix(usage, "_"+kw.name) {
			return append([]string(nil), kw.placeholders...)
		}
	}
	return nil
}
