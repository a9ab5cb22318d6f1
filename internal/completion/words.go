package completion

import (
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// splitCommandLine splits a partial command line into the words already
// typed and the word under the cursor (the end of the line). Quotes and
// escapes are honored; when the line ends in a blank the current word is
// empty. A line the shell parser rejects, typically because of an
// unterminated quote, falls back to splitting on blanks.
func splitCommandLine(line string) (words []string, current string) {
	var parsed []*syntax.Word
	err := syntax.NewParser().Words(strings.NewReader(line), func(w *syntax.Word) bool {
		parsed = append(parsed, w)
		return true
	})
	if err != nil {
		return splitFields(line)
	}

	for _, w := range parsed {
		words = append(words, wordText(line, w))
	}
	if len(parsed) == 0 {
		return nil, ""
	}
	if int(parsed[len(parsed)-1].End().Offset()) < len(line) {
		return words, ""
	}
	return words[:len(words)-1], words[len(words)-1]
}

func splitFields(line string) ([]string, string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ""
	}
	if strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
		return fields, ""
	}
	current := strings.TrimLeft(fields[len(fields)-1], `"'`)
	return fields[:len(fields)-1], current
}

// wordText removes quotes and escapes from a word. Words with expansions
// are kept verbatim, since completing "$HOME/x" should not run anything, and
// so are words that would split into several fields, like "{a,b}".
func wordText(line string, w *syntax.Word) string {
	raw := line[w.Pos().Offset():w.End().Offset()]
	if strings.ContainsAny(raw, "$`") {
		return raw
	}
	fields, err := expand.Fields(nil, w)
	if err != nil || len(fields) != 1 {
		return raw
	}
	return fields[0]
}
