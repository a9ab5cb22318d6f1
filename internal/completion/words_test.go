package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		line        string
		wantWords   []string
		wantCurrent string
	}{
		{"", nil, ""},
		{"app", []string{}, "app"},
		{"app ", []string{"app"}, ""},
		{"app up", []string{"app"}, "up"},
		{"app --config-file ", []string{"app", "--config-file"}, ""},
		{"app 'my file' ma", []string{"app", "my file"}, "ma"},
		{`app my\ dir/`, []string{"app"}, "my dir/"},
		{`app "a\"b" c\ d`, []string{"app", `a"b`}, "c d"},
		{"app {a,b} ", []string{"app", "{a,b}"}, ""},
		{"app $HOME/x", []string{"app"}, "$HOME/x"},
		{"app 'unterminated", []string{"app"}, "unterminated"},
		{"  app   update  ", []string{"app", "update"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			words, current := splitCommandLine(tt.line)
			assert.Equal(t, tt.wantWords, words)
			assert.Equal(t, tt.wantCurrent, current)
		})
	}
}
