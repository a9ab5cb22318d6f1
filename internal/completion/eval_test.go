package completion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandSubstitution(t *testing.T) {
	script, ok := commandSubstitution("$(app list)")
	assert.True(t, ok)
	assert.Equal(t, "app list", script)

	script, ok = commandSubstitution("$( git branch --format='%(refname:short)' )")
	assert.True(t, ok)
	assert.Equal(t, "git branch --format='%(refname:short)'", script)

	for _, s := range []string{"app", "$HOME", "$(unterminated", "x$(y)"} {
		_, ok := commandSubstitution(s)
		assert.False(t, ok, s)
	}
}

func TestShellEvaluator_Evaluate(t *testing.T) {
	e := &ShellEvaluator{Env: []string{"GREETING=hello"}}

	out, err := e.Evaluate(context.Background(), "echo a b; echo $GREETING")
	require.NoError(t, err)
	assert.Equal(t, "a b\nhello\n", out)
}

func TestShellEvaluator_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0644))

	e := &ShellEvaluator{Dir: dir, Env: []string{}}
	out, err := e.Evaluate(context.Background(), "echo *")
	require.NoError(t, err)
	assert.Equal(t, "marker\n", out)
}

func TestShellEvaluator_Errors(t *testing.T) {
	e := &ShellEvaluator{Env: []string{}}

	_, err := e.Evaluate(context.Background(), "echo 'unterminated")
	assert.ErrorContains(t, err, "failed to parse")

	out, err := e.Evaluate(context.Background(), "echo partial; exit 3")
	assert.ErrorContains(t, err, "failed to run")
	assert.Equal(t, "partial\n", out)
}

func TestShellEvaluator_Timeout(t *testing.T) {
	e := &ShellEvaluator{Env: []string{}, Timeout: 50 * time.Millisecond}

	start := time.Now()
	_, err := e.Evaluate(context.Background(), "while true; do :; done")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
