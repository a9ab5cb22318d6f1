package completion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// DefaultEvalTimeout bounds how long a $(...) candidate may run.
const DefaultEvalTimeout = 2 * time.Second

// Evaluator runs the script inside a $(...) candidate and returns its
// standard output.
type Evaluator interface {
	Evaluate(ctx context.Context, script string) (string, error)
}

// ShellEvaluator runs scripts with the mvdan.cc/sh interpreter, so no
// system shell is needed.
type ShellEvaluator struct {
	Dir     string
	Env     []string
	Timeout time.Duration
}

// Evaluate parses and runs script. Output written before a failure is
// returned along with the error.
func (e *ShellEvaluator) Evaluate(ctx context.Context, script string) (string, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(script), "compgen")
	if err != nil {
		return "", fmt.Errorf("failed to parse %q: %w", script, err)
	}

	env := e.Env
	if env == nil {
		env = os.Environ()
	}

	var stdout bytes.Buffer
	opts := []interp.RunnerOption{
		interp.StdIO(nil, &stdout, io.Discard),
		interp.Env(expand.ListEnviron(env...)),
	}
	if e.Dir != "" {
		opts = append(opts, interp.Dir(e.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return "", err
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultEvalTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := runner.Run(ctx, file); err != nil {
		return stdout.String(), fmt.Errorf("failed to run %q: %w", script, err)
	}
	return stdout.String(), nil
}

// commandSubstitution returns the script of a "$(script)" candidate.
func commandSubstitution(candidate string) (string, bool) {
	if !strings.HasPrefix(candidate, "$(") || !strings.HasSuffix(candidate, ")") {
		return "", false
	}
	return strings.TrimSpace(candidate[2 : len(candidate)-1]), true
}
