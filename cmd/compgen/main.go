package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"
	"github.com/robottwo/compgen/internal/command"
	"github.com/robottwo/compgen/internal/completion"
	"github.com/robottwo/compgen/internal/core"
	"github.com/robottwo/compgen/internal/history"
	"github.com/robottwo/compgen/internal/styles"
	"go.uber.org/zap"
)

var BUILD_VERSION = "dev"

const programName = "compgen"

func init() {
	// Register custom zstd sink for compressed logging
	if err := zap.RegisterSink("zstd", newCompressedSink); err != nil {
		panic(fmt.Sprintf("failed to register zstd sink: %v", err))
	}
}

// usageError marks errors caused by how compgen was invoked. They exit with
// status 2 and a hint to read the usage.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type options struct {
	output               string
	input                string
	noInput              bool
	format               string
	noShortFlags         bool
	exclusiveSubcommands bool
	self                 bool
	complete             string
	fuzzy                bool
	history              int
	historyRoot          string
	deleteRun            uint
	clearHistory         bool
	help                 bool
	version              bool
}

func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&opts.output, "o", "", "write the rules to `OUTPUT_FILE` instead of stdout")
	fs.StringVar(&opts.input, "input", "", "merge hand-written rules from `OVERRIDES_PATH`, a file or a directory of rule files")
	fs.BoolVar(&opts.noInput, "no-input", false, "do not look for an overrides file in the usual places")
	fs.StringVar(&opts.format, "format", "yaml", "output `FORMAT`: yaml or json")
	fs.BoolVar(&opts.noShortFlags, "no-short-flags", false, "leave short flags out of the rules")
	fs.BoolVar(&opts.exclusiveSubcommands, "exclusive-subcommands", false, "never complete arguments of commands that take sub-commands")
	fs.BoolVar(&opts.self, "self", false, "describe compgen's own flags instead of reading a tree file")
	fs.StringVar(&opts.complete, "complete", "", "print the completions for `LINE` instead of writing the rules")
	fs.BoolVar(&opts.fuzzy, "fuzzy", false, "fall back to fuzzy matching for -complete")
	fs.IntVar(&opts.history, "history", 0, "print the last `N` generation runs")
	fs.StringVar(&opts.historyRoot, "root", "", "with -history, only list runs for the command `NAME`")
	fs.UintVar(&opts.deleteRun, "delete-run", 0, "delete the run with `ID` from the history")
	fs.BoolVar(&opts.clearHistory, "clear-history", false, "delete the generation run history")

	// Register help flags: -h and -help
	fs.BoolVar(&opts.help, "h", false, "display help information")
	fs.BoolVar(&opts.help, "help", false, "display help information")

	// Register version flags: -v and -version
	fs.BoolVar(&opts.version, "v", false, "display build version")
	fs.BoolVar(&opts.version, "version", false, "display build version")

	return fs
}

func main() {
	logger, err := initializeLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.WARNING(fmt.Sprintf("logging disabled: %v", err)))
		logger = zap.NewNop()
	}

	historyManager, err := initializeHistoryManager()
	if err != nil {
		logger.Warn("failed to initialize history manager", zap.Error(err))
	}

	a := &app{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		logger:  logger,
		history: historyManager,
		now:     time.Now,
	}
	err = a.run(context.Background(), os.Args[1:])

	if historyManager != nil {
		if closeErr := historyManager.Close(); closeErr != nil {
			logger.Warn("failed to close history manager", zap.Error(closeErr))
		}
	}
	_ = logger.Sync() // Flush any buffered log entries

	os.Exit(exitCode(os.Stderr, err))
}

// exitCode reports err and maps it to the process exit status.
func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(stderr, styles.ERROR(programName+": "+uerr.Error()))
		fmt.Fprintln(stderr, styles.HINT("Run '"+programName+" -h' for usage information."))
		return 2
	}

	fmt.Fprintln(stderr, styles.ERROR(programName+": "+err.Error()))
	return 1
}

type app struct {
	stdout  io.Writer
	stderr  io.Writer
	logger  *zap.Logger
	history *history.HistoryManager // nil when the database could not be opened
	now     func() time.Time
}

func (a *app) run(ctx context.Context, args []string) error {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(a.stdout, fs)
			return nil
		}
		return newUsageError("%v", err)
	}

	switch {
	case opts.version:
		fmt.Fprintln(a.stdout, BUILD_VERSION)
		return nil
	case opts.help:
		printUsage(a.stdout, fs)
		return nil
	case opts.clearHistory:
		return a.clearHistory()
	case opts.deleteRun > 0:
		return a.deleteRun(opts.deleteRun)
	case opts.history > 0:
		return a.printHistory(opts.history, opts.historyRoot)
	case opts.history < 0:
		return newUsageError("-history must be positive, got %d", opts.history)
	case opts.historyRoot != "":
		return newUsageError("-root needs -history")
	}

	format, err := completion.ParseFormat(opts.format)
	if err != nil {
		return newUsageError("%v", err)
	}

	root, source, err := a.loadTree(fs, opts)
	if err != nil {
		return err
	}

	entry := history.RunEntry{
		Root:   root.Name,
		Source: source,
		Output: opts.output,
		Format: string(format),
	}
	if entry.Output == "" {
		entry.Output = "-"
	}

	rules, err := a.buildRules(root, opts, &entry)
	if err == nil {
		entry.RuleCount = rules.Len()
		if opts.complete != "" {
			err = a.complete(ctx, rules, opts)
		} else {
			err = a.writeRules(rules, opts.output, format)
		}
	}

	if opts.complete == "" {
		if err != nil {
			entry.Err = err.Error()
		}
		a.record(entry)
	}
	return err
}

func (a *app) loadTree(fs *flag.FlagSet, opts options) (*command.Node, string, error) {
	if opts.self {
		if fs.NArg() > 0 {
			return nil, "", newUsageError("-self does not take a tree file")
		}
		return command.FromFlagSet(programName, fs).AddArgument("TREE_FILE"), "-self", nil
	}

	if fs.NArg() != 1 {
		return nil, "", newUsageError("expected exactly one tree file, got %d arguments", fs.NArg())
	}

	path := fs.Arg(0)
	root, err := command.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return root, path, nil
}

// buildRules generates the rules for root and merges the overrides, if any.
func (a *app) buildRules(root *command.Node, opts options, entry *history.RunEntry) (*completion.RuleTable, error) {
	genOpts := []completion.GeneratorOption{completion.WithLogger(a.logger)}
	if opts.noShortFlags {
		genOpts = append(genOpts, completion.WithoutShortFlags())
	}
	if opts.exclusiveSubcommands {
		genOpts = append(genOpts, completion.WithPrecedence(completion.ExclusiveSubcommands))
	}

	generated, err := completion.NewGenerator(genOpts...).Generate(root)
	if err != nil {
		return nil, err
	}

	overridesPath := opts.input
	if overridesPath == "" && !opts.noInput {
		overridesPath = completion.FindOverrides(root.Name)
	}
	if overridesPath == "" {
		return generated, nil
	}

	overrides, err := loadOverrides(overridesPath)
	if err != nil {
		return nil, err
	}
	entry.Overrides = overridesPath

	a.logger.Debug("merging overrides",
		zap.String("path", overridesPath),
		zap.Int("rules", overrides.Len()),
	)
	return completion.Merge(generated, overrides), nil
}

// loadOverrides reads one rule file, or merges every rule file under a
// directory in lexical order.
func loadOverrides(path string) (*completion.RuleTable, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return completion.LoadOverrideFile(path)
	}

	overrides, err := completion.NewDirLoader(path).LoadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return overrides, nil
}

func (a *app) writeRules(rules *completion.RuleTable, output string, format completion.Format) error {
	if output == "" {
		return completion.WriteTable(a.stdout, rules, format)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := completion.WriteTable(file, rules, format); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func (a *app) complete(ctx context.Context, rules *completion.RuleTable, opts options) error {
	completerOpts := []completion.CompleterOption{completion.WithCompleterLogger(a.logger)}
	if opts.fuzzy {
		completerOpts = append(completerOpts, completion.WithFuzzy())
	}

	candidates, err := completion.NewCompleter(rules, completerOpts...).Complete(ctx, opts.complete)
	if err != nil {
		return err
	}

	for _, c := range candidates {
		if c.Description != "" {
			fmt.Fprintf(a.stdout, "%s\t%s\n", c.Value, c.Description)
		} else {
			fmt.Fprintln(a.stdout, c.Value)
		}
	}
	return nil
}

// record stores the run. History is best effort and never fails a run.
func (a *app) record(entry history.RunEntry) {
	if a.history == nil {
		return
	}
	if _, err := a.history.Record(entry); err != nil {
		a.logger.Warn("failed to record run", zap.Error(err))
	}
}

func (a *app) printHistory(limit int, root string) error {
	if a.history == nil {
		return errors.New("run history is not available")
	}

	var entries []history.RunEntry
	var total int64
	title := "Recent runs"
	if root == "" {
		var err error
		if entries, err = a.history.GetRecentEntries(limit); err != nil {
			return err
		}
		if total, err = a.history.GetTotalCount(); err != nil {
			return err
		}
	} else {
		all, err := a.history.GetEntriesForRoot(root)
		if err != nil {
			return err
		}
		total = int64(len(all))
		// newest first; keep the newest limit and print them oldest first
		entries = all[:min(limit, len(all))]
		slices.Reverse(entries)
		title = "Recent runs of " + root
	}

	fmt.Fprintln(a.stdout, styles.TableTitle.Render(fmt.Sprintf("%s (%d of %d)", title, len(entries), total)))
	return history.PrintEntries(a.stdout, entries, a.now())
}

func (a *app) deleteRun(id uint) error {
	if a.history == nil {
		return errors.New("run history is not available")
	}
	if err := a.history.DeleteEntry(id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Run %d deleted.\n", id)
	return nil
}

func (a *app) clearHistory() error {
	if a.history == nil {
		return errors.New("run history is not available")
	}
	if err := a.history.ResetHistory(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Run history cleared.")
	return nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	width := styles.Width()

	fmt.Fprintln(w, styles.HEADING("Usage:")+" "+programName+" [flags] <tree-file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, wordwrap.String("Generates shell completion rules from a command tree described in YAML or JSON. "+
		"Hand-written rules found in an overrides file are appended to the generated ones.", width))
	fmt.Fprintln(w)

	fmt.Fprintln(w, styles.HEADING("Options:"))

	// Group aliases like -h and -help together
	printed := make(map[string]bool)

	fs.VisitAll(func(f *flag.Flag) {
		if printed[f.Name] {
			return
		}

		// Identify aliases based on shared usage strings.
		aliases := []string{f.Name}
		fs.VisitAll(func(p *flag.Flag) {
			if p.Name != f.Name && p.Usage == f.Usage {
				aliases = append(aliases, p.Name)
				printed[p.Name] = true
			}
		})
		printed[f.Name] = true

		// Short flags first, then long flags
		var shortFlags, longFlags []string
		for _, name := range aliases {
			if len(name) == 1 {
				shortFlags = append(shortFlags, "-"+name)
			} else {
				longFlags = append(longFlags, "-"+name)
			}
		}
		flagStr := strings.Join(append(shortFlags, longFlags...), ", ")

		argName, usage := flag.UnquoteUsage(f)
		if argName != "" {
			flagStr += " <" + argName + ">"
		}

		lines := strings.Split(wordwrap.String(usage, max(width-31, 20)), "\n")
		fmt.Fprintf(w, "  %-28s %s\n", flagStr, lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(w, "  %-28s %s\n", "", line)
		}
	})

	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.HEADING("Environment:"))
	fmt.Fprintf(w, "  %-28s %s\n", "COMPGEN_LOG_LEVEL", "debug, info, warn or error (logs go to "+core.LogFile()+")")
	fmt.Fprintf(w, "  %-28s %s\n", "XDG_CONFIG_HOME", "where <name>.yaml overrides are looked for")
}

func initializeLogger() (*zap.Logger, error) {
	logLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
	if level := os.Getenv("COMPGEN_LOG_LEVEL"); level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid COMPGEN_LOG_LEVEL: %w", err)
		}
		logLevel = parsed
	} else if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	if err := core.RotateLogFiles(); err != nil {
		return nil, err
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		"zstd://" + core.LogFile(),
	}
	return loggerConfig.Build()
}

func initializeHistoryManager() (*history.HistoryManager, error) {
	return history.NewHistoryManager(core.HistoryFile())
}
