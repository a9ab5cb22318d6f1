package command

import (
	"flag"
	"reflect"
	"sort"
)

// FromFlagSet describes a program built on the standard flag package.
// Flags that share a non-empty usage string, a value type and a default
// are treated as aliases of one option:
// a single-letter name becomes the short form and the longest name the long
// form. A back-quoted name in the usage string (see flag.UnquoteUsage)
// becomes the option's value usage; boolean flags take no value.
func FromFlagSet(name string, fs *flag.FlagSet) *Node {
	n := New(name, Options)

	printed := make(map[string]bool)
	fs.VisitAll(func(f *flag.Flag) {
		if printed[f.Name] {
			return
		}

		aliases := []string{f.Name}
		fs.VisitAll(func(p *flag.Flag) {
			if p.Name == f.Name {
				return
			}
			if sameOption(p, f) {
				aliases = append(aliases, p.Name)
				printed[p.Name] = true
			}
		})
		printed[f.Name] = true

		var shorts, longs []string
		for _, alias := range aliases {
			if len(alias) == 1 {
				shorts = append(shorts, alias)
			} else {
				longs = append(longs, alias)
			}
		}
		// longest first, ties broken alphabetically
		sort.SliceStable(longs, func(i, j int) bool {
			return len(longs[i]) > len(longs[j])
		})

		opt := Option{}
		switch {
		case len(longs) > 0:
			opt.Long = "--" + longs[0]
			if len(shorts) > 0 {
				opt.Short = "-" + shorts[0]
			}
		default:
			opt.Long = "-" + shorts[0]
		}

		valueName, usage := flag.UnquoteUsage(f)
		opt.Description = usage
		if valueName != "" {
			opt.Value = &Value{Usage: valueName}
		}

		n.AddOption(opt)
	})

	return n
}

// sameOption reports whether two flags are spellings of one option, like
// -o and -output bound to the same variable.
func sameOption(a, b *flag.Flag) bool {
	if a.Usage == "" || a.Usage != b.Usage || a.DefValue != b.DefValue {
		return false
	}
	return reflect.TypeOf(a.Value) == reflect.TypeOf(b.Value)
}
