// SPDX-License-Identifier: MPL-2.0

package argv

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/argres/argres/pkg/argspec"

	"github.com/spf13/pflag"
	"golang.org/x/exp/slices"
	"mvdan.cc/sh/v3/shell"
)

// ErrParse is the sentinel wrapped by every tokenizer failure.
var ErrParse = errors.New("cannot parse command line")

// bareSwitch is the value given to a valued flag used without one.
const bareSwitch = "\x00switch"

type (
	// Flag declares one command-line flag the tokenizer accepts.
	Flag struct {
		// Name is the long flag name, used as --name.
		Name string
		// Short is an optional one-letter shorthand, used as -s.
		Short string
		// Bool allows the bare form (--name) and stores a boolean.
		Bool bool
	}

	// Parsed is an immutable snapshot of a tokenized command line:
	// flag values by name, leftover positional tokens, and the tokens
	// that followed a "--" separator.
	Parsed struct {
		values     map[string]any
		positional []string
		rest       []string
		hasRest    bool
	}

	// rawValue records every occurrence of a flag into the snapshot
	// under its long name and its shorthand.
	rawValue struct {
		names  []string
		isBool bool
		values map[string]any
	}
)

// New builds a snapshot from already-tokenized data. A nil rest means no
// "--" separator was present; an empty non-nil rest means it was present
// with nothing after it. Values may be string, bool or []string.
func New(values map[string]any, positional, rest []string) *Parsed {
	p := &Parsed{
		values:     make(map[string]any, len(values)),
		positional: append([]string(nil), positional...),
		hasRest:    rest != nil,
	}
	for k, v := range values {
		p.values[k] = v
	}
	if rest != nil {
		p.rest = append([]string{}, rest...)
	}
	return p
}

// Lookup returns the raw value recorded under key.
func (p *Parsed) Lookup(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	if ok && v == nil {
		return nil, false
	}
	return v, ok
}

// Positional returns the leftover positional tokens.
func (p *Parsed) Positional() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.positional...)
}

// Rest returns the tokens after the "--" separator, and whether one was present.
func (p *Parsed) Rest() ([]string, bool) {
	if p == nil || !p.hasRest {
		return nil, false
	}
	return append([]string{}, p.rest...), true
}

// Names returns the recorded flag names in sorted order.
func (p *Parsed) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.values))
	for k := range p.values {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Parse tokenizes args with pflag using the declared flags. Flags may appear
// anywhere before "--"; repeated flags collect into a []string. A valued flag
// with nothing to take as its value is a switch and yields true. Undeclared
// flags are an error.
func Parse(args []string, flags []Flag) (*Parsed, error) {
	fs := pflag.NewFlagSet("argv", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false

	values := make(map[string]any)
	valued := make(map[string]bool)
	for _, f := range flags {
		if f.Name == "" || fs.Lookup(f.Name) != nil {
			continue
		}
		short := f.Short
		if short != "" && (len(short) != 1 || fs.ShorthandLookup(short) != nil) {
			short = ""
		}

		rv := &rawValue{names: []string{f.Name}, isBool: f.Bool, values: values}
		if short != "" && short != f.Name {
			rv.names = append(rv.names, short)
		}
		flag := fs.VarPF(rv, f.Name, short, "")
		if f.Bool {
			flag.NoOptDefVal = "true"
			continue
		}
		valued["--"+f.Name] = true
		if short != "" {
			valued["-"+short] = true
		}
	}

	if err := fs.Parse(markSwitches(args, valued)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	remaining := fs.Args()
	p := &Parsed{values: values}
	if dash := fs.ArgsLenAtDash(); dash >= 0 {
		p.positional = append([]string(nil), remaining[:dash]...)
		p.rest = append([]string{}, remaining[dash:]...)
		p.hasRest = true
	} else {
		p.positional = append([]string(nil), remaining...)
	}
	return p, nil
}

// markSwitches gives a bare valued flag the value true when no value follows
// it: at the end, before "--", or before another flag. Negative numbers are values.
func markSwitches(args []string, valued map[string]bool) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			return append(out, args[i:]...)
		}
		if valued[a] && (i+1 == len(args) || isFlagToken(args[i+1])) {
			a += "=" + bareSwitch
		}
		out = append(out, a)
	}
	return out
}

func isFlagToken(s string) bool {
	if s == "--" {
		return true
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "-")
	if len(rest) == len(s) || rest == "" || rest[0] == '-' {
		return false
	}
	single := len(rest) == len(s)-1
	return !single || !isNumberStart(rest[0])
}

func isNumberStart(c byte) bool {
	return c == '.' || (c >= '0' && c <= '9')
}

// FlagsFor declares a flag for every lookup key of every spec that consults
// the command line. One-letter keys become shorthands of the spec's first
// longer key. Specs typed "bool", or with a boolean default, accept the bare form.
func FlagsFor(specs []argspec.Spec) []Flag {
	var flags []Flag
	for i := range specs {
		s := &specs[i]
		if !s.ConsultsArgv() {
			continue
		}
		isBool := false
		if _, ok := s.Default.(bool); ok {
			isBool = true
		}
		if s.Type != nil && s.Type.Name == "bool" {
			isBool = true
		}

		var long, short []string
		for _, k := range s.Keys() {
			switch {
			case k == "":
			case len(k) == 1:
				short = append(short, k)
			default:
				long = append(long, k)
			}
		}

		if len(long) == 0 {
			for _, k := range short {
				flags = append(flags, Flag{Name: k, Short: k, Bool: isBool})
			}
			continue
		}
		for j, k := range long {
			f := Flag{Name: k, Bool: isBool}
			if j == 0 && len(short) > 0 {
				f.Short = short[0]
			}
			flags = append(flags, f)
		}
		for _, k := range short[min(1, len(short)):] {
			flags = append(flags, Flag{Name: k, Short: k, Bool: isBool})
		}
	}
	return flags
}

// Split tokenizes a raw command line with POSIX shell rules: quotes, escapes
// and parameter expansion. env resolves variables; nil uses the process environment.
func Split(line string, env func(string) string) ([]string, error) {
	fields, err := shell.Fields(line, env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return fields, nil
}

// String implements pflag.Value.
func (r *rawValue) String() string {
	switch v := r.values[r.names[0]].(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(v, ",")
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Set implements pflag.Value. Boolean flags store a bool when the text is one;
// other flags store the string, or true when used bare, turning into a
// []string on repetition.
func (r *rawValue) Set(s string) error {
	var next any = s
	if r.isBool {
		if b, err := strconv.ParseBool(s); err == nil {
			next = b
		}
	}

	prev := r.values[r.names[0]]
	if s == bareSwitch {
		next = true
		s = "true"
	}
	switch p := prev.(type) {
	case bool:
		if !r.isBool {
			next = []string{strconv.FormatBool(p), s}
		}
	case string:
		next = []string{p, s}
	case []string:
		next = append(append([]string(nil), p...), s)
	}

	for _, name := range r.names {
		r.values[name] = next
	}
	return nil
}

// Type implements pflag.Value.
func (r *rawValue) Type() string {
	if r.isBool {
		return "bool"
	}
	return "string"
}
