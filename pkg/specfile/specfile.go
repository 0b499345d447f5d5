// SPDX-License-Identifier: MPL-2.0

package specfile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/argres/argres/pkg/argspec"
	"github.com/argres/argres/pkg/argval"
	"github.com/argres/argres/pkg/coerce"
	"github.com/argres/argres/pkg/cueutil"
	"github.com/argres/argres/pkg/resolve"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// FormatCUE is CUE source.
	FormatCUE Format = "cue"
	// FormatYAML is YAML 1.2.
	FormatYAML Format = "yaml"
	// FormatTOML is TOML 1.0.
	FormatTOML Format = "toml"
	// FormatJSON is JSON, compiled as CUE.
	FormatJSON Format = "json"

	schemaPath = "#Document"
)

var (
	//go:embed specfile_schema.cue
	schemaBytes []byte

	// ErrUnsupportedFormat is returned for a file extension with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported declaration file format")
)

type (
	// Format identifies the syntax of a declaration file.
	Format string

	// Document is a decoded declaration file.
	Document struct {
		// Path is the file the document was loaded from, if any.
		Path string
		// Args are the declared arguments in file order.
		Args []argspec.Spec
		// Options are the resolver settings of the file.
		Options Options
		// Locals are caller overrides declared in the file.
		Locals map[string]any
	}

	// Options mirror the resolver options a declaration file can set.
	// Unset fields leave the resolver default in place.
	Options struct {
		Warn          *bool
		Throw         *bool
		Positional    *bool
		PositionalKey string
		Rest          *bool
		RestKey       string
		IncludeErrors *bool
		ErrorsKey     string
		LocalsPolicy  resolve.LocalsPolicy
		Defaults      argspec.Spec
	}

	// Option configures Load and Parse.
	Option func(*loadOptions)

	loadOptions struct {
		name        string
		registry    *coerce.Registry
		maxFileSize int64
	}
)

// WithRegistry sets the converters that `type` names resolve against.
// Default: coerce.Builtins().
func WithRegistry(r *coerce.Registry) Option {
	return func(o *loadOptions) { o.registry = r }
}

// WithName names the document in error messages.
func WithName(name string) Option {
	return func(o *loadOptions) { o.name = name }
}

// WithMaxFileSize overrides cueutil.DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(o *loadOptions) { o.maxFileSize = size }
}

// FormatOf selects the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (use .cue, .yaml, .yml, .toml or .json)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and decodes the declaration file at path.
func Load(path string, opts ...Option) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declaration file: %w", err)
	}

	doc, err := Parse(data, format, append([]Option{WithName(path)}, opts...)...)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Parse decodes data in the given format, validates it against the
// declaration schema, and builds the specs.
func Parse(data []byte, format Format, opts ...Option) (*Document, error) {
	o := loadOptions{maxFileSize: cueutil.DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = "<input>." + string(format)
	}
	if o.registry == nil {
		o.registry = coerce.Builtins()
	}
	if err := cueutil.CheckFileSize(data, o.maxFileSize, o.name); err != nil {
		return nil, err
	}

	cueOpts := []cueutil.Option{cueutil.WithFilename(o.name), cueutil.WithMaxFileSize(o.maxFileSize)}

	var (
		res *cueutil.Result[map[string]any]
		err error
	)
	switch format {
	case FormatCUE, FormatJSON:
		res, err = cueutil.Decode[map[string]any](schemaBytes, data, schemaPath, cueOpts...)
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", o.name, err)
		}
		res, err = cueutil.DecodeValue[map[string]any](schemaBytes, orEmpty(raw), schemaPath, cueOpts...)
	case FormatTOML:
		raw := map[string]any{}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", o.name, err)
		}
		res, err = cueutil.DecodeValue[map[string]any](schemaBytes, raw, schemaPath, cueOpts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return build(*res.Value, o.registry, o.name)
}

// Resolver builds a resolver for the document's args. The document's
// options are applied first, so opts override them.
func (d *Document) Resolver(opts ...resolve.Option) (*resolve.Resolver, error) {
	return resolve.New(d.Args, append(d.ResolverOptions(), opts...)...)
}

// ResolverOptions turns the document options into resolver options.
func (d *Document) ResolverOptions() []resolve.Option {
	o := d.Options
	opts := []resolve.Option{resolve.WithSpecDefaults(o.Defaults)}

	if o.Warn != nil {
		opts = append(opts, resolve.WithWarn(*o.Warn))
	}
	if o.Throw != nil {
		opts = append(opts, resolve.WithThrow(*o.Throw))
	}

	switch {
	case o.Positional != nil && !*o.Positional:
		opts = append(opts, resolve.WithoutPositional())
	case o.PositionalKey != "":
		opts = append(opts, resolve.WithPositional(o.PositionalKey))
	}
	switch {
	case o.Rest != nil && !*o.Rest:
		opts = append(opts, resolve.WithoutRest())
	case o.RestKey != "":
		opts = append(opts, resolve.WithRest(o.RestKey))
	}

	switch {
	case o.IncludeErrors != nil && !*o.IncludeErrors:
		opts = append(opts, resolve.WithoutIncludeErrors())
	case o.IncludeErrors != nil || o.ErrorsKey != "":
		key := o.ErrorsKey
		if key == "" {
			key = resolve.DefaultErrorsKey
		}
		opts = append(opts, resolve.WithIncludeErrors(key))
	}
	if o.LocalsPolicy != "" {
		opts = append(opts, resolve.WithLocalsPolicy(o.LocalsPolicy))
	}
	return opts
}

func orEmpty(v any) any {
	if v == nil {
		return map[string]any{}
	}
	return v
}

func build(raw map[string]any, reg *coerce.Registry, name string) (*Document, error) {
	doc := &Document{}
	var errs []error

	list, _ := raw["args"].([]any)
	for i, item := range list {
		m, _ := item.(map[string]any)
		spec, err := buildSpec(m, reg)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: args[%d].type: %w", name, i, err))
			continue
		}
		doc.Args = append(doc.Args, spec)
	}

	if m, ok := raw["options"].(map[string]any); ok {
		opts, err := buildOptions(m, reg)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: options.defaults.type: %w", name, err))
		}
		doc.Options = opts
	}
	if m, ok := raw["locals"].(map[string]any); ok {
		doc.Locals = make(map[string]any, len(m))
		for k, v := range m {
			doc.Locals[k] = literal(v)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return doc, nil
}

func buildSpec(m map[string]any, reg *coerce.Registry) (argspec.Spec, error) {
	spec := argspec.Spec{
		ID:    str(m, "id"),
		Alias: str(m, "alias"),
		Env:   str(m, "env"),
	}
	applyPolicy(&spec, m)

	if v, ok := m["default"]; ok {
		spec.Default = literal(v)
	}
	if v, ok := m["enum"].([]any); ok {
		spec.Enum = make([]any, len(v))
		for i, e := range v {
			spec.Enum[i] = literal(e)
		}
	}
	if name := str(m, "type"); name != "" {
		c, err := reg.Lookup(name)
		if err != nil {
			return argspec.Spec{}, err
		}
		spec.Type = c
	}
	return spec, nil
}

func buildOptions(m map[string]any, reg *coerce.Registry) (Options, error) {
	o := Options{
		Warn:          flag(m, "warn"),
		Throw:         flag(m, "throw"),
		Positional:    flag(m, "positional"),
		PositionalKey: str(m, "positional_key"),
		Rest:          flag(m, "rest"),
		RestKey:       str(m, "rest_key"),
		IncludeErrors: flag(m, "include_errors"),
		ErrorsKey:     str(m, "errors_key"),
		LocalsPolicy:  resolve.LocalsPolicy(str(m, "locals_policy")),
	}
	if d, ok := m["defaults"].(map[string]any); ok {
		defaults, err := buildSpec(d, reg)
		if err != nil {
			return o, err
		}
		o.Defaults = defaults
	}
	return o, nil
}

func applyPolicy(s *argspec.Spec, m map[string]any) {
	s.Argv = flag(m, "argv")
	s.Kebab = flag(m, "kebab")
	s.Camel = flag(m, "camel")
	s.Snake = flag(m, "snake")
	s.NativeType = flag(m, "native_type")
	s.ParseUndefined = flag(m, "parse_undefined")
	s.Required = flag(m, "required")
	s.Nullable = flag(m, "nullable")
	s.Warn = flag(m, "warn")
	s.Throw = flag(m, "throw")
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func flag(m map[string]any, key string) *bool {
	if b, ok := m[key].(bool); ok {
		return argspec.Bool(b)
	}
	return nil
}

// literal converts a decoded value to the argval model: an explicit null
// becomes argval.Null and numbers become float64.
func literal(v any) any {
	switch t := v.(type) {
	case nil:
		return argval.Null
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = literal(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = literal(e)
		}
		return out
	default:
		return argval.Normalize(v)
	}
}
