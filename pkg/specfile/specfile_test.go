// SPDX-License-Identifier: MPL-2.0

package specfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/argres/argres/pkg/argspec"
	"github.com/argres/argres/pkg/argv"
	"github.com/argres/argres/pkg/argval"
	"github.com/argres/argres/pkg/coerce"
	"github.com/argres/argres/pkg/resolve"

	"github.com/google/go-cmp/cmp"
)

const (
	cueDoc = `
args: [
	{id: "port", env: "PORT", default: 8080, type: "int"},
	{id: "mode", enum: ["dev", "prod"], required: true, warn: true},
	{id: "label", default: null, nullable: true},
]
options: {
	throw:          true
	positional_key: "_pos"
	locals_policy:  "before"
	defaults: {snake: true}
}
locals: {mode: "dev", extra: [1, "two"]}
`

	yamlDoc = `
args:
  - id: port
    env: PORT
    default: 8080
    type: int
  - id: mode
    enum: [dev, prod]
    required: true
    warn: true
  - id: label
    default: null
    nullable: true
options:
  throw: true
  positional_key: _pos
  locals_policy: before
  defaults:
    snake: true
locals:
  mode: dev
  extra: [1, two]
`

	tomlDoc = `
[[args]]
id = "port"
env = "PORT"
default = 8080
type = "int"

[[args]]
id = "mode"
enum = ["dev", "prod"]
required = true
warn = true

[[args]]
id = "label"
nullable = true

[options]
throw = true
positional_key = "_pos"
locals_policy = "before"

[options.defaults]
snake = true

[locals]
mode = "dev"
extra = [1, "two"]
`

	jsonDoc = `{
  "args": [
    {"id": "port", "env": "PORT", "default": 8080, "type": "int"},
    {"id": "mode", "enum": ["dev", "prod"], "required": true, "warn": true},
    {"id": "label", "default": null, "nullable": true}
  ],
  "options": {
    "throw": true,
    "positional_key": "_pos",
    "locals_policy": "before",
    "defaults": {"snake": true}
  },
  "locals": {"mode": "dev", "extra": [1, "two"]}
}`
)

func TestParse_AllFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		data   string
		// TOML has no null, so label has no default there.
		labelDefault any
	}{
		{FormatCUE, cueDoc, argval.Null},
		{FormatYAML, yamlDoc, argval.Null},
		{FormatTOML, tomlDoc, nil},
		{FormatJSON, jsonDoc, argval.Null},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			doc, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(doc.Args) != 3 {
				t.Fatalf("Args = %+v, want 3 specs", doc.Args)
			}

			port := doc.Args[0]
			if port.ID != "port" || port.Env != "PORT" || port.Default != 8080.0 {
				t.Errorf("port spec = %+v", port)
			}
			if port.Type == nil || port.Type.Name != "int" {
				t.Errorf("port type = %+v, want the int converter", port.Type)
			}

			mode := doc.Args[1]
			if diff := cmp.Diff([]any{"dev", "prod"}, mode.Enum); diff != "" {
				t.Errorf("mode enum mismatch (-want +got):\n%s", diff)
			}
			if !mode.IsRequired() || !mode.Warns() || mode.Throws() {
				t.Errorf("mode policy = %+v", mode)
			}

			label := doc.Args[2]
			if label.Default != tt.labelDefault || !label.IsNullable() {
				t.Errorf("label spec = %+v", label)
			}

			o := doc.Options
			if o.Throw == nil || !*o.Throw || o.Warn != nil {
				t.Errorf("Options throw/warn = %v/%v", o.Throw, o.Warn)
			}
			if o.PositionalKey != "_pos" || o.LocalsPolicy != resolve.LocalsBeforeCoercion {
				t.Errorf("Options = %+v", o)
			}
			if o.Defaults.Snake == nil || !*o.Defaults.Snake {
				t.Errorf("Options.Defaults = %+v, want snake", o.Defaults)
			}

			want := map[string]any{"mode": "dev", "extra": []any{1.0, "two"}}
			if diff := cmp.Diff(want, doc.Locals); diff != "" {
				t.Errorf("Locals mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  Format
		data    string
		wantSub string
		wantErr error
	}{
		{"missing id", FormatYAML, "args:\n  - env: X\n", "id", nil},
		{"blank id", FormatJSON, `{"args": [{"id": "a b"}]}`, "args[0].id", nil},
		{"unknown field", FormatCUE, `args: [{id: "a", colour: "red"}]`, "colour", nil},
		{"bad flag type", FormatYAML, "args:\n  - id: a\n    required: yes please\n", "required", nil},
		{"bad locals policy", FormatTOML, "[options]\nlocals_policy = \"sometimes\"\n", "locals_policy", nil},
		{"env with equals", FormatJSON, `{"args": [{"id": "a", "env": "A=B"}]}`, "env", nil},
		{"unknown type", FormatYAML, "args:\n  - id: a\n    type: money\n", "args[0].type", coerce.ErrUnknownConverter},
		{"defaults unknown type", FormatYAML, "options:\n  defaults:\n    type: money\n", "options.defaults.type", coerce.ErrUnknownConverter},
		{"defaults with id", FormatCUE, `options: defaults: id: "x"`, "id", nil},
		{"yaml syntax", FormatYAML, "args: [\n", "doc", nil},
		{"toml syntax", FormatTOML, "[[args]\n", "doc", nil},
		{"unsupported", Format("ini"), "", "ini", ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data), tt.format, WithName("doc"))
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err, tt.wantSub)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v should wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_EmptyDocuments(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatCUE, FormatYAML, FormatTOML} {
		doc, err := Parse(nil, format)
		if err != nil {
			t.Fatalf("Parse(%s) error = %v", format, err)
		}
		if len(doc.Args) != 0 || doc.Locals != nil {
			t.Errorf("Parse(%s) = %+v, want an empty document", format, doc)
		}
	}
}

func TestParse_CustomRegistry(t *testing.T) {
	t.Parallel()

	reg := coerce.Builtins()
	upper := coerce.Func("upper", func(v any) (any, error) {
		s, _ := v.(string)
		return strings.ToUpper(s), nil
	})
	if err := reg.Register(upper); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	doc, err := Parse([]byte(`args: [{id: "name", default: "ada", type: "upper"}]`), FormatCUE, WithRegistry(reg))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	res, err := doc.Resolver(resolve.WithEnv(resolve.EnvMap{}), resolve.WithSink(resolve.DiscardSink))
	if err != nil {
		t.Fatalf("Resolver() error = %v", err)
	}
	got, err := res.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Get("name") != "ADA" {
		t.Errorf("name = %#v, want ADA", got.Get("name"))
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "args.yml")
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Path != path || len(doc.Args) != 3 {
		t.Errorf("Load() = %+v", doc)
	}

	if _, err := Load(filepath.Join(dir, "missing.cue")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
	if _, err := Load(filepath.Join(dir, "args.ini")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load() error = %v, want ErrUnsupportedFormat", err)
	}

	big := filepath.Join(dir, "big.cue")
	if err := os.WriteFile(big, []byte(cueDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(big, WithMaxFileSize(16)); err == nil || !strings.Contains(err.Error(), "big.cue") {
		t.Errorf("Load() error = %v, want a size error naming the file", err)
	}
}

func TestFormatOf(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{
		"a.cue":       FormatCUE,
		"a.yaml":      FormatYAML,
		"dir/a.YML":   FormatYAML,
		"a.toml":      FormatTOML,
		"a.json":      FormatJSON,
		"a.cue.json":  FormatJSON,
		"/x/y/z.TOML": FormatTOML,
	}
	for path, want := range tests {
		got, err := FormatOf(path)
		if err != nil || got != want {
			t.Errorf("FormatOf(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := FormatOf("argres"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("FormatOf() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDocument_ResolverOptions(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(cueDoc), FormatCUE)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cl := argv.New(map[string]any{"port": "9090"}, []string{"x"}, nil)
	r, err := doc.Resolver(
		resolve.WithEnv(resolve.EnvMap{}),
		resolve.WithCommandLine(cl),
		resolve.WithSink(resolve.DiscardSink),
	)
	if err != nil {
		t.Fatalf("Resolver() error = %v", err)
	}

	if specs := r.Specs(); !specs[0].Styles().Snake {
		t.Errorf("spec defaults should apply snake, got %+v", specs[0])
	}

	res, err := r.Resolve(doc.Locals)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Get("port") != int64(9090) {
		t.Errorf("port = %#v, want int64 9090", res.Get("port"))
	}
	if res.Get("mode") != "dev" {
		t.Errorf("mode = %#v, want the local", res.Get("mode"))
	}
	if diff := cmp.Diff([]string{"x"}, res.Get("_pos")); diff != "" {
		t.Errorf("_pos mismatch (-want +got):\n%s", diff)
	}

	noLocal, err := doc.Resolver(resolve.WithEnv(resolve.EnvMap{}), resolve.WithSink(resolve.DiscardSink))
	if err != nil {
		t.Fatalf("Resolver() error = %v", err)
	}
	if _, err := noLocal.Resolve(nil); !errors.Is(err, resolve.ErrMissingRequired) {
		t.Errorf("Resolve() error = %v, want the document's throw policy", err)
	}
}

func TestDocument_SharedDefaults(t *testing.T) {
	t.Parallel()

	const doc = `
args:
  - id: retries
  - id: workers
    default: 8
  - id: label
    type: string
options:
  defaults:
    default: "3"
    type: int
    enum: [1, 3, 8]
`
	d, err := Parse([]byte(doc), FormatYAML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	def := d.Options.Defaults
	if def.ID != "" || def.Default != "3" || def.Type == nil || def.Type.Name != "int" || len(def.Enum) != 3 {
		t.Fatalf("Options.Defaults = %+v", def)
	}

	res, err := d.Resolver(resolve.WithEnv(resolve.EnvMap{}), resolve.WithSink(resolve.DiscardSink))
	if err != nil {
		t.Fatalf("Resolver() error = %v", err)
	}
	r, err := res.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if r.Get("retries") != int64(3) {
		t.Errorf("retries = %#v, want the shared default converted to int64 3", r.Get("retries"))
	}
	if r.Get("workers") != int64(8) {
		t.Errorf("workers = %#v, want its own default 8", r.Get("workers"))
	}
	if len(r.Errors) != 1 || !errors.Is(r.Errors[0], resolve.ErrInvalidEnumValue) {
		t.Errorf("Errors = %v, want label to fail the shared enum", r.Errors)
	}
}

func TestOptions_Toggles(t *testing.T) {
	t.Parallel()

	doc := &Document{
		Args: []argspec.Spec{{ID: "a", Required: argspec.Bool(true)}},
		Options: Options{
			Positional:    argspec.Bool(false),
			Rest:          argspec.Bool(false),
			IncludeErrors: argspec.Bool(true),
		},
	}
	r, err := doc.Resolver(resolve.WithEnv(resolve.EnvMap{}), resolve.WithSink(resolve.DiscardSink))
	if err != nil {
		t.Fatalf("Resolver() error = %v", err)
	}
	res, err := r.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := map[string]any{
		"a":       nil,
		"_errors": []string{"failed to resolve value for required argument - id: a"},
	}
	if diff := cmp.Diff(want, res.Values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
}
