// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"strings"
	"testing"

	"github.com/argres/argres/pkg/argspec"
	"github.com/argres/argres/pkg/argv"
	"github.com/argres/argres/pkg/argval"

	"github.com/google/go-cmp/cmp"
)

// recorder is a Sink that keeps every message.
type recorder struct {
	msgs []string
}

func (r *recorder) Warn(msg string) { r.msgs = append(r.msgs, msg) }

func quiet(opts ...Option) []Option {
	return append([]Option{WithEnv(EnvMap{}), WithSink(DiscardSink)}, opts...)
}

func TestResolve_DefaultOnly(t *testing.T) {
	t.Parallel()

	res, err := Resolve([]argspec.Spec{{ID: "port", Env: "PORT", Default: 8080}}, nil,
		quiet(WithCommandLine(argv.New(nil, nil, nil)))...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := res.Get("port"); !argval.Equal(got, 8080) {
		t.Errorf("port = %#v, want 8080", got)
	}
	if len(res.Errors) != 0 {
		t.Errorf("Errors = %v, want none", res.Errors)
	}
	if src := res.Arg("port").Source(); src != SourceDefault {
		t.Errorf("Source() = %q, want %q", src, SourceDefault)
	}
}

func TestResolve_EnumViolation(t *testing.T) {
	t.Parallel()

	cl := argv.New(map[string]any{"mode": "stage"}, nil, nil)
	res, err := Resolve([]argspec.Spec{{ID: "mode", Enum: []any{"dev", "prod"}}}, nil, quiet(WithCommandLine(cl))...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := res.Get("mode"); got != "stage" {
		t.Errorf("mode = %#v, want stage", got)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", res.Errors)
	}
	if !errors.Is(res.Errors[0], ErrInvalidEnumValue) {
		t.Errorf("error %v should wrap ErrInvalidEnumValue", res.Errors[0])
	}
	msg := res.Errors[0].Error()
	if !strings.Contains(msg, "mode") || !strings.Contains(msg, "stage") {
		t.Errorf("message %q should name the argument and the value", msg)
	}
}

func TestResolve_NativeCoercionOfDefault(t *testing.T) {
	t.Parallel()

	res, err := Resolve([]argspec.Spec{{ID: "count", Default: "3"}}, nil, quiet()...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got, ok := res.Get("count").(float64); !ok || got != 3 {
		t.Errorf("count = %#v, want the number 3", res.Get("count"))
	}

	res, err = Resolve([]argspec.Spec{{ID: "count", Default: "3", NativeType: argspec.Bool(false)}}, nil, quiet()...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := res.Get("count"); got != "3" {
		t.Errorf("count = %#v, want the string 3 without native coercion", got)
	}
}

func TestResolve_AggregateThrow(t *testing.T) {
	t.Parallel()

	res, err := Resolve([]argspec.Spec{{ID: "a", Required: argspec.Bool(true)}}, map[string]any{},
		quiet(WithCommandLine(argv.New(map[string]any{}, nil, nil)), WithWarn(false), WithThrow(true))...)
	if err == nil {
		t.Fatal("Resolve() should fail in throw mode")
	}
	if res != nil {
		t.Errorf("Resolve() result = %+v, want nil on failure", res)
	}
	if !errors.Is(err, ErrInvalidArgument) || !errors.Is(err, ErrMissingRequired) {
		t.Errorf("error %v should wrap ErrInvalidArgument and ErrMissingRequired", err)
	}
}

func TestResolve_Precedence(t *testing.T) {
	t.Parallel()

	spec := argspec.Spec{ID: "level", Env: "LEVEL", Default: "1"}
	env := EnvMap{"LEVEL": "2"}
	cl := argv.New(map[string]any{"level": "3"}, nil, nil)
	locals := map[string]any{"level": "4"}

	tests := []struct {
		name   string
		opts   []Option
		locals map[string]any
		want   any
		source Source
	}{
		{"default", nil, nil, 1.0, SourceDefault},
		{"env over default", []Option{WithEnv(env)}, nil, 2.0, SourceEnv},
		{"argv over env", []Option{WithEnv(env), WithCommandLine(cl)}, nil, 3.0, SourceArgv},
		{"locals last and raw", []Option{WithEnv(env), WithCommandLine(cl)}, locals, "4", SourceLocal},
		{"locals before coercion", []Option{WithEnv(env), WithCommandLine(cl), WithLocalsPolicy(LocalsBeforeCoercion)}, locals, 4.0, SourceLocal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Resolve([]argspec.Spec{spec}, tt.locals, quiet(tt.opts...)...)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got := res.Get("level"); !argval.Equal(got, tt.want) {
				t.Errorf("level = %#v, want %#v", got, tt.want)
			}
			if src := res.Arg("level").Source(); src != tt.source {
				t.Errorf("Source() = %q, want %q", src, tt.source)
			}
		})
	}
}

func TestResolve_FirstKeyWins(t *testing.T) {
	t.Parallel()

	cl := argv.New(map[string]any{"log-level": "warn", "l": "debug"}, nil, nil)
	res, err := Resolve([]argspec.Spec{{ID: "logLevel", Alias: "l"}}, nil, quiet(WithCommandLine(cl))...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := res.Get("logLevel"); got != "debug" {
		t.Errorf("logLevel = %#v, want the alias (tried before kebab-case) to win", got)
	}

	res, err = Resolve([]argspec.Spec{{ID: "logLevel", Argv: argspec.Bool(false), Default: "info"}}, nil, quiet(WithCommandLine(cl))...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := res.Get("logLevel"); got != "info" {
		t.Errorf("logLevel = %#v, want the default when argv is not consulted", got)
	}
}

func TestResolve_EnumLaw(t *testing.T) {
	t.Parallel()

	enum := []any{"a", 1.0, true, argval.Null}
	for _, bad := range []any{"b", "2", "false", "x y"} {
		cl := argv.New(map[string]any{"v": bad}, nil, nil)
		res, err := Resolve([]argspec.Spec{{ID: "v", Enum: enum}}, nil, quiet(WithCommandLine(cl))...)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(res.Errors) != 1 {
			t.Fatalf("value %q: Errors = %v, want exactly one", bad, res.Errors)
		}
		var enumErr *InvalidEnumValueError
		if !errors.As(res.Errors[0], &enumErr) || enumErr.ID != "v" {
			t.Errorf("value %q: error %v should be *InvalidEnumValueError for v", bad, res.Errors[0])
		}
	}

	for _, good := range []any{"a", "1", "true", "null"} {
		cl := argv.New(map[string]any{"v": good}, nil, nil)
		res, err := Resolve([]argspec.Spec{{ID: "v", Enum: enum}}, nil, quiet(WithCommandLine(cl))...)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(res.Errors) != 0 {
			t.Errorf("value %q: Errors = %v, want none", good, res.Errors)
		}
	}
}

func TestResolve_EnumSequence(t *testing.T) {
	t.Parallel()

	cl := argv.New(map[string]any{"tag": []string{"a", "x", "b", "y"}}, nil, nil)
	res, err := Resolve([]argspec.Spec{{ID: "tag", Enum: []any{"a", "b"}}}, nil, quiet(WithCommandLine(cl))...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{
		"argument value not found in enum - id: tag, value: x",
		"argument value not found in enum - id: tag, value: y",
	}
	if diff := cmp.Diff(want, res.Messages()); diff != "" {
		t.Errorf("Messages() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"a", "x", "b", "y"}, res.Get("tag")); diff != "" {
		t.Errorf("tag mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_RequiredLaw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		spec     argspec.Spec
		cl       *argv.Parsed
		wantErrs int
	}{
		{"missing", argspec.Spec{ID: "a", Required: argspec.Bool(true)}, nil, 1},
		{"nullable", argspec.Spec{ID: "a", Required: argspec.Bool(true), Nullable: argspec.Bool(true)}, nil, 0},
		{"undefined literal", argspec.Spec{ID: "a", Required: argspec.Bool(true)}, argv.New(map[string]any{"a": "undefined"}, nil, nil), 1},
		{"empty sequence", argspec.Spec{ID: "a", Required: argspec.Bool(true)}, argv.New(map[string]any{"a": []string{}}, nil, nil), 1},
		{"present", argspec.Spec{ID: "a", Required: argspec.Bool(true)}, argv.New(map[string]any{"a": "x"}, nil, nil), 0},
		{"null is a value", argspec.Spec{ID: "a", Required: argspec.Bool(true)}, argv.New(map[string]any{"a": "null"}, nil, nil), 0},
		{"nullable enum", argspec.Spec{ID: "a", Enum: []any{"x"}, Nullable: argspec.Bool(true)}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := quiet()
			if tt.cl != nil {
				opts = append(opts, WithCommandLine(tt.cl))
			}
			res, err := Resolve([]argspec.Spec{tt.spec}, nil, opts...)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if len(res.Errors) != tt.wantErrs {
				t.Fatalf("Errors = %v, want %d", res.Errors, tt.wantErrs)
			}
			if tt.wantErrs == 1 && !errors.Is(res.Errors[0], ErrMissingRequired) {
				t.Errorf("error %v should wrap ErrMissingRequired", res.Errors[0])
			}
		})
	}

	res, err := Resolve([]argspec.Spec{{ID: "a", Required: argspec.Bool(true)}}, nil, quiet()...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v, ok := res.Values["a"]; !ok || v != nil {
		t.Errorf("a = %#v, %v; want an undefined entry", v, ok)
	}
}

func TestResolve_ArgumentThrowAbortsRun(t *testing.T) {
	t.Parallel()

	specs := []argspec.Spec{
		{ID: "first", Required: argspec.Bool(true), Throw: argspec.Bool(true)},
		{ID: "second", Required: argspec.Bool(true)},
	}
	rec := &recorder{}
	res, err := Resolve(specs, nil, WithEnv(EnvMap{}), WithSink(rec), WithWarn(true))
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}

	var argErr *InvalidArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("error = %v, want *InvalidArgumentError", err)
	}
	if argErr.ID != "first" || len(argErr.Errors) != 1 {
		t.Errorf("InvalidArgumentError = %+v, want only the first argument's error", argErr)
	}
	if len(rec.msgs) != 0 {
		t.Errorf("aggregate warn should not fire after an abort, got %v", rec.msgs)
	}
}

func TestResolve_AggregateThrowCollectsEverything(t *testing.T) {
	t.Parallel()

	specs := []argspec.Spec{
		{ID: "first", Required: argspec.Bool(true)},
		{ID: "mode", Default: "x", Enum: []any{"y"}},
		{ID: "ok", Default: 1},
		{ID: "third", Required: argspec.Bool(true)},
	}
	_, err := Resolve(specs, nil, quiet(WithThrow(true))...)

	var argErr *InvalidArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("error = %v, want *InvalidArgumentError", err)
	}
	want := []string{
		"failed to resolve value for required argument - id: first",
		"argument value not found in enum - id: mode, value: x",
		"failed to resolve value for required argument - id: third",
	}
	if diff := cmp.Diff(want, argErr.Messages()); diff != "" {
		t.Errorf("Messages() mismatch (-want +got):\n%s", diff)
	}
	if err.Error() != strings.Join(want, "\n") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestResolve_WarnPolicies(t *testing.T) {
	t.Parallel()

	specs := []argspec.Spec{
		{ID: "a", Required: argspec.Bool(true), Warn: argspec.Bool(true)},
		{ID: "b", Required: argspec.Bool(true)},
	}
	rec := &recorder{}
	res, err := Resolve(specs, nil, WithEnv(EnvMap{}), WithSink(rec), WithWarn(true))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2", res.Errors)
	}

	want := []string{
		"failed to resolve value for required argument - id: a",
		"failed to resolve value for required argument - id: a\nfailed to resolve value for required argument - id: b",
	}
	if diff := cmp.Diff(want, rec.msgs); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	rec = &recorder{}
	if _, err := Resolve([]argspec.Spec{{ID: "fine", Default: 1}}, nil, WithEnv(EnvMap{}), WithSink(rec), WithWarn(true)); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(rec.msgs) != 0 {
		t.Errorf("no diagnostic expected without errors, got %v", rec.msgs)
	}
}

func TestResolve_SyntheticEntries(t *testing.T) {
	t.Parallel()

	cl := argv.New(nil, []string{"build", "7"}, []string{"--x"})
	res, err := Resolve(nil, nil, quiet(WithCommandLine(cl))...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if diff := cmp.Diff([]string{"build", "7"}, res.Get("_")); diff != "" {
		t.Errorf("_ mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"--x"}, res.Get("--")); diff != "" {
		t.Errorf("-- mismatch (-want +got):\n%s", diff)
	}

	res, err = Resolve(nil, nil, quiet(WithCommandLine(argv.New(nil, nil, nil)), WithPositional("_pos"))...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, ok := res.Values["_"]; ok {
		t.Error("positional tokens should move to the custom key")
	}
	if got, ok := res.Values["_pos"].([]string); !ok || len(got) != 0 {
		t.Errorf("_pos = %#v, want an empty list", res.Values["_pos"])
	}
	if v, ok := res.Values["--"]; !ok || v != nil {
		t.Errorf("-- = %#v, %v; want an undefined entry without separator", v, ok)
	}

	res, err = Resolve(nil, nil, quiet(WithoutPositional(), WithoutRest())...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(res.Values) != 0 {
		t.Errorf("Values = %v, want empty", res.Values)
	}
}

func TestResolve_IncludeErrors(t *testing.T) {
	t.Parallel()

	res, err := Resolve([]argspec.Spec{{ID: "a", Required: argspec.Bool(true)}}, nil,
		quiet(WithoutPositional(), WithoutRest(), WithIncludeErrors(DefaultErrorsKey))...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []string{"failed to resolve value for required argument - id: a"}
	if diff := cmp.Diff(want, res.Get("_errors")); diff != "" {
		t.Errorf("_errors mismatch (-want +got):\n%s", diff)
	}

	res, err = Resolve([]argspec.Spec{{ID: "a", Default: "x"}}, nil, quiet(WithIncludeErrors("errs"))...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !argval.IsNull(res.Get("errs")) {
		t.Errorf("errs = %#v, want Null", res.Get("errs"))
	}
}

func TestResolve_Locals(t *testing.T) {
	t.Parallel()

	specs := []argspec.Spec{{ID: "mode", Default: "dev", Enum: []any{"dev", "prod"}}}
	locals := map[string]any{"mode": "stage", "extra": "kept"}

	res, err := Resolve(specs, locals, quiet()...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Get("mode") != "stage" || res.Get("extra") != "kept" {
		t.Errorf("Values = %v, want locals copied verbatim", res.Values)
	}
	if len(res.Errors) != 0 {
		t.Errorf("locals applied last must not be validated, got %v", res.Errors)
	}
	if res.Arg("mode").Source() != SourceLocal {
		t.Errorf("Source() = %q, want local", res.Arg("mode").Source())
	}

	res, err = Resolve(specs, locals, quiet(WithLocalsPolicy(LocalsBeforeCoercion))...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Get("mode") != "stage" || res.Get("extra") != "kept" {
		t.Errorf("Values = %v", res.Values)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], ErrInvalidEnumValue) {
		t.Errorf("locals applied before coercion are validated, got %v", res.Errors)
	}

	res, err = Resolve([]argspec.Spec{{ID: "n", Default: 1}}, map[string]any{"n": "2"}, quiet(WithLocalsPolicy(LocalsBeforeCoercion))...)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := res.Get("n"); got != 2.0 {
		t.Errorf("n = %#v, want the coerced local", got)
	}
}

func TestResolve_Values(t *testing.T) {
	t.Parallel()

	r, err := New([]argspec.Spec{{ID: "a", Required: argspec.Bool(true)}}, quiet(WithThrow(true), WithoutRest(), WithoutPositional())...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	values, err := r.Values(map[string]any{"b": 1})
	if err != nil {
		t.Fatalf("Values() should skip the aggregate throw, got %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": nil, "b": 1}, values); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_InvalidSpecs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		specs []argspec.Spec
		opts  []Option
		want  error
	}{
		{"empty id", []argspec.Spec{{ID: ""}}, nil, argspec.ErrEmptyID},
		{"duplicate id", []argspec.Spec{{ID: "a"}, {ID: "a"}}, nil, argspec.ErrDuplicateID},
		{"reserved positional key", []argspec.Spec{{ID: "_"}}, nil, ErrReservedID},
		{"reserved errors key", []argspec.Spec{{ID: "errs"}}, []Option{WithIncludeErrors("errs")}, ErrReservedID},
		{"bad locals policy", []argspec.Spec{{ID: "a"}}, []Option{WithLocalsPolicy("sometimes")}, ErrInvalidLocalsPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.specs, quiet(tt.opts...)...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := New([]argspec.Spec{{ID: "_"}}, quiet(WithoutPositional())...); err != nil {
		t.Errorf("New() error = %v, want _ allowed when positional is disabled", err)
	}
}

func TestNew_SpecDefaults(t *testing.T) {
	t.Parallel()

	r, err := New([]argspec.Spec{{ID: "a"}, {ID: "b", Required: argspec.Bool(false)}},
		quiet(WithSpecDefaults(argspec.Spec{Required: argspec.Bool(true)}))...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if specs := r.Specs(); !specs[0].IsRequired() || specs[1].IsRequired() {
		t.Errorf("spec defaults not layered: %+v", specs)
	}

	res, err := r.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(res.Errors) != 1 {
		t.Errorf("Errors = %v, want only a", res.Errors)
	}
	if err := res.Err(); !errors.Is(err, ErrMissingRequired) {
		t.Errorf("Err() = %v, want ErrMissingRequired", err)
	}
}

func TestOSEnv(t *testing.T) {
	t.Setenv("ARGRES_TEST_VALUE", "a=b")

	env := OSEnv()
	if v, ok := env.Lookup("ARGRES_TEST_VALUE"); !ok || v != "a=b" {
		t.Errorf("Lookup() = %q, %v; want a=b", v, ok)
	}

	res, err := Resolve([]argspec.Spec{{ID: "v", Env: "ARGRES_TEST_VALUE"}}, nil, WithSink(DiscardSink))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Get("v") != "a=b" {
		t.Errorf("v = %#v, want the process environment by default", res.Get("v"))
	}
}
