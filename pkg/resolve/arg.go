// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"

	"github.com/argres/argres/pkg/argspec"
	"github.com/argres/argres/pkg/argval"
	"github.com/argres/argres/pkg/coerce"
)

type (
	// Arg is one declared argument together with its resolved value and the
	// validation errors of the latest resolution pass.
	Arg struct {
		spec   argspec.Spec
		keys   []string
		value  any
		source Source
		errs   []error
		sink   Sink
	}

	// sources bundles the read-only inputs of one resolution pass.
	sources struct {
		env     Env
		cmdline CommandLine
		sink    Sink
	}

	// override is a local applied inside the engine, before coercion.
	override struct {
		value any
	}
)

// newArg resolves spec against src. Sources are consulted in precedence order,
// each later one replacing the value: default, environment, command line, then
// the local override when one is given. The value is then coerced and validated.
// A non-nil error is either a converter failure or, when the spec throws,
// an *InvalidArgumentError; the Arg is still returned in the latter case.
func newArg(spec argspec.Spec, src sources, local *override) (*Arg, error) {
	a := &Arg{
		spec: spec,
		keys: spec.Keys(),
		sink: src.sink,
	}

	if spec.Default != nil {
		a.value, a.source = spec.Default, SourceDefault
	}

	if spec.Env != "" && src.env != nil {
		if v, ok := src.env.Lookup(spec.Env); ok {
			a.value, a.source = v, SourceEnv
		}
	}

	if spec.ConsultsArgv() && src.cmdline != nil {
		for _, key := range a.keys {
			if v, ok := src.cmdline.Lookup(key); ok && v != nil {
				a.value, a.source = v, SourceArgv
				break
			}
		}
	}

	if local != nil {
		a.value, a.source = local.value, SourceLocal
	}

	v, err := a.coerce(a.value)
	if err != nil {
		return nil, err
	}
	a.value = v
	a.errs = a.check(a.value)

	if err := a.report(); err != nil {
		return a, err
	}
	return a, nil
}

// ID returns the argument id.
func (a *Arg) ID() string { return a.spec.ID }

// Spec returns the resolved specification, defaults included.
func (a *Arg) Spec() argspec.Spec { return a.spec }

// Keys returns the lookup keys in the order they are tried.
func (a *Arg) Keys() []string { return append([]string(nil), a.keys...) }

// Source reports which source supplied the current value.
func (a *Arg) Source() Source { return a.source }

// Errors returns the validation errors of the latest pass.
func (a *Arg) Errors() []error { return append([]error(nil), a.errs...) }

// Value returns the current value. It has no side effects.
func (a *Arg) Value() any { return a.value }

// ResolveValue validates the current value again and applies the argument's
// warn and throw policy. In throw mode an invalid value yields an *InvalidArgumentError.
func (a *Arg) ResolveValue() (any, error) {
	a.errs = a.check(a.value)
	if err := a.report(); err != nil {
		return nil, err
	}
	return a.value, nil
}

// SetValue coerces and validates candidate, then stores it when the result is
// a defined value that is not an empty sequence, or is undefined and the
// argument is nullable. The validation errors replace those of the previous pass;
// no warn or throw policy is applied. Only converter failures are returned.
func (a *Arg) SetValue(candidate any) error {
	v, err := a.coerce(candidate)
	if err != nil {
		return err
	}
	a.errs = a.check(v)

	switch {
	case v == nil && a.spec.IsNullable():
	case v == nil, argval.IsEmptySequence(v):
		return nil
	}
	a.value, a.source = v, SourceLocal
	return nil
}

// force stores v without coercion or validation.
func (a *Arg) force(v any, src Source) {
	a.value, a.source = v, src
}

// coerce runs native then custom coercion. Each step is skipped for an
// undefined value unless the spec parses undefined.
func (a *Arg) coerce(v any) (any, error) {
	if a.spec.UsesNativeType() && a.canParse(v) {
		v = coerce.Native(v)
	}
	if a.spec.Type != nil && a.canParse(v) {
		out, err := coerce.Specific(v, a.spec.Type)
		if err != nil {
			return nil, fmt.Errorf("convert argument %q: %w", a.spec.ID, err)
		}
		v = out
	}
	return v, nil
}

func (a *Arg) canParse(v any) bool {
	return v != nil || a.spec.ParsesUndefined()
}

// check returns the enum and required violations of v.
func (a *Arg) check(v any) []error {
	var errs []error
	undefinedOK := v == nil && a.spec.IsNullable()

	if a.spec.IsEnum() && !undefinedOK {
		if seq, ok := argval.Sequence(v); ok {
			for _, e := range seq {
				if !a.permitted(e) {
					errs = append(errs, &InvalidEnumValueError{ID: a.spec.ID, Value: e})
				}
			}
		} else if !a.permitted(v) {
			errs = append(errs, &InvalidEnumValueError{ID: a.spec.ID, Value: v})
		}
	}

	if a.spec.IsRequired() && !a.spec.IsNullable() && (v == nil || argval.IsEmptySequence(v)) {
		errs = append(errs, &MissingRequiredError{ID: a.spec.ID})
	}
	return errs
}

func (a *Arg) permitted(v any) bool {
	for _, e := range a.spec.Enum {
		if argval.Equal(v, e) {
			return true
		}
	}
	return false
}

// report applies the warn and throw policy to the current errors.
func (a *Arg) report() error {
	if len(a.errs) == 0 {
		return nil
	}
	if a.spec.Warns() && a.sink != nil {
		a.sink.Warn(joinMessages(a.errs))
	}
	if a.spec.Throws() {
		return &InvalidArgumentError{ID: a.spec.ID, Errors: a.Errors()}
	}
	return nil
}
