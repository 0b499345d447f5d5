// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"

	"github.com/argres/argres/pkg/argspec"
	"github.com/argres/argres/pkg/argval"

	"golang.org/x/exp/slices"
)

type (
	// Resolver holds a validated set of specs and the options of a resolution run.
	// Each call to Resolve or Values builds fresh Args; a Resolver is not safe for
	// concurrent use.
	Resolver struct {
		specs []argspec.Spec
		opts  options
	}

	// Result is the output of one resolution run.
	Result struct {
		// Values maps argument ids, and the enabled synthetic keys, to resolved values.
		Values map[string]any
		// Errors is every argument's errors, in spec order.
		Errors []error
		// Args are the resolved descriptors, in spec order.
		Args []*Arg
	}
)

// Resolve is the one-call form of New followed by Resolver.Resolve.
func Resolve(specs []argspec.Spec, locals map[string]any, opts ...Option) (*Result, error) {
	r, err := New(specs, opts...)
	if err != nil {
		return nil, err
	}
	return r.Resolve(locals)
}

// New validates specs after layering the spec defaults under each of them.
// Ids must be non-empty, unique, and distinct from the synthetic output keys.
func New(specs []argspec.Spec, opts ...Option) (*Resolver, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if valid, errs := o.locals.IsValid(); !valid {
		return nil, errors.Join(errs...)
	}
	o.finish()

	merged := make([]argspec.Spec, len(specs))
	for i := range specs {
		merged[i] = specs[i].WithDefaults(o.specDefaults)
	}
	if err := argspec.Validate(merged); err != nil {
		return nil, err
	}
	reserved := o.reservedKeys()
	for i := range merged {
		if slices.Contains(reserved, merged[i].ID) {
			return nil, fmt.Errorf("%w: %q", ErrReservedID, merged[i].ID)
		}
	}

	return &Resolver{specs: merged, opts: o}, nil
}

// Specs returns the specs with defaults applied.
func (r *Resolver) Specs() []argspec.Spec {
	return append([]argspec.Spec(nil), r.specs...)
}

// Resolve resolves every argument, applies locals, and reports the collected
// errors: as one diagnostic in warn mode, and as an *InvalidArgumentError with a
// nil Result in throw mode. Throw mode only fails after every argument resolved.
// An argument with its own throw policy aborts the run as soon as it fails.
func (r *Resolver) Resolve(locals map[string]any) (*Result, error) {
	res, err := r.run(locals)
	if err != nil {
		return nil, err
	}

	if len(res.Errors) > 0 {
		if r.opts.warn {
			r.opts.sink.Warn(joinMessages(res.Errors))
		}
		if r.opts.throw {
			return nil, &InvalidArgumentError{Errors: res.Errors}
		}
	}

	if r.opts.includeErrors {
		if len(res.Errors) > 0 {
			res.Values[r.opts.errorsKey] = messages(res.Errors)
		} else {
			res.Values[r.opts.errorsKey] = argval.Null
		}
	}
	return res, nil
}

// Values resolves every argument and applies locals without the aggregate
// warn and throw policy.
func (r *Resolver) Values(locals map[string]any) (map[string]any, error) {
	res, err := r.run(locals)
	if err != nil {
		return nil, err
	}
	return res.Values, nil
}

func (r *Resolver) run(locals map[string]any) (*Result, error) {
	src := sources{env: r.opts.env, cmdline: r.opts.cmdline, sink: r.opts.sink}
	res := &Result{
		Values: make(map[string]any, len(r.specs)+len(locals)+3),
		Args:   make([]*Arg, 0, len(r.specs)),
	}

	for i := range r.specs {
		var local *override
		if r.opts.locals == LocalsBeforeCoercion {
			if v, ok := locals[r.specs[i].ID]; ok {
				local = &override{value: v}
			}
		}

		arg, err := newArg(r.specs[i], src, local)
		if err != nil {
			return nil, err
		}
		res.Args = append(res.Args, arg)
		res.Errors = append(res.Errors, arg.errs...)
		res.Values[arg.ID()] = arg.Value()
	}

	if r.opts.positional {
		positional := []string{}
		if r.opts.cmdline != nil {
			positional = append(positional, r.opts.cmdline.Positional()...)
		}
		res.Values[r.opts.positionalKey] = positional
	}
	if r.opts.rest {
		res.Values[r.opts.restKey] = nil
		if r.opts.cmdline != nil {
			if rest, ok := r.opts.cmdline.Rest(); ok {
				res.Values[r.opts.restKey] = rest
			}
		}
	}

	for key, v := range locals {
		arg := res.Arg(key)
		switch {
		case arg == nil:
			res.Values[key] = v
		case r.opts.locals == LocalsAfterCoercion:
			arg.force(v, SourceLocal)
			res.Values[key] = v
		}
	}
	return res, nil
}

// Get returns the resolved value of id.
func (res *Result) Get(id string) any {
	return res.Values[id]
}

// Arg returns the descriptor of id, or nil when id is not a declared argument.
func (res *Result) Arg(id string) *Arg {
	for _, a := range res.Args {
		if a.ID() == id {
			return a
		}
	}
	return nil
}

// Messages returns the error messages in spec order.
func (res *Result) Messages() []string {
	return messages(res.Errors)
}

// Err returns the collected errors as an *InvalidArgumentError, or nil when
// every argument is valid.
func (res *Result) Err() error {
	if len(res.Errors) == 0 {
		return nil
	}
	return &InvalidArgumentError{Errors: append([]error(nil), res.Errors...)}
}
