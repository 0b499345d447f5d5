// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Result is a decoded document together with the unified CUE value it came from.
type Result[T any] struct {
	Value   *T
	Unified cue.Value
}

// Decode compiles data as CUE source, unifies it with the definition at
// schemaPath in schema, validates it and decodes it into T.
func Decode[T any](schema, data []byte, schemaPath string, opts ...Option) (*Result[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := CheckFileSize(data, o.maxFileSize, o.name()); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	root, err := lookupSchema(ctx, schema, schemaPath)
	if err != nil {
		return nil, err
	}

	user := ctx.CompileBytes(data, cue.Filename(o.name()))
	if user.Err() != nil {
		return nil, FormatError(user.Err(), o.name())
	}
	return unifyAndDecode[T](root, user, &o)
}

// DecodeValue is Decode for a value that was already decoded from another
// format. Maps, slices and scalars are encoded into CUE before unification.
func DecodeValue[T any](schema []byte, value any, schemaPath string, opts ...Option) (*Result[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx := cuecontext.New()
	root, err := lookupSchema(ctx, schema, schemaPath)
	if err != nil {
		return nil, err
	}

	user := ctx.Encode(value)
	if user.Err() != nil {
		return nil, FormatError(user.Err(), o.name())
	}
	return unifyAndDecode[T](root, user, &o)
}

// ValidateSchema reports whether schema compiles and defines schemaPath.
func ValidateSchema(schema []byte, schemaPath string) error {
	_, err := lookupSchema(cuecontext.New(), schema, schemaPath)
	return err
}

func lookupSchema(ctx *cue.Context, schema []byte, schemaPath string) (cue.Value, error) {
	compiled := ctx.CompileBytes(schema)
	if compiled.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: compile schema: %w", compiled.Err())
	}
	root := compiled.LookupPath(cue.ParsePath(schemaPath))
	if root.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, root.Err())
	}
	if !root.Exists() {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found", schemaPath)
	}
	return root, nil
}

func unifyAndDecode[T any](root, user cue.Value, o *decodeOptions) (*Result[T], error) {
	unified := root.Unify(user)

	var validateOpts []cue.Option
	if o.concrete {
		validateOpts = append(validateOpts, cue.Concrete(true))
	}
	if err := unified.Validate(validateOpts...); err != nil {
		return nil, FormatError(err, o.name())
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, o.name())
	}
	return &Result[T]{Value: &out, Unified: unified}, nil
}
