// SPDX-License-Identifier: MPL-2.0

// Package resolve merges argument sources into one value per argument.
//
// For every spec the engine consults, in precedence order, the default value,
// the environment variable, the parsed command line (first matching lookup key
// wins) and, with LocalsBeforeCoercion, the caller's local override. The value is
// then coerced (native literals, then the spec's converter) and validated against
// the enum and required rules. Errors accumulate per argument.
//
// A Resolver aggregates the arguments into a Result: a value mapping keyed by id,
// the positional and "--" tokens under synthetic keys, and every error in spec
// order. With the default LocalsAfterCoercion policy, locals are copied into the
// mapping last and bypass coercion and validation.
//
// Errors are reported according to policy: warn mode writes one joined message
// to a Sink, throw mode returns an *InvalidArgumentError. Both can be set per
// argument, where throw aborts the run immediately, and on the Resolver, where
// throw fails the run once every argument has resolved.
//
//	res, err := resolve.Resolve(specs, nil,
//		resolve.WithEnv(resolve.OSEnv()),
//		resolve.WithCommandLine(parsed),
//		resolve.WithThrow(true),
//	)
package resolve
