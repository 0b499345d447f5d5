// SPDX-License-Identifier: MPL-2.0

// Package argspec defines the declaration of an argument: its lookup names,
// the sources it consults, how its value is coerced and which validations apply.
//
// A Spec is plain data and immutable once resolution starts. Policy flags are
// pointers so that a shared set of defaults can be layered under each spec with
// WithDefaults; the accessor methods (ConsultsArgv, IsRequired, ...) apply the
// built-in defaults for flags left unset.
package argspec
