// SPDX-License-Identifier: Apache-2.0
//
// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package xerr is the error taxonomy for the module loader and linker:
// TypeError for argument shape, ReferenceError for TDZ/unmapped-alias
// access, SyntaxError for linkage failures, plus a sticky wrapper for
// errors thrown by module bodies.
package xerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// TypeErrorKind marks argument-shape and record-validation failures:
// invalid specifier types, malformed module-map entries, invalid
// lexical names, non-string export lists.
type TypeErrorKind struct{ what string }

func (e TypeErrorKind) Error() string { return "TypeError: " + e.what }

func ErrType(format string, args ...any) error {
	return TypeErrorKind{what: fmt.Sprintf(format, args...)}
}

// ReferenceErrorKind marks TDZ access and unrecognized module-map
// aliases.
type ReferenceErrorKind struct{ what string }

func (e ReferenceErrorKind) Error() string { return "ReferenceError: " + e.what }

func ErrReference(format string, args ...any) error {
	return ReferenceErrorKind{what: fmt.Sprintf(format, args...)}
}

// SyntaxErrorKind marks linkage failures: a dependency does not provide
// an export the importer asked for.
type SyntaxErrorKind struct{ what string }

func (e SyntaxErrorKind) Error() string { return "SyntaxError: " + e.what }

func ErrSyntax(format string, args ...any) error {
	return SyntaxErrorKind{what: fmt.Sprintf(format, args...)}
}

// ErrMissingExport reports a dependency that does not provide an
// export its importer asked for.
func ErrMissingExport(importName, fromSpecifier string) error {
	return ErrSyntax("module %q does not provide an export named %q", fromSpecifier, importName)
}

// ResolutionErrorKind wraps a resolveHook, moduleMapHook, or importHook
// failure encountered while discovering the module graph.
type ResolutionErrorKind struct{}

func (e ResolutionErrorKind) Error() string { return "module resolution failed" }

func ErrResolution(specifier string, cause error) error {
	return errors.Wrapf(ResolutionErrorKind{}, "resolving %q: %s", specifier, cause)
}

// StickyErrorKind wraps a user error thrown from a module body so it
// can be told apart from a core-raised error when rethrown on repeat
// execute() calls.
type StickyErrorKind struct{ cause error }

func (e StickyErrorKind) Error() string { return e.cause.Error() }

func (e StickyErrorKind) Unwrap() error { return e.cause }

func ErrSticky(cause error) error {
	if cause == nil {
		return nil
	}
	if _, ok := cause.(StickyErrorKind); ok {
		return cause
	}
	return StickyErrorKind{cause: cause}
}

// NotFoundErrorKind marks a lookup that found nothing: an unregistered
// compartment, an unknown specifier in a diagnostics query.
type NotFoundErrorKind struct{}

func (e NotFoundErrorKind) Error() string { return "not found" }

func ErrNotFound(what string) error {
	return errors.Wrap(NotFoundErrorKind{}, what)
}
