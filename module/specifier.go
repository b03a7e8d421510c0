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

// Package module is the core data model and binding machinery for the
// compartment module loader and linker: static module records, per
// compartment module records and instances, live/fixed binding records
// with TDZ, the deferred-exports namespace, and the cross-compartment
// alias registry. It never imports a concrete scripting engine — it
// consumes an opaque Evaluator and Functor, both satisfied by the
// runtime package's goja-backed adapter.
package module

// FullSpecifier is the canonical, resolved identifier of a module within
// a single compartment. Two full specifiers denote the same
// module-in-compartment iff their strings are equal.
type FullSpecifier string

func (s FullSpecifier) String() string { return string(s) }

// Alias is a reference to a module defined in a different compartment's
// PrivateFields, produced by a module-map hook or by an import hook that
// yields a foreign record. Aliases never execute on their own; they
// resolve to whichever instance exists in the target compartment.
type Alias struct {
	Compartment *PrivateFields
	Specifier   FullSpecifier
}
