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

package module

// EvaluateOptions configures a single evaluate(source, options) call.
// GlobalLexicals are constants visible to every evaluate call a
// compartment makes (its frozen globalLexicals); ModuleShimLexicals are
// additional bindings scoped to one module functor's compilation only.
type EvaluateOptions struct {
	GlobalLexicals     map[string]any
	ModuleShimLexicals map[string]any
	Transforms         []string
}

// Evaluator is the single opaque operation the core needs from a
// scripting engine: evaluate source text under a set of lexical
// options and hand back a language-native value. For module functor
// source, that value must implement Functor; module.BuildParsedInstance
// type-asserts it and raises a type error otherwise. The runtime
// package's goja-backed adapter is the only implementation in this
// repository.
type Evaluator interface {
	Evaluate(source string, opts EvaluateOptions) (any, error)
}

// ImportsFn is the callback a generated module program calls exactly
// once, synchronously, before reading any imported binding. updateRecord
// maps each specifier the program imports from to the names it imports
// from that specifier, as the dependency exports them; Functor.Run's
// caller uses it to execute each
// dependency and subscribe the generated program's accessors to their
// notifiers before the rest of the program body runs.
type ImportsFn func(updateRecord map[string][]string) error

// BindingTable is the onceVar/liveVar table a generated program calls
// into as each of its local export declarations initializes or
// reassigns: table[name] is called with the new value.
type BindingTable map[string]func(value any)

// ImportRead reads the current value of one imported binding — name as
// imported from specifier, which must be one of the names previously
// passed to ImportsFn. It enforces that binding's TDZ exactly as a
// local export binding's own get does, since under the hood it is the
// same binding type.
type ImportRead func(specifier, name string) (any, error)

// Functor is the opaque, language-specific executable obtained by
// evaluating a module's generated program source. Run drives the
// module's top-level code to completion exactly once.
type Functor interface {
	Run(imports ImportsFn, read ImportRead, onceVar, liveVar BindingTable) error
}
