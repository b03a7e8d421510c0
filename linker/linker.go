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

// Package linker turns a loaded ModuleRecord into a cached,
// executable ModuleInstance. Linking a module never executes it — it
// builds its binding tables, its deferred-exports namespace entries,
// and (for parsed modules) compiles its functor source — and never
// recurses into a dependency's own Link until that dependency is
// actually needed, which happens lazily the first time the instance
// executes and its generated program calls back asking for imports.
// That laziness is what lets a mutual-import cycle link at all: each
// side's ModuleInstance is cached before either side's import resolver
// is ever invoked.
package linker

import (
	"fmt"

	"github.com/binaek/compartment/module"
	"github.com/binaek/compartment/xerr"
)

// Link returns the cached ModuleInstance for full, building it (and,
// for an aliased record, resolving through to the foreign compartment)
// on first request. full must already have a ModuleRecord — i.e. the
// loader must have discovered it — or Link reports a not-found error.
func Link(pf *module.PrivateFields, full module.FullSpecifier) (*module.ModuleInstance, error) {
	if mi, ok := pf.GetInstance(full); ok {
		return mi, nil
	}

	rec, ok := pf.RecordOf(full)
	if !ok {
		return nil, xerr.ErrNotFound(fmt.Sprintf("module %q has not been loaded in compartment %q", full, pf.Name))
	}

	if rec.IsAlias() {
		target := rec.Alias
		mi, err := Link(target.Compartment, target.Specifier)
		if err != nil {
			return nil, err
		}
		pf.SetInstance(full, mi)
		return mi, nil
	}

	resolveImport := func(importSpecifier string) (*module.ModuleInstance, error) {
		childFull, ok := rec.ResolvedImports[importSpecifier]
		if !ok {
			return nil, xerr.ErrSyntax("module %q: import specifier %q did not resolve", full, importSpecifier)
		}
		mi, err := Link(pf, childFull)
		if err != nil {
			return nil, err
		}
		return mi, nil
	}

	var mi *module.ModuleInstance
	var err error
	if rec.StaticModuleRecord.IsThirdParty() {
		mi, err = module.BuildThirdPartyInstance(pf, rec, resolveImport)
	} else {
		mi, err = module.BuildParsedInstance(pf, rec, resolveImport)
	}
	if err != nil {
		return nil, err
	}
	pf.SetInstance(full, mi)
	return mi, nil
}
