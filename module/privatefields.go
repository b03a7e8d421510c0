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

import (
	"context"
	"sync"
)

// ResolveHook maps an import specifier, as written by a referring
// module, to a full specifier — pure string manipulation, no I/O.
type ResolveHook func(importSpecifier string, referrer FullSpecifier) (FullSpecifier, error)

// ImportHook fetches and (if textual) parses the module at full,
// returning its StaticModuleRecord. The returned specifier is normally
// full itself; it differs when the hook redirects (e.g. a package
// subpath resolved through a manifest to a different file), in which
// case the loader records the module under the canonical specifier and
// records the original as an Alias to the canonical specifier in the
// same compartment.
type ImportHook func(ctx context.Context, full FullSpecifier) (*StaticModuleRecord, FullSpecifier, error)

// ModuleMapHook consults the compartment's static moduleMap for full,
// returning the Alias to follow instead of calling ImportHook, or nil
// if full is not mapped.
type ModuleMapHook func(full FullSpecifier) (*Alias, error)

// PrivateFields is a compartment's internal state, named for the
// private-fields map a WeakMap<Compartment, PrivateFields> would keep
// in a host that proxies Compartment as a public JS object. Go has no
// equivalent need for that indirection — there is no risk of exposing
// internal state through a proxied public object — so PrivateFields is
// simply the struct the loader, linker, and compartment packages share
// a pointer to; keeping it as a distinct type (rather than folding it
// into compartment.Compartment) is what lets loader and linker avoid
// importing the compartment package at all, breaking what would
// otherwise be an import cycle.
type PrivateFields struct {
	Name string

	Evaluator      Evaluator
	GlobalLexicals map[string]any

	ResolveHook   ResolveHook
	ImportHook    ImportHook
	ModuleMapHook ModuleMapHook

	Aliases *AliasRegistry

	mu            sync.RWMutex
	moduleRecords map[FullSpecifier]*RecordFuture
	instances     map[FullSpecifier]*ModuleInstance
	deferred      map[FullSpecifier]*DeferredEntry
}

// NewPrivateFields constructs an empty PrivateFields ready for the
// loader to populate. aliases may be nil to use the process-wide
// DefaultAliasRegistry.
func NewPrivateFields(name string, evaluator Evaluator, globalLexicals map[string]any, resolve ResolveHook, importHook ImportHook, moduleMap ModuleMapHook, aliases *AliasRegistry) *PrivateFields {
	if aliases == nil {
		aliases = DefaultAliasRegistry
	}
	return &PrivateFields{
		Name:           name,
		Evaluator:      evaluator,
		GlobalLexicals: globalLexicals,
		ResolveHook:    resolve,
		ImportHook:     importHook,
		ModuleMapHook:  moduleMap,
		Aliases:        aliases,
		moduleRecords:  map[FullSpecifier]*RecordFuture{},
		instances:      map[FullSpecifier]*ModuleInstance{},
		deferred:       map[FullSpecifier]*DeferredEntry{},
	}
}

// GetInstance returns the already-linked ModuleInstance for full, if
// any. The linker consults this before building a new one so a cyclic
// or diamond-shaped dependency graph only ever instantiates each module
// once.
func (pf *PrivateFields) GetInstance(full FullSpecifier) (*ModuleInstance, bool) {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	mi, ok := pf.instances[full]
	return mi, ok
}

// SetInstance registers the ModuleInstance the linker just built for
// full, before recursing into its imports, so a cycle back to full
// finds it already cached.
func (pf *PrivateFields) SetInstance(full FullSpecifier, mi *ModuleInstance) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	pf.instances[full] = mi
}

// RecordOf returns the ModuleRecord previously stored by the loader for
// full, if any — used by the linker and by diagnostics.
func (pf *PrivateFields) RecordOf(full FullSpecifier) (*ModuleRecord, bool) {
	pf.mu.RLock()
	fut, ok := pf.moduleRecords[full]
	pf.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return fut.peek()
}

// Specifiers returns every full specifier the loader has discovered so
// far, for diagnostics (e.g. building a dependency graph).
func (pf *PrivateFields) Specifiers() []FullSpecifier {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	out := make([]FullSpecifier, 0, len(pf.moduleRecords))
	for s := range pf.moduleRecords {
		out = append(out, s)
	}
	return out
}
