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
	"sync"

	"github.com/binaek/compartment/xerr"
)

// ModuleInstance is a module's one-per-compartment execution state: a
// sticky execute() that runs the module body to completion exactly
// once, and a notifier per own export name so other instances (and the
// public namespace) can subscribe to its bindings.
type ModuleInstance struct {
	specifier FullSpecifier
	deferred  *DeferredEntry

	run func() error

	mu      sync.Mutex
	started bool
	err     error
}

// Namespace returns the instance's deferred-exports namespace — the
// object a host hands out as a module's import-namespace value.
func (mi *ModuleInstance) Namespace() *Namespace { return mi.deferred.Namespace }

// ExportedNames returns the own export names currently registered,
// sorted — used when merging `export *` sources.
func (mi *ModuleInstance) ExportedNames() []string { return mi.deferred.Namespace.OwnKeys() }

// Notifier returns the Notify for one of the instance's own exports.
func (mi *ModuleInstance) Notifier(exportName string) (Notify, error) {
	return mi.deferred.Namespace.notifierFor(exportName, string(mi.specifier))
}

// Execute runs the module body to completion exactly once. Re-entrant
// calls — the case during a dependency cycle, where executing this
// module transitively tries to execute it again before the first call
// returns — are a no-op that reports success so far: the caller falls
// back on each binding's own TDZ check to decide whether a particular
// value is actually ready yet. A prior failure is re-raised, sticky,
// on every subsequent call.
func (mi *ModuleInstance) Execute() error {
	mi.mu.Lock()
	if mi.started {
		err := mi.err
		mi.mu.Unlock()
		return err
	}
	mi.started = true
	mi.mu.Unlock()

	err := mi.run()

	mi.mu.Lock()
	mi.err = err
	mi.mu.Unlock()
	return err
}

// importInstanceResolver looks up the already-linked ModuleInstance for
// one of this module's declared import specifiers, returning the
// underlying Link error (not a generic one) when linking the specifier
// fails.
type importInstanceResolver func(importSpecifier string) (*ModuleInstance, error)

// BuildParsedInstance constructs the ModuleInstance for a parsed (ESM)
// module record: it builds one binding per local fixed/live export,
// evaluates the generated functor source exactly once (here, while the
// instance is built; the functor itself runs on Execute), and wires the
// imports/onceVar/liveVar tables the functor's
// generated program calls into.
func BuildParsedInstance(pf *PrivateFields, rec *ModuleRecord, resolveImport importInstanceResolver) (*ModuleInstance, error) {
	sr := rec.StaticModuleRecord
	deferred := pf.GetDeferredExports(rec.ModuleSpecifier)
	ns := deferred.Namespace
	pf.Aliases.Register(ns, pf, rec.ModuleSpecifier)

	onceVar := BindingTable{}
	liveVar := BindingTable{}

	for exportName, localName := range sr.FixedExportMap {
		b := newBinding(localName, false, false)
		onceVar[localName] = b.init
		ns.define(exportName, b)
	}
	for exportName, le := range sr.LiveExportMap {
		b := newBinding(le.LocalName, true, le.SetProxyTrap)
		liveVar[le.LocalName] = b.update
		ns.define(exportName, b)
	}

	functorValue, err := pf.Evaluator.Evaluate(sr.FunctorSource, EvaluateOptions{
		GlobalLexicals: pf.GlobalLexicals,
	})
	if err != nil {
		return nil, xerr.ErrSyntax("module %q failed to compile: %s", rec.ModuleSpecifier, err)
	}
	functor, ok := functorValue.(Functor)
	if !ok {
		return nil, xerr.ErrType("module %q: evaluate did not return a module functor", rec.ModuleSpecifier)
	}

	importBindings := map[string]map[string]*binding{}

	importsFn := func(updateRecord map[string][]string) error {
		for spec, names := range updateRecord {
			depInst, err := resolveImport(spec)
			if err != nil {
				return err
			}
			if err := depInst.Execute(); err != nil {
				return err
			}
			m := importBindings[spec]
			if m == nil {
				m = map[string]*binding{}
				importBindings[spec] = m
			}
			for _, name := range names {
				if name == "*" {
					b := newBinding(name, false, false)
					b.init(depInst.Namespace())
					m[name] = b
					continue
				}
				notify, err := depInst.Notifier(name)
				if err != nil {
					return err
				}
				b := newBinding(name, true, false)
				notify(b.update)
				m[name] = b
			}
		}

		for _, nr := range sr.NamedReexports {
			depInst, err := resolveImport(nr.Specifier)
			if err != nil {
				return err
			}
			if err := depInst.Execute(); err != nil {
				return err
			}
			notify, err := depInst.Notifier(nr.ImportName)
			if err != nil {
				return err
			}
			b := newBinding(nr.ExportName, true, false)
			notify(b.update)
			ns.define(nr.ExportName, b)
		}

		reexportCandidate := map[string]string{}
		ambiguous := map[string]bool{}
		for _, spec := range sr.Reexports {
			depInst, err := resolveImport(spec)
			if err != nil {
				return err
			}
			if err := depInst.Execute(); err != nil {
				return err
			}
			for _, name := range depInst.ExportedNames() {
				if name == "default" {
					continue
				}
				if prevSpec, seen := reexportCandidate[name]; seen && prevSpec != spec {
					ambiguous[name] = true
					continue
				}
				reexportCandidate[name] = spec
			}
		}
		for name, spec := range reexportCandidate {
			if ambiguous[name] || ns.hasOwn(name) {
				continue
			}
			depInst, _ := resolveImport(spec)
			notify, err := depInst.Notifier(name)
			if err != nil {
				return err
			}
			b := newBinding(name, true, false)
			notify(b.update)
			ns.define(name, b)
		}
		return nil
	}

	importRead := func(spec, name string) (any, error) {
		m, ok := importBindings[spec]
		if !ok {
			return nil, xerr.ErrReference("module %q: %q was never wired as an import", rec.ModuleSpecifier, spec)
		}
		b, ok := m[name]
		if !ok {
			return nil, xerr.ErrReference("module %q: %q imports no binding named %q", rec.ModuleSpecifier, spec, name)
		}
		return b.get()
	}

	mi := &ModuleInstance{specifier: rec.ModuleSpecifier, deferred: deferred}
	mi.run = func() error {
		if err := functor.Run(importsFn, importRead, onceVar, liveVar); err != nil {
			return xerr.ErrSticky(err)
		}
		deferred.Activate()
		return nil
	}
	return mi, nil
}

// thirdPartyExports is the mutable exports view handed to a
// ThirdPartyExecuteFunc: unlike the public Namespace facade, writes
// reach the underlying bindings directly.
type thirdPartyExports struct {
	bindings map[string]*binding
}

func (e *thirdPartyExports) Get(name string) (any, error) {
	b, ok := e.bindings[name]
	if !ok {
		return nil, xerr.ErrReference("no declared export named %q", name)
	}
	return b.get()
}

func (e *thirdPartyExports) Set(name string, value any) error {
	b, ok := e.bindings[name]
	if !ok {
		return xerr.ErrType("cannot define undeclared export %q", name)
	}
	b.update(value)
	return nil
}

func (e *thirdPartyExports) OwnKeys() []string {
	keys := make([]string, 0, len(e.bindings))
	for k := range e.bindings {
		keys = append(keys, k)
	}
	return keys
}

// BuildThirdPartyInstance constructs the ModuleInstance for a
// host-provided record: one mutable, externally-settable binding per
// declared export name, driven by ThirdPartyExecute once every declared
// import has itself executed.
func BuildThirdPartyInstance(pf *PrivateFields, rec *ModuleRecord, resolveImport importInstanceResolver) (*ModuleInstance, error) {
	sr := rec.StaticModuleRecord
	deferred := pf.GetDeferredExports(rec.ModuleSpecifier)
	ns := deferred.Namespace
	pf.Aliases.Register(ns, pf, rec.ModuleSpecifier)

	bindings := map[string]*binding{}
	for _, name := range sr.Exports {
		if name == "" {
			return nil, xerr.ErrType("module %q: export names must be non-empty strings", rec.ModuleSpecifier)
		}
		b := newBinding(name, true, true)
		bindings[name] = b
		ns.define(name, b)
	}
	proxiedExports := &thirdPartyExports{bindings: bindings}

	mi := &ModuleInstance{specifier: rec.ModuleSpecifier, deferred: deferred}
	mi.run = func() error {
		resolved := map[string]ExportsView{}
		for spec := range rec.ResolvedImports {
			depInst, err := resolveImport(spec)
			if err != nil {
				return err
			}
			if err := depInst.Execute(); err != nil {
				return err
			}
			resolved[spec] = depInst.Namespace()
		}
		if err := sr.ThirdPartyExecute(proxiedExports, pf, resolved); err != nil {
			return xerr.ErrSticky(err)
		}
		deferred.Activate()
		return nil
	}
	return mi, nil
}
