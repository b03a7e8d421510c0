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

// Package loader discovers a compartment's module graph: starting from
// one specifier, it resolves, fetches (via the compartment's hooks),
// and recurses into every transitive import, storing one ModuleRecord
// per full specifier in the compartment's PrivateFields. It tolerates
// cycles by constructing each record's RecordFuture before recursing
// into that record's own imports, so a cycle back to a module already
// being discovered finds its future already claimed and simply returns
// rather than waiting on it.
package loader

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/binaek/compartment/module"
	"github.com/binaek/compartment/xerr"
)

// Load resolves importSpecifier against referrer and discovers its full
// transitive module graph concurrently, one goroutine per distinct
// specifier, fanned out via errgroup and bounded by ctx. It returns the
// full specifier of the requested module once the entire reachable
// graph has been recorded in pf, or the first discovery error.
func Load(ctx context.Context, pf *module.PrivateFields, importSpecifier string, referrer module.FullSpecifier) (module.FullSpecifier, error) {
	full, err := pf.ResolveHook(importSpecifier, referrer)
	if err != nil {
		return "", xerr.ErrResolution(importSpecifier, err)
	}
	g, gctx := errgroup.WithContext(ctx)
	scheduleDiscovery(g, gctx, pf, full)
	if err := g.Wait(); err != nil {
		return "", err
	}
	return full, nil
}

func scheduleDiscovery(g *errgroup.Group, ctx context.Context, pf *module.PrivateFields, full module.FullSpecifier) {
	fut, isOwner := pf.BeginRecord(full)
	if !isOwner {
		// Discovery of this specifier already belongs to another task
		// (a sibling import, or — in a cycle — an ancestor currently
		// further up this very call stack). Its own g.Go invocation
		// carries whatever error it raises into the shared group; this
		// caller has nothing further to contribute.
		return
	}
	g.Go(func() error {
		rec, err := discoverRecord(ctx, pf, full, fut)
		if err != nil {
			return err
		}
		if rec.IsAlias() {
			return nil
		}
		for _, childFull := range rec.ResolvedImports {
			scheduleDiscovery(g, ctx, pf, childFull)
		}
		return nil
	})
}

// discoverRecord fetches and resolves a single specifier's record and
// settles fut, but never recurses into its imports — the two callers
// (concurrent and synchronous) handle recursion themselves so that
// settling a record is never blocked on its children settling.
//
// When the import hook redirects full to a distinct canonical
// specifier, full's own future settles to an alias record pointing at
// that canonical specifier within this same compartment, and the
// canonical specifier is discovered (and its own future claimed and
// settled) right here rather than left to a separate top-level Load
// call — full is a synonym, not a second module. The returned record
// is always the one a caller should recurse into for children: either
// full's own (no redirect), or the canonical's (redirect, and this
// call owns its discovery).
func discoverRecord(ctx context.Context, pf *module.PrivateFields, full module.FullSpecifier, fut *module.RecordFuture) (*module.ModuleRecord, error) {
	if pf.ModuleMapHook != nil {
		alias, err := pf.ModuleMapHook(full)
		if err != nil {
			werr := xerr.ErrResolution(string(full), err)
			fut.Resolve(nil, werr)
			return nil, werr
		}
		if alias != nil {
			rec := &module.ModuleRecord{ModuleSpecifier: full, Alias: alias}
			fut.Resolve(rec, nil)
			return rec, nil
		}
	}

	srec, canonical, err := pf.ImportHook(ctx, full)
	if err != nil {
		werr := xerr.ErrResolution(string(full), err)
		fut.Resolve(nil, werr)
		return nil, werr
	}
	if canonical == "" {
		canonical = full
	}

	if canonical != full {
		aliasRec := &module.ModuleRecord{ModuleSpecifier: full, Alias: &module.Alias{Compartment: pf, Specifier: canonical}}
		fut.Resolve(aliasRec, nil)

		canonicalFut, isOwner := pf.BeginRecord(canonical)
		if !isOwner {
			// The canonical specifier is already owned by another
			// discovery path (a prior redirect to it, or a direct
			// import of it); full is now registered as its synonym
			// and has nothing further to contribute.
			return aliasRec, nil
		}
		return buildParsedRecord(pf, canonical, srec, canonicalFut)
	}

	return buildParsedRecord(pf, full, srec, fut)
}

// buildParsedRecord resolves srec's declared imports relative to
// specifier and settles fut with the resulting ModuleRecord.
func buildParsedRecord(pf *module.PrivateFields, specifier module.FullSpecifier, srec *module.StaticModuleRecord, fut *module.RecordFuture) (*module.ModuleRecord, error) {
	resolvedImports := make(map[string]module.FullSpecifier, len(srec.Imports))
	for importSpec := range srec.Imports {
		rf, err := pf.ResolveHook(importSpec, specifier)
		if err != nil {
			werr := xerr.ErrResolution(importSpec, err)
			fut.Resolve(nil, werr)
			return nil, werr
		}
		resolvedImports[importSpec] = rf
	}

	rec := &module.ModuleRecord{ModuleSpecifier: specifier, StaticModuleRecord: srec, ResolvedImports: resolvedImports}
	// The record is ready the instant our own resolvedImports are
	// known — before any child has even started discovery. Waiting
	// here for children would deadlock the first time two modules
	// import each other.
	fut.Resolve(rec, nil)
	return rec, nil
}

// LoadSync is the synchronous counterpart Load uses for importNow: it
// walks the graph depth-first on the calling goroutine, with no
// errgroup fan-out, for hosts whose hooks are guaranteed synchronous
// (e.g. a filesystem import hook with no network fetch behind it).
func LoadSync(ctx context.Context, pf *module.PrivateFields, importSpecifier string, referrer module.FullSpecifier) (module.FullSpecifier, error) {
	full, err := pf.ResolveHook(importSpecifier, referrer)
	if err != nil {
		return "", xerr.ErrResolution(importSpecifier, err)
	}
	if err := discoverSync(ctx, pf, full); err != nil {
		return "", err
	}
	return full, nil
}

func discoverSync(ctx context.Context, pf *module.PrivateFields, full module.FullSpecifier) error {
	fut, isOwner := pf.BeginRecord(full)
	if !isOwner {
		return nil
	}
	rec, err := discoverRecord(ctx, pf, full, fut)
	if err != nil {
		return err
	}
	if rec.IsAlias() {
		return nil
	}
	for _, childFull := range rec.ResolvedImports {
		if err := discoverSync(ctx, pf, childFull); err != nil {
			return err
		}
	}
	return nil
}
