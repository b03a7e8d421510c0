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

import "sync"

// DeferredEntry is the {exportsProxy, proxiedExports, activate} triple
// of spec: a Namespace built before the owning module ever executes, so
// a cyclic importer can obtain and subscribe to its bindings before
// they are ready, plus the one-shot Activate that freezes its key set
// once the module body has finished running.
type DeferredEntry struct {
	Namespace *Namespace

	mu        sync.Mutex
	activated bool
}

func newDeferredEntry() *DeferredEntry {
	return &DeferredEntry{Namespace: newNamespace()}
}

// Activate is idempotent: repeat calls (e.g. from a re-entrant execute
// during a cycle) are no-ops after the first.
func (d *DeferredEntry) Activate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.activated {
		return
	}
	d.activated = true
	d.Namespace.Activate()
}

// GetDeferredExports returns the full specifier's DeferredEntry,
// creating it on first access. Every subsequent call for the same
// specifier within this compartment returns the same entry, which is
// what lets the linker hand a not-yet-instantiated dependency's
// namespace to an importer on the other side of a cycle.
func (pf *PrivateFields) GetDeferredExports(full FullSpecifier) *DeferredEntry {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if e, ok := pf.deferred[full]; ok {
		return e
	}
	e := newDeferredEntry()
	pf.deferred[full] = e
	return e
}
