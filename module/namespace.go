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
	"sort"
	"sync"

	"github.com/binaek/compartment/xerr"
)

// ExportsView is the narrow read/write surface a host runtime adapter
// needs against a module's exports, without reaching into binding
// internals: used to hand a third-party module's dependencies their
// resolved exports, and to back the language-level namespace-exotic
// object.
type ExportsView interface {
	Get(name string) (any, error)
	Set(name string, value any) error
	OwnKeys() []string
}

// Namespace is the deferred-exports proxy target: a null-prototype,
// sorted, eventually-frozen object exposing one binding per declared
// export. Before Activate, own keys already registered via define are
// readable (subject to each binding's own TDZ) so cyclic importers can
// subscribe early; an unregistered key raises a reference error. After
// Activate, an unregistered key reads as undefined, matching a real
// module namespace exotic object, and no further keys may be defined.
type Namespace struct {
	mu     sync.RWMutex
	active bool
	table  map[string]*binding
}

func newNamespace() *Namespace {
	return &Namespace{table: map[string]*binding{}}
}

// define registers a new own export name. It must not be called after
// Activate.
func (n *Namespace) define(name string, b *binding) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.table[name] = b
}

// Activate freezes the namespace's key set; own keys are fixed from
// this point on, though live bindings continue to update their values.
func (n *Namespace) Activate() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = true
}

func (n *Namespace) hasOwn(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.table[name]
	return ok
}

// Get implements ExportsView: a TDZ violation and an access to an
// unregistered pre-activation key both raise a reference error; an
// unregistered post-activation key returns nil (undefined).
func (n *Namespace) Get(name string) (any, error) {
	n.mu.RLock()
	b, ok := n.table[name]
	active := n.active
	n.mu.RUnlock()
	if !ok {
		if active {
			return nil, nil
		}
		return nil, xerr.ErrReference("module namespace has no export named %q", name)
	}
	return b.get()
}

// Set implements ExportsView for the public, read-only namespace facade:
// every write is rejected, matching non-writable namespace accessors.
func (n *Namespace) Set(name string, _ any) error {
	return xerr.ErrType("cannot assign to read-only module namespace property %q", name)
}

// OwnKeys returns the namespace's own export names in sorted order,
// matching the enumeration order a frozen, null-prototype namespace
// object exposes.
func (n *Namespace) OwnKeys() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	keys := make([]string, 0, len(n.table))
	for k := range n.table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// notifierFor returns the Notify for an own export name, or an error if
// no such export was ever declared — the linkage failure raised when a
// dependency does not provide an export an importer asked for.
func (n *Namespace) notifierFor(name, fromSpecifier string) (Notify, error) {
	n.mu.RLock()
	b, ok := n.table[name]
	n.mu.RUnlock()
	if !ok {
		return nil, xerr.ErrMissingExport(name, fromSpecifier)
	}
	return b.notify, nil
}
