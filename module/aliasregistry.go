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

// AliasRegistry is the process-scoped association between a namespace
// object and the (compartment, specifier) pair it was minted for. Spec
// describes this as a weak map so a namespace can be handed across
// compartment boundaries and still be traced back to its origin without
// either side holding a strong reference cycle; Go has no
// GC-introspectable weak map, so this approximates it with a plain,
// mutex-guarded map. The entries are cheap (one per module ever
// instantiated process-wide) and never removed, which is an accepted
// trade of memory for simplicity.
type AliasRegistry struct {
	mu  sync.Mutex
	byNamespace map[*Namespace]aliasTarget
}

type aliasTarget struct {
	Compartment *PrivateFields
	Specifier   FullSpecifier
}

// NewAliasRegistry constructs an isolated registry. Production code
// shares one process-wide instance (DefaultAliasRegistry); tests that
// need isolation from other tests construct their own.
func NewAliasRegistry() *AliasRegistry {
	return &AliasRegistry{byNamespace: map[*Namespace]aliasTarget{}}
}

// DefaultAliasRegistry is the process-wide registry compartments use
// unless constructed with an explicit override.
var DefaultAliasRegistry = NewAliasRegistry()

// Register associates ns with the compartment and specifier it belongs
// to. Safe to call more than once for the same namespace.
func (r *AliasRegistry) Register(ns *Namespace, pf *PrivateFields, spec FullSpecifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byNamespace[ns] = aliasTarget{Compartment: pf, Specifier: spec}
}

// Lookup reverses Register: given a namespace obtained from any
// compartment, find where it actually lives.
func (r *AliasRegistry) Lookup(ns *Namespace) (*PrivateFields, FullSpecifier, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byNamespace[ns]
	return t.Compartment, t.Specifier, ok
}
