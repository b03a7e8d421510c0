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
	"fmt"
	"sync"

	"github.com/binaek/compartment/xerr"
)

// Notify subscribes an updater to a binding. If the binding has already
// left its temporal dead zone, update is invoked synchronously with the
// current value before Notify returns; otherwise it is invoked the
// moment the binding first initializes.
type Notify func(update func(value any))

// binding is the single record type backing every export, import-facing
// proxy, and re-export forward in the loader/linker: a name that starts
// in its temporal dead zone, transitions to a value exactly once (fixed)
// or repeatedly (live), and fans that value out to every subscriber.
type binding struct {
	mu           sync.Mutex
	name         string
	tdz          bool
	value        any
	updaters     []func(any)
	isLive       bool
	setProxyTrap bool
}

func newBinding(name string, isLive, setProxyTrap bool) *binding {
	return &binding{name: name, tdz: true, isLive: isLive, setProxyTrap: setProxyTrap}
}

func (b *binding) get() (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tdz {
		return nil, xerr.ErrReference("cannot access %q before initialization", b.name)
	}
	return b.value, nil
}

// init resolves a fixed binding's one and only value.
func (b *binding) init(v any) {
	b.mu.Lock()
	b.tdz = false
	b.value = v
	updaters := append([]func(any){}, b.updaters...)
	b.mu.Unlock()
	for _, u := range updaters {
		u(v)
	}
}

// update resolves or reassigns a live binding; it is also how a forward
// (import-facing or re-export) proxy binding absorbs its source's
// current value.
func (b *binding) update(v any) {
	b.mu.Lock()
	b.tdz = false
	b.value = v
	updaters := append([]func(any){}, b.updaters...)
	b.mu.Unlock()
	for _, u := range updaters {
		u(v)
	}
}

// set is the external write path used by a namespace's (or third-party
// exports object's) set trap. Fixed bindings and bindings without an
// explicit set-proxy trap reject it.
func (b *binding) set(v any) error {
	if !b.isLive || !b.setProxyTrap {
		return xerr.ErrType("cannot assign to read-only binding %q", b.name)
	}
	b.update(v)
	return nil
}

// notify registers update as a subscriber, firing it immediately with
// the current value if the binding is already initialized.
func (b *binding) notify(update func(any)) {
	b.mu.Lock()
	tdz := b.tdz
	val := b.value
	b.updaters = append(b.updaters, update)
	b.mu.Unlock()
	if !tdz {
		update(val)
	}
}

func (b *binding) String() string {
	return fmt.Sprintf("binding(%s)", b.name)
}
