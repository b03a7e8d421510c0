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

package runtime

import "github.com/dop251/goja"

// namespaceObject backs a module.Namespace with goja.DynamicObject so
// that JS code evaluated inside a compartment can be handed a module's
// namespace as a real, null-prototype, ordered, read-only object — the
// host-language realization of the namespace-exotic object ECMA-262
// describes for a module's external representation. Every property
// read goes through the underlying Namespace, so TDZ, post-activation
// undefined-for-unknown-key, and sorted enumeration all come for free.
type namespaceObject struct {
	rt *goja.Runtime
	ns namespaceView
}

// namespaceView is the subset of *module.Namespace this package needs,
// expressed locally so runtime need not import module's unexported
// binding machinery — module.Namespace satisfies it directly.
type namespaceView interface {
	Get(name string) (any, error)
	Set(name string, value any) error
	OwnKeys() []string
}

// NewNamespaceValue wraps ns as a goja object suitable for exposing to
// evaluated JS — e.g. as a global lexical naming a dependency's
// namespace, or as the value handed back from a dynamic import.
func NewNamespaceValue(rt *goja.Runtime, ns namespaceView) goja.Value {
	obj := rt.NewDynamicObject(&namespaceObject{rt: rt, ns: ns})
	_ = obj.SetPrototype(nil)
	return obj
}

func (n *namespaceObject) Get(key string) goja.Value {
	v, err := n.ns.Get(key)
	if err != nil {
		panic(n.rt.NewGoError(err))
	}
	if v == nil {
		return goja.Undefined()
	}
	return n.rt.ToValue(v)
}

func (n *namespaceObject) Set(key string, _ goja.Value) bool {
	// Namespace objects are read-only: every external write is
	// rejected by throwing a TypeError, in sloppy and strict code alike.
	panic(n.rt.NewTypeError("cannot assign to read-only module namespace property %q", key))
}

func (n *namespaceObject) Has(key string) bool {
	for _, k := range n.ns.OwnKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func (n *namespaceObject) Delete(key string) bool { return false }

func (n *namespaceObject) Keys() []string { return n.ns.OwnKeys() }
