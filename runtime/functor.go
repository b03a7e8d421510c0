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

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/jackc/puddle/v2"

	"github.com/binaek/compartment/module"
)

// gojaFunctor adapts a goja callable — the value produced by evaluating
// a module's generated program source — into module.Functor. The
// generated program is expected to be a function of the shape
// `function(__imports__, __imp__, __onceVar__, __liveVar__) { ... }`,
// matching what runtime/js's analyzer emits: the first statement of its
// body calls __imports__ once with the module's import-usage map, the
// rest of the body runs as translated source that reads each imported
// binding through __imp__(specifier, name), and after the body has run
// it calls __onceVar__.name(value)/__liveVar__.name(value) once for
// each local export.
type gojaFunctor struct {
	rt       *goja.Runtime
	res      *puddle.Resource[*goja.Runtime]
	callable goja.Callable
}

func (f *gojaFunctor) Run(imports module.ImportsFn, read module.ImportRead, onceVar, liveVar module.BindingTable) error {
	defer f.res.Release()
	rt := f.rt

	importsVal := rt.ToValue(func(call goja.FunctionCall) goja.Value {
		updateRecord := exportUpdateRecord(call.Argument(0))
		if err := imports(updateRecord); err != nil {
			panic(rt.NewGoError(err))
		}
		return goja.Undefined()
	})

	readVal := rt.ToValue(func(call goja.FunctionCall) goja.Value {
		spec := call.Argument(0).String()
		name := call.Argument(1).String()
		v, err := read(spec, name)
		if err != nil {
			panic(rt.NewGoError(err))
		}
		if ns, ok := v.(namespaceView); ok {
			return NewNamespaceValue(rt, ns)
		}
		return rt.ToValue(v)
	})

	_, err := f.callable(goja.Undefined(), importsVal, readVal, bindingTableObject(rt, onceVar), bindingTableObject(rt, liveVar))
	if err != nil {
		return unwrapGojaError(err)
	}
	return nil
}

func exportUpdateRecord(v goja.Value) map[string][]string {
	updateRecord := map[string][]string{}
	raw, ok := v.Export().(map[string]interface{})
	if !ok {
		return updateRecord
	}
	for spec, namesRaw := range raw {
		namesSlice, _ := namesRaw.([]interface{})
		names := make([]string, 0, len(namesSlice))
		for _, n := range namesSlice {
			if s, ok := n.(string); ok {
				names = append(names, s)
			}
		}
		updateRecord[spec] = names
	}
	return updateRecord
}

func bindingTableObject(rt *goja.Runtime, table module.BindingTable) goja.Value {
	obj := rt.NewObject()
	for name, sink := range table {
		sink := sink
		_ = obj.Set(name, func(call goja.FunctionCall) goja.Value {
			sink(call.Argument(0).Export())
			return goja.Undefined()
		})
	}
	return obj
}

func unwrapGojaError(err error) error {
	if gojaErr, ok := err.(*goja.Exception); ok {
		return fmt.Errorf("%v", gojaErr.Value().Export())
	}
	return err
}
