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

// Package runtime is the goja-backed realization of module.Evaluator
// and module.Functor: the only place in this repository that imports a
// concrete scripting engine. A pool of *goja.Runtime instances (goja
// runtimes are not goroutine-safe) backs every Evaluate call; a call
// that evaluates to a callable value checks out a runtime for the rest
// of that module's lifetime and returns it to the pool once the
// functor has run to completion.
package runtime

import (
	"context"

	"github.com/dop251/goja"
	"github.com/jackc/puddle/v2"

	"github.com/binaek/compartment/module"
	"github.com/binaek/compartment/xerr"
)

// Evaluator is the goja-backed module.Evaluator.
type Evaluator struct {
	pool *puddle.Pool[*goja.Runtime]
}

// NewEvaluator builds an Evaluator whose runtime pool grows lazily up
// to poolMaxSize concurrently in-use runtimes.
func NewEvaluator(poolMaxSize int32) (*Evaluator, error) {
	pool, err := puddle.NewPool(&puddle.Config[*goja.Runtime]{
		Constructor: func(context.Context) (*goja.Runtime, error) {
			return goja.New(), nil
		},
		Destructor: func(rt *goja.Runtime) {
			rt.ClearInterrupt()
		},
		MaxSize: poolMaxSize,
	})
	if err != nil {
		return nil, err
	}
	return &Evaluator{pool: pool}, nil
}

// Evaluate runs source in a pooled runtime with GlobalLexicals and
// ModuleShimLexicals installed as plain global bindings. If the result
// is callable, Evaluate hands the caller a module.Functor that owns the
// runtime until Run completes; otherwise the runtime is released
// immediately and the exported Go value is returned.
func (e *Evaluator) Evaluate(source string, opts module.EvaluateOptions) (any, error) {
	res, err := e.pool.Acquire(context.Background())
	if err != nil {
		return nil, err
	}
	rt := res.Value()

	for name, v := range opts.GlobalLexicals {
		if err := rt.Set(name, v); err != nil {
			res.Release()
			return nil, xerr.ErrType("installing global lexical %q: %s", name, err)
		}
	}
	for name, v := range opts.ModuleShimLexicals {
		if err := rt.Set(name, v); err != nil {
			res.Release()
			return nil, xerr.ErrType("installing module shim lexical %q: %s", name, err)
		}
	}

	val, err := rt.RunString(source)
	if err != nil {
		res.Release()
		return nil, err
	}

	if callable, ok := goja.AssertFunction(val); ok {
		return &gojaFunctor{rt: rt, res: res, callable: callable}, nil
	}

	exported := val.Export()
	res.Release()
	return exported, nil
}

// Close drains the underlying pool. Call it once, at process shutdown.
func (e *Evaluator) Close() { e.pool.Close() }
