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

// Package compartment is the public entry point: it wires a
// Compartment's hooks and evaluator into a module.PrivateFields and
// exposes the load/import/importNow/module surface, delegating graph
// discovery to loader and instantiation to linker.
package compartment

import (
	"context"
	"log/slog"
	"regexp"

	"go.opentelemetry.io/otel"

	"github.com/binaek/compartment/linker"
	"github.com/binaek/compartment/loader"
	"github.com/binaek/compartment/module"
	"github.com/binaek/compartment/xerr"
)

// reValidLexicalName matches a valid JS identifier: the shape
// GlobalLexicals keys must have, since they become global bindings
// inside an evaluated module body.
var reValidLexicalName = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

var tracer = otel.Tracer("github.com/binaek/compartment/compartment")

// Options configures a new Compartment. ResolveHook and ImportHook are
// required; ModuleMapHook and ModuleMap are both optional and, if both
// given, ModuleMap is consulted first and ModuleMapHook only for a
// specifier the map does not name.
type Options struct {
	Name string

	Evaluator      module.Evaluator
	GlobalLexicals map[string]any

	ResolveHook   module.ResolveHook
	ImportHook    module.ImportHook
	ModuleMapHook module.ModuleMapHook
	ModuleMap     map[string]module.Alias

	Aliases *module.AliasRegistry
}

// Compartment is a confined execution boundary over one evaluator and
// one set of resolution hooks: a cache of discovered module records, a
// cache of instantiated module instances, and the deferred-exports
// namespace every loaded specifier eventually gets.
type Compartment struct {
	pf *module.PrivateFields
}

// New validates opts and constructs a Compartment. It never performs
// I/O — discovery only begins on the first Load/Import/ImportNow call.
func New(opts Options) (*Compartment, error) {
	if opts.Name == "" {
		return nil, xerr.ErrType("compartment name must not be empty")
	}
	if opts.Evaluator == nil {
		return nil, xerr.ErrType("compartment %q: an Evaluator is required", opts.Name)
	}
	if opts.ResolveHook == nil {
		return nil, xerr.ErrType("compartment %q: a ResolveHook is required", opts.Name)
	}
	if opts.ImportHook == nil {
		return nil, xerr.ErrType("compartment %q: an ImportHook is required", opts.Name)
	}
	for name := range opts.GlobalLexicals {
		if !reValidLexicalName.MatchString(name) {
			return nil, xerr.ErrType("compartment %q: global lexical name %q is not a valid identifier", opts.Name, name)
		}
	}

	// Freeze a shallow copy so a caller mutating the map it passed in
	// after New returns can never reach back into the compartment.
	globalLexicals := make(map[string]any, len(opts.GlobalLexicals))
	for name, v := range opts.GlobalLexicals {
		globalLexicals[name] = v
	}

	moduleMapHook := opts.ModuleMapHook
	if len(opts.ModuleMap) > 0 {
		staticMap := opts.ModuleMap
		fallback := opts.ModuleMapHook
		moduleMapHook = func(full module.FullSpecifier) (*module.Alias, error) {
			if a, ok := staticMap[string(full)]; ok {
				return &a, nil
			}
			if fallback != nil {
				return fallback(full)
			}
			return nil, nil
		}
	}

	pf := module.NewPrivateFields(opts.Name, opts.Evaluator, globalLexicals, opts.ResolveHook, opts.ImportHook, moduleMapHook, opts.Aliases)
	return &Compartment{pf: pf}, nil
}

// Name returns the compartment's diagnostic name.
func (c *Compartment) Name() string { return c.pf.Name }

// PrivateFields exposes the compartment's internal state for packages
// that legitimately need it (a foreign compartment's module-map hook
// building an Alias that points here, or test harnesses asserting on
// graph shape). Ordinary callers use Load/Import/ImportNow/Module.
func (c *Compartment) PrivateFields() *module.PrivateFields { return c.pf }

// Load discovers specifier's full transitive module graph without
// instantiating or executing any of it.
func (c *Compartment) Load(ctx context.Context, specifier string) (module.FullSpecifier, error) {
	ctx, span := tracer.Start(ctx, "compartment.load")
	defer span.End()
	slog.DebugContext(ctx, "load start", slog.String("compartment", c.pf.Name), slog.String("specifier", specifier))
	full, err := loader.Load(ctx, c.pf, specifier, "")
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "load failed", slog.String("compartment", c.pf.Name), slog.String("specifier", specifier), slog.Any("error", err))
		return "", err
	}
	slog.DebugContext(ctx, "load end", slog.String("compartment", c.pf.Name), slog.String("full", string(full)))
	return full, nil
}

// Import loads, links, and executes specifier, returning its namespace.
func (c *Compartment) Import(ctx context.Context, specifier string) (*module.Namespace, error) {
	full, err := c.Load(ctx, specifier)
	if err != nil {
		return nil, err
	}
	return c.linkAndExecute(ctx, full)
}

// ImportNow is Import's synchronous counterpart: it requires every hook
// the compartment was constructed with to behave synchronously, since
// it performs loading, linking, and execution on the calling goroutine
// with no concurrency fan-out.
func (c *Compartment) ImportNow(specifier string) (*module.Namespace, error) {
	ctx := context.Background()
	ctx, span := tracer.Start(ctx, "compartment.load")
	slog.DebugContext(ctx, "load start", slog.String("compartment", c.pf.Name), slog.String("specifier", specifier))
	full, err := loader.LoadSync(ctx, c.pf, specifier, "")
	span.End()
	if err != nil {
		slog.ErrorContext(ctx, "load failed", slog.String("compartment", c.pf.Name), slog.String("specifier", specifier), slog.Any("error", err))
		return nil, err
	}
	slog.DebugContext(ctx, "load end", slog.String("compartment", c.pf.Name), slog.String("full", string(full)))
	return c.linkAndExecute(ctx, full)
}

func (c *Compartment) linkAndExecute(ctx context.Context, full module.FullSpecifier) (*module.Namespace, error) {
	_, linkSpan := tracer.Start(ctx, "compartment.link")
	mi, err := linker.Link(c.pf, full)
	if err != nil {
		linkSpan.RecordError(err)
		linkSpan.End()
		slog.ErrorContext(ctx, "link failed", slog.String("compartment", c.pf.Name), slog.String("full", string(full)), slog.Any("error", err))
		return nil, err
	}
	linkSpan.End()

	_, execSpan := tracer.Start(ctx, "compartment.execute")
	err = mi.Execute()
	if err != nil {
		execSpan.RecordError(err)
		execSpan.End()
		slog.ErrorContext(ctx, "execute failed (sticky)", slog.String("compartment", c.pf.Name), slog.String("full", string(full)), slog.Any("error", err))
		return nil, err
	}
	execSpan.End()
	return mi.Namespace(), nil
}

// Module returns full's deferred-exports namespace without running its
// body — building the (possibly still-empty) namespace entry on first
// access, exactly as a cyclic importer's early subscription does.
func (c *Compartment) Module(full module.FullSpecifier) *module.Namespace {
	return c.pf.GetDeferredExports(full).Namespace
}

// Evaluate runs the compartment's evaluator directly, for host code
// that wants compartment.evaluate(source, options) without going
// through the module system at all. GlobalLexicals defaults to the
// compartment's own if opts leaves it nil.
func (c *Compartment) Evaluate(source string, opts module.EvaluateOptions) (any, error) {
	if opts.GlobalLexicals == nil {
		opts.GlobalLexicals = c.pf.GlobalLexicals
	}
	return c.pf.Evaluator.Evaluate(source, opts)
}
