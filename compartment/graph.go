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

package compartment

import (
	"github.com/binaek/compartment/dag"
	"github.com/binaek/compartment/module"
)

// DependencyGraph builds a read-only view of every specifier this
// compartment has discovered so far and the import edges between them.
// It is diagnostics only — the linker tolerates cycles regardless of
// what TopoSort or DetectFirstCycle report here; nothing in the load or
// link path consults this graph.
func (c *Compartment) DependencyGraph() dag.G[module.FullSpecifier] {
	g := dag.New[module.FullSpecifier]()
	for _, spec := range c.pf.Specifiers() {
		g.AddNode(spec)
	}
	for _, spec := range c.pf.Specifiers() {
		rec, ok := c.pf.RecordOf(spec)
		if !ok || rec.IsAlias() {
			continue
		}
		for _, dep := range rec.ResolvedImports {
			if dep == spec {
				continue
			}
			_ = g.AddEdge(spec, dep)
		}
	}
	return g
}

// HasCycle reports whether the discovered graph contains at least one
// import cycle, and the first one DetectFirstCycle finds. It never
// blocks loading or linking — a cyclic graph is fully supported.
func (c *Compartment) HasCycle() (bool, []module.FullSpecifier) {
	cycle := c.DependencyGraph().DetectFirstCycle()
	return len(cycle) > 0, cycle
}
