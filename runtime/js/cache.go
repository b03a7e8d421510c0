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

package js

import (
	"context"
	"time"

	"github.com/binaek/compartment/module"
	"github.com/binaek/compartment/perch"
)

// Cache memoizes Analyze by an opaque cache key: a module body is
// parsed and its functor source generated once, regardless of how many
// compartments or aliases end up importing it. Entries never expire —
// eviction is purely capacity-driven LRU. Callers that want edits to
// invalidate stale analysis should fold the source's own content into
// the key (host.FS does, via a content hash); a cache keyed on path
// alone would otherwise serve a stale StaticModuleRecord for the
// lifetime of the process.
type Cache struct {
	perch *perch.Perch[*module.StaticModuleRecord]
}

// NewCache builds an analyzer cache holding up to capacity distinct
// module bodies.
func NewCache(capacity int) *Cache {
	return &Cache{perch: perch.New[*module.StaticModuleRecord](capacity)}
}

// AnalyzeCached returns the StaticModuleRecord for key, analyzing path
// and rawSource only on first use of that key.
func (c *Cache) AnalyzeCached(key, path, rawSource string) (*module.StaticModuleRecord, error) {
	return c.perch.Get(context.Background(), key, time.Duration(1<<62), func(_ context.Context, _ string) (*module.StaticModuleRecord, error) {
		return Analyze(path, rawSource)
	})
}
