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
	"testing"

	"github.com/stretchr/testify/suite"
)

type DeferredTestSuite struct {
	suite.Suite
}

func (s *DeferredTestSuite) TestGetDeferredExportsIsStableAcrossCalls() {
	pf := NewPrivateFields("test", nil, nil, nil, nil, nil, nil)

	first := pf.GetDeferredExports("./a.js")
	second := pf.GetDeferredExports("./a.js")
	s.Same(first, second)

	other := pf.GetDeferredExports("./b.js")
	s.NotSame(first, other)
}

func (s *DeferredTestSuite) TestActivateIsIdempotent() {
	entry := newDeferredEntry()
	entry.Namespace.define("x", newBinding("x", false, false))

	entry.Activate()
	s.True(entry.Namespace.active)

	// Repeat activation (a cyclic importer racing the owning execute)
	// must not panic or otherwise misbehave.
	entry.Activate()
	s.True(entry.Namespace.active)
}

func (s *DeferredTestSuite) TestNamespaceUsableBeforeActivate() {
	pf := NewPrivateFields("test", nil, nil, nil, nil, nil, nil)
	entry := pf.GetDeferredExports("./a.js")

	b := newBinding("value", false, false)
	entry.Namespace.define("value", b)

	// A cyclic importer can subscribe before the owning module has run.
	notify, err := entry.Namespace.notifierFor("value", "./a.js")
	s.NoError(err)

	var got any
	notify(func(v any) { got = v })
	s.Nil(got)

	b.init("ready")
	s.Equal("ready", got)
}

func TestDeferredTestSuite(t *testing.T) {
	suite.Run(t, new(DeferredTestSuite))
}
