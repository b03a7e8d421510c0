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

type NamespaceTestSuite struct {
	suite.Suite
}

func (s *NamespaceTestSuite) TestUnregisteredKeyBeforeActivateIsReferenceError() {
	ns := newNamespace()
	_, err := ns.Get("missing")
	s.Error(err)
	s.Contains(err.Error(), "ReferenceError")
}

func (s *NamespaceTestSuite) TestUnregisteredKeyAfterActivateIsUndefined() {
	ns := newNamespace()
	ns.Activate()
	v, err := ns.Get("missing")
	s.NoError(err)
	s.Nil(v)
}

func (s *NamespaceTestSuite) TestRegisteredKeyHonorsOwnTDZ() {
	ns := newNamespace()
	b := newBinding("x", false, false)
	ns.define("x", b)

	_, err := ns.Get("x")
	s.Error(err, "registering an export name early does not itself settle the binding")

	b.init(42)
	v, err := ns.Get("x")
	s.NoError(err)
	s.Equal(42, v)
}

func (s *NamespaceTestSuite) TestSetAlwaysRejected() {
	ns := newNamespace()
	b := newBinding("x", true, true)
	ns.define("x", b)
	b.init(1)

	err := ns.Set("x", 2)
	s.Error(err)
	s.Contains(err.Error(), "TypeError")
	// The underlying live+proxied binding is untouched by the public
	// namespace facade's rejection.
	v, _ := ns.Get("x")
	s.Equal(1, v)
}

func (s *NamespaceTestSuite) TestOwnKeysSorted() {
	ns := newNamespace()
	ns.define("zebra", newBinding("zebra", false, false))
	ns.define("alpha", newBinding("alpha", false, false))
	ns.define("mid", newBinding("mid", false, false))

	s.Equal([]string{"alpha", "mid", "zebra"}, ns.OwnKeys())
}

func (s *NamespaceTestSuite) TestNotifierForMissingExportIsSyntaxError() {
	ns := newNamespace()
	_, err := ns.notifierFor("missing", "./b.js")
	s.Error(err)
	s.Contains(err.Error(), "SyntaxError")
	s.Contains(err.Error(), "missing")
	s.Contains(err.Error(), "./b.js")
}

func (s *NamespaceTestSuite) TestNotifierForDeliversLiveUpdates() {
	ns := newNamespace()
	b := newBinding("count", true, false)
	ns.define("count", b)

	notify, err := ns.notifierFor("count", "./a.js")
	s.NoError(err)

	var seen []any
	notify(func(v any) { seen = append(seen, v) })
	b.update(1)
	b.update(2)
	s.Equal([]any{1, 2}, seen)
}

func (s *NamespaceTestSuite) TestHasOwn() {
	ns := newNamespace()
	s.False(ns.hasOwn("x"))
	ns.define("x", newBinding("x", false, false))
	s.True(ns.hasOwn("x"))
}

func TestNamespaceTestSuite(t *testing.T) {
	suite.Run(t, new(NamespaceTestSuite))
}
