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

package linker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/binaek/compartment/loader"
	"github.com/binaek/compartment/module"
)

type LinkerTestSuite struct {
	suite.Suite
}

// thirdPartyRecord builds a bare third-party StaticModuleRecord; callers
// that need declared imports set the Imports field afterward, since the
// loader derives ModuleRecord.ResolvedImports from it.
func thirdPartyRecord(exports []string, execute module.ThirdPartyExecuteFunc) *module.StaticModuleRecord {
	return &module.StaticModuleRecord{Exports: exports, ThirdPartyExecute: execute}
}

// staticHook builds a ResolveHook/ImportHook pair over an in-memory
// table of pre-built StaticModuleRecords, keyed by full specifier.
type staticHook map[module.FullSpecifier]*module.StaticModuleRecord

func (h staticHook) resolveHook() module.ResolveHook {
	return func(importSpecifier string, _ module.FullSpecifier) (module.FullSpecifier, error) {
		return module.FullSpecifier(importSpecifier), nil
	}
}

func (h staticHook) importHook() module.ImportHook {
	return func(_ context.Context, full module.FullSpecifier) (*module.StaticModuleRecord, module.FullSpecifier, error) {
		return h[full], full, nil
	}
}

func (s *LinkerTestSuite) buildPF(h staticHook) *module.PrivateFields {
	return module.NewPrivateFields("test", nil, nil, h.resolveHook(), h.importHook(), nil, nil)
}

func (s *LinkerTestSuite) TestLinkCachesInstance() {
	h := staticHook{
		"./a.js": thirdPartyRecord([]string{"x"}, func(exports module.ExportsView, _ *module.PrivateFields, _ map[string]module.ExportsView) error {
			return exports.Set("x", 1)
		}),
	}
	pf := s.buildPF(h)
	_, err := loader.Load(context.Background(), pf, "./a.js", "")
	s.Require().NoError(err)

	mi1, err := Link(pf, "./a.js")
	s.Require().NoError(err)
	mi2, err := Link(pf, "./a.js")
	s.Require().NoError(err)
	s.Same(mi1, mi2, "linking the same specifier twice must return the cached instance")
}

func (s *LinkerTestSuite) TestLinkOnUnloadedSpecifierIsNotFound() {
	pf := s.buildPF(staticHook{})
	_, err := Link(pf, "./never-loaded.js")
	s.Error(err)
}

func (s *LinkerTestSuite) TestLinkFollowsAlias() {
	foreignHook := staticHook{
		"./real.js": thirdPartyRecord([]string{"value"}, func(exports module.ExportsView, _ *module.PrivateFields, _ map[string]module.ExportsView) error {
			return exports.Set("value", 42)
		}),
	}
	foreign := module.NewPrivateFields("foreign", nil, nil, foreignHook.resolveHook(), foreignHook.importHook(), nil, nil)
	_, err := loader.Load(context.Background(), foreign, "./real.js", "")
	s.Require().NoError(err)

	pf := module.NewPrivateFields("host", nil, nil,
		func(importSpecifier string, _ module.FullSpecifier) (module.FullSpecifier, error) {
			return module.FullSpecifier(importSpecifier), nil
		},
		func(_ context.Context, full module.FullSpecifier) (*module.StaticModuleRecord, module.FullSpecifier, error) {
			s.Fail("ImportHook must not be reached for an aliased specifier")
			return nil, "", nil
		},
		func(full module.FullSpecifier) (*module.Alias, error) {
			if full == "./aliased.js" {
				return &module.Alias{Compartment: foreign, Specifier: "./real.js"}, nil
			}
			return nil, nil
		},
		nil,
	)
	_, err = loader.Load(context.Background(), pf, "./aliased.js", "")
	s.Require().NoError(err)

	mi, err := Link(pf, "./aliased.js")
	s.Require().NoError(err)
	s.Require().NoError(mi.Execute())

	v, err := mi.Namespace().Get("value")
	s.NoError(err)
	s.Equal(42, v)
}

func (s *LinkerTestSuite) TestLinkBuildsDiamondOnlyOncePerLeaf() {
	executions := 0
	h := staticHook{
		"./leaf.js": thirdPartyRecord([]string{"entity"}, func(exports module.ExportsView, _ *module.PrivateFields, _ map[string]module.ExportsView) error {
			executions++
			return exports.Set("entity", executions)
		}),
		"./left.js": thirdPartyRecord([]string{"v"}, func(exports module.ExportsView, _ *module.PrivateFields, resolved map[string]module.ExportsView) error {
			v, err := resolved["./leaf.js"].Get("entity")
			if err != nil {
				return err
			}
			return exports.Set("v", v)
		}),
		"./right.js": thirdPartyRecord([]string{"v"}, func(exports module.ExportsView, _ *module.PrivateFields, resolved map[string]module.ExportsView) error {
			v, err := resolved["./leaf.js"].Get("entity")
			if err != nil {
				return err
			}
			return exports.Set("v", v)
		}),
	}
	h["./left.js"].Imports = map[string][]module.ImportBinding{"./leaf.js": {{ImportName: "entity", LocalName: "entity"}}}
	h["./right.js"].Imports = map[string][]module.ImportBinding{"./leaf.js": {{ImportName: "entity", LocalName: "entity"}}}

	pf := s.buildPF(h)
	_, err := loader.Load(context.Background(), pf, "./left.js", "")
	s.Require().NoError(err)
	_, err = loader.Load(context.Background(), pf, "./right.js", "")
	s.Require().NoError(err)

	left, err := Link(pf, "./left.js")
	s.Require().NoError(err)
	right, err := Link(pf, "./right.js")
	s.Require().NoError(err)

	s.Require().NoError(left.Execute())
	s.Require().NoError(right.Execute())

	s.Equal(1, executions, "the shared leaf must execute exactly once across both diamond branches")
}

func TestLinkerTestSuite(t *testing.T) {
	suite.Run(t, new(LinkerTestSuite))
}
