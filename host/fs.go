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

// Package host wires a compartment's resolveHook/importHook to the
// local filesystem: specifiers are paths (bare specifiers are looked up
// against a project's configured module map first), source files are
// read, normalized and statically analyzed through runtime/js, and the
// resulting records are cached by path plus content hash so an
// unchanged file shared by many importers is not re-analyzed while its
// cache entry lives.
package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"

	"github.com/binaek/compartment/module"
	"github.com/binaek/compartment/runtime/js"
)

var scriptExtensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".mjs", ".jsx"}

// FS is a filesystem-backed module source: Root (a project's package
// root) is the base for module-map targets and for imports with no
// referrer, ModuleMap aliases bare specifiers ("@scope/name") to a
// file path (relative targets are taken against Root), and Cache
// memoizes analyzed module bodies across every compartment built
// against this FS. Relative specifiers resolve against the referrer's
// directory and are not confined to Root.
type FS struct {
	Root      string
	ModuleMap map[string]string
	Cache     *js.Cache
}

// NewFS builds a filesystem module source rooted at root, with its own
// analyzer cache of the given capacity.
func NewFS(root string, moduleMap map[string]string, cacheCapacity int) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolve package root")
	}
	if moduleMap == nil {
		moduleMap = map[string]string{}
	}
	return &FS{Root: abs, ModuleMap: moduleMap, Cache: js.NewCache(cacheCapacity)}, nil
}

// ResolveHook implements module.ResolveHook: bare specifiers are looked
// up in ModuleMap first; everything else is resolved relative to the
// referrer's own directory (or Root, for an entry-point import with no
// referrer), with a script extension appended when the specifier omits
// one.
func (fs *FS) ResolveHook(importSpecifier string, referrer module.FullSpecifier) (module.FullSpecifier, error) {
	if mapped, ok := fs.ModuleMap[importSpecifier]; ok {
		return fs.resolvePath(mapped, fs.Root)
	}
	if !strings.HasPrefix(importSpecifier, ".") && !strings.HasPrefix(importSpecifier, "/") {
		return "", errors.Errorf("bare specifier %q is not in the module map", importSpecifier)
	}
	fromDir := fs.Root
	if referrer != "" {
		fromDir = filepath.Dir(string(referrer))
	}
	return fs.resolvePath(importSpecifier, fromDir)
}

func (fs *FS) resolvePath(specifier, fromDir string) (module.FullSpecifier, error) {
	path := specifier
	if !filepath.IsAbs(path) {
		path = filepath.Join(fromDir, specifier)
	}
	path = filepath.Clean(path)
	if filepath.Ext(path) == "" {
		found := false
		for _, ext := range scriptExtensions {
			if _, err := os.Stat(path + ext); err == nil {
				path = path + ext
				found = true
				break
			}
		}
		if !found {
			return "", errors.Errorf("no module file found for %q (tried extensions %v)", specifier, scriptExtensions)
		}
	}
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrapf(err, "resolve %q", specifier)
	}
	return module.FullSpecifier(path), nil
}

// ImportHook implements module.ImportHook: reads the file named by
// full, normalizes it to plain ESM via esbuild, and statically analyzes
// it into a StaticModuleRecord, caching the result by path. The
// returned specifier is always full itself — this source never
// redirects a file to a different canonical path.
func (fs *FS) ImportHook(ctx context.Context, full module.FullSpecifier) (*module.StaticModuleRecord, module.FullSpecifier, error) {
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	raw, err := os.ReadFile(string(full))
	if err != nil {
		return nil, "", errors.Wrapf(err, "read module %q", full)
	}
	sr, err := fs.Cache.AnalyzeCached(cacheKey(string(full), raw), string(full), string(raw))
	if err != nil {
		return nil, "", fmt.Errorf("analyze %q: %w", full, err)
	}
	return sr, full, nil
}

// cacheKey folds the file's own content into its cache key, via
// hashstructure, so an edited file on disk invalidates its prior
// analysis instead of serving a stale StaticModuleRecord for the
// lifetime of the process.
func cacheKey(path string, raw []byte) string {
	h, err := hashstructure.Hash(raw, hashstructure.FormatV2, nil)
	if err != nil {
		return path
	}
	return fmt.Sprintf("%s#%x", path, h)
}
