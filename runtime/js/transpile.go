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

// Package js turns ESM source text into a module.StaticModuleRecord:
// esbuild strips TypeScript types and normalizes syntax down to plain
// ES2019 while preserving import/export statements verbatim (esbuild
// is not asked to rewrite them into require/module.exports), and a
// lightweight analyzer — not a full parser, see staticrecord.go's doc
// comment for its known limitations — reads the surviving
// import/export clauses to build the record and rewrite the body into
// the onceVar/liveVar/imports functor protocol
// module.BuildParsedInstance expects.
package js

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

func isTypeScript(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return true
	default:
		return false
	}
}

// Normalize strips types (if path looks like TypeScript) and syntax-
// lowers source to ES2019, keeping ESM import/export statements intact
// so the analyzer that runs next can still find them.
func Normalize(path, source string) (string, error) {
	loader := api.LoaderJS
	if isTypeScript(path) {
		loader = api.LoaderTS
	}

	res := api.Transform(source, api.TransformOptions{
		Loader:            loader,
		Target:            api.ES2019,
		Format:            api.FormatESModule,
		Platform:          api.PlatformDefault,
		Sourcemap:         api.SourceMapNone,
		LegalComments:     api.LegalCommentsNone,
		MinifyWhitespace:  false,
		MinifyIdentifiers: false,
		MinifySyntax:      false,
		KeepNames:         true,
		SourcesContent:    api.SourcesContentExclude,
		Charset:           api.CharsetUTF8,
	})
	if len(res.Errors) > 0 {
		return "", fmt.Errorf("esbuild: %s", res.Errors[0].Text)
	}
	return string(res.Code), nil
}
