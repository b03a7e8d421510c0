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

// ImportBinding names one local accessor a module's generated program
// installs for a name it imports from a given specifier.
type ImportBinding struct {
	// ImportName is the name as exported by the dependency: "default",
	// "*" for a namespace import, or a named export.
	ImportName string
	// LocalName is the name the importer's generated program uses when
	// it calls back into the accessor for this binding.
	LocalName string
}

// LiveExport records a local mutable export: the local declared name,
// and whether external writes through the namespace's set trap are
// permitted (true only for third-party, host-provided records — parsed
// ESM exports are never externally settable).
type LiveExport struct {
	LocalName    string
	SetProxyTrap bool
}

// StaticModuleRecord is the immutable description of a module's shape,
// produced once per distinct module body by the loader's import hook
// (directly from a host-native record, or via the runtime/js analyzer
// for parsed ESM source). It is a tagged union of two flavors,
// distinguished by whether ThirdPartyExecute is set:
//
//   - Parsed: Imports/FixedExportMap/LiveExportMap/Reexports describe
//     the module's declarations and FunctorSource holds the generated
//     program text to be evaluated once per instance.
//   - Third-party: Exports lists the externally-provided export names
//     and ThirdPartyExecute is the host function driving them.
type StaticModuleRecord struct {
	// Imports is the set of specifiers this module depends on, as
	// written in source — the union of textual import specifiers and
	// `export *` re-export sources, so the loader discovers and the
	// linker instantiates both uniformly.
	Imports map[string][]ImportBinding
	// FixedExportMap maps an exported name to the local name of a
	// once-initialized (const/class/function) declaration.
	FixedExportMap map[string]string
	// LiveExportMap maps an exported name to its live (let/var) local
	// declaration.
	LiveExportMap map[string]LiveExport
	// Reexports lists, in source order, the specifiers named in an
	// `export * from "..."` clause. Every entry also appears as a key
	// of Imports.
	Reexports []string
	// NamedReexports lists explicit `export { a as b } from "spec"`
	// forwards, which bind a specific export name regardless of what
	// else that specifier exports.
	NamedReexports []NamedReexport
	// FunctorSource is the generated program text for a parsed module.
	// It is evaluated once, lazily, during instance construction.
	FunctorSource string

	// Exports lists the export names of a third-party record.
	Exports []string
	// ThirdPartyExecute drives a third-party module's exports once its
	// imports have been instantiated and executed.
	ThirdPartyExecute ThirdPartyExecuteFunc
}

// NamedReexport is one `export { importName as exportName } from "spec"`
// clause: exportName is forwarded directly to specifier's importName,
// independent of any `export *` merge.
type NamedReexport struct {
	ExportName string
	ImportName string
	Specifier  string
}

// ThirdPartyExecuteFunc is the execution entry point for a host-provided
// module: it receives the mutable exports object to populate, the
// compartment's private fields (for host callbacks that need it), and
// a view of each resolved import's exports.
type ThirdPartyExecuteFunc func(exports ExportsView, pf *PrivateFields, resolvedImports map[string]ExportsView) error

// IsThirdParty reports whether r is the third-party record flavor.
func (r *StaticModuleRecord) IsThirdParty() bool { return r.ThirdPartyExecute != nil }

// ModuleRecord is a StaticModuleRecord resolved into one compartment's
// specifier space: its own full specifier, and every declared import
// specifier mapped to the full specifier it resolves to. A ModuleRecord
// for an aliased module carries no StaticModuleRecord of its own —
// Alias names where to find one instead.
type ModuleRecord struct {
	ModuleSpecifier    FullSpecifier
	StaticModuleRecord *StaticModuleRecord
	ResolvedImports    map[string]FullSpecifier
	Alias              *Alias
}

// IsAlias reports whether this record merely redirects to another
// compartment rather than owning a StaticModuleRecord.
func (r *ModuleRecord) IsAlias() bool { return r.Alias != nil }
