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

// Package config reads a project's compartment.toml: the entry module,
// the bare-specifier module map, and the filesystem read permissions
// the project declares.
package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/binaek/compartment/constants"
)

var (
	ErrProjectFileNotFound   = errors.New("project file not found")
	ErrProjectFileLoadFailed = errors.New("project file load failed")
)

// ProjectFile is the compartment.toml schema: what a project names
// itself, which file it runs first, the module map bare specifiers
// resolve through, and the permissions bounding its host hooks.
type ProjectFile struct {
	SchemaVersion string            `toml:"schema_version"`
	Name          string            `toml:"name"`
	Version       string            `toml:"version,omitempty"`
	Description   string            `toml:"description,omitempty"`
	License       string            `toml:"license,omitempty"`
	Repository    string            `toml:"repository,omitempty"`
	Engines       Engines           `toml:"engines"`
	Entry         string            `toml:"entry"`
	ModuleMap     map[string]string `toml:"module_map,omitempty"`
	Permissions   Permissions       `toml:"permissions"`
	Metadata      map[string]any    `toml:"metadata,omitempty"`

	// Location is the directory the project file was found in, not
	// part of the TOML schema itself — every relative path in the file
	// (Entry, Permissions.FSRead, module_map targets) is resolved
	// against it.
	Location string `toml:"-"`
}

// Engines pins the compartment runtime version a project was authored
// against.
type Engines struct {
	Compartment string `toml:"compartment"`
}

// Permissions declares which directories a project's host hooks may
// read. FSRead lists directories (relative to Location unless absolute);
// an empty list means Location itself is the only readable root (see
// AllowedRoots). They are not enforced: host.FS resolves and reads
// files without consulting Permissions or AllowedRoots.
type Permissions struct {
	FSRead []string `toml:"fs_read,omitempty"`
}

// Load locates and parses the compartment.toml governing root — root
// itself if it names the file directly, the nearest compartment.toml
// in root or an ancestor directory otherwise.
func Load(ctx context.Context, root string) (_ *ProjectFile, e error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	projectPath, err := locateProjectFile(ctx, root)
	if err != nil {
		return nil, errors.Wrap(err, "locate project file")
	}

	b, err := os.ReadFile(projectPath)
	if err != nil {
		return nil, errors.Wrap(err, "read project file")
	}
	var p ProjectFile
	if err := toml.Unmarshal(b, &p); err != nil {
		return nil, errors.Wrap(err, "parse project file failed")
	}

	p.Location = filepath.Dir(projectPath)
	return &p, nil
}

// AllowedRoots resolves Permissions.FSRead into absolute directories, defaulting
// to just Location when the project declares no explicit fs_read list.
func (p *ProjectFile) AllowedRoots() []string {
	if len(p.Permissions.FSRead) == 0 {
		return []string{p.Location}
	}
	out := make([]string, 0, len(p.Permissions.FSRead))
	for _, dir := range p.Permissions.FSRead {
		if filepath.IsAbs(dir) {
			out = append(out, filepath.Clean(dir))
			continue
		}
		out = append(out, filepath.Clean(filepath.Join(p.Location, dir)))
	}
	return out
}

// ResolvedModuleMap resolves every module_map target relative to
// Location, into absolute filesystem paths suitable for host.FS.
func (p *ProjectFile) ResolvedModuleMap() map[string]string {
	out := make(map[string]string, len(p.ModuleMap))
	for specifier, target := range p.ModuleMap {
		if filepath.IsAbs(target) {
			out[specifier] = filepath.Clean(target)
			continue
		}
		out[specifier] = filepath.Clean(filepath.Join(p.Location, target))
	}
	return out
}

func locateProjectFile(ctx context.Context, root string) (string, error) {
	if root == "/" {
		return "", errors.New("cannot search from filesystem root")
	}
	if len(strings.TrimSpace(root)) == 0 {
		return "", errors.New("root is empty")
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(err, "failed to get absolute path to root")
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", errors.Wrap(err, "failed to locate project file")
	}

	if info.Name() == constants.ProjectFileName {
		return root, nil
	}
	if !info.IsDir() {
		root = filepath.Dir(root)
	}

	if _, err := os.Stat(filepath.Join(root, constants.ProjectFileName)); err == nil {
		return filepath.Join(root, constants.ProjectFileName), nil
	}

	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		next := filepath.Dir(root)
		if next == root || (runtime.GOOS == "windows" && strings.HasSuffix(next, `:\`)) {
			break
		}
		root = next
		if _, err := os.Stat(filepath.Join(root, constants.ProjectFileName)); err == nil {
			return filepath.Join(root, constants.ProjectFileName), nil
		}
		if root == "/" {
			break
		}
	}

	return "", ErrProjectFileNotFound
}
