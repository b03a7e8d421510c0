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

package cmd

import (
	"context"

	"github.com/binaek/compartment/compartment"
	"github.com/binaek/compartment/config"
	"github.com/binaek/compartment/host"
	"github.com/binaek/compartment/runtime"
)

// buildResult bundles the pieces a command needs to drive a project's
// compartment: the project file itself (for its Entry/Name), the
// compartment, and the evaluator so the caller can Close its runtime
// pool on exit.
type buildResult struct {
	Project    *config.ProjectFile
	Compartment *compartment.Compartment
	Evaluator  *runtime.Evaluator
}

func buildCompartment(ctx context.Context, location string, poolSize int32, analyzeCacheSize int) (*buildResult, error) {
	project, err := config.Load(ctx, location)
	if err != nil {
		return nil, err
	}

	fs, err := host.NewFS(project.Location, project.ResolvedModuleMap(), analyzeCacheSize)
	if err != nil {
		return nil, err
	}

	evaluator, err := runtime.NewEvaluator(poolSize)
	if err != nil {
		return nil, err
	}

	comp, err := compartment.New(compartment.Options{
		Name:       project.Name,
		Evaluator:  evaluator,
		ResolveHook: fs.ResolveHook,
		ImportHook:  fs.ImportHook,
	})
	if err != nil {
		evaluator.Close()
		return nil, err
	}

	return &buildResult{Project: project, Compartment: comp, Evaluator: evaluator}, nil
}
