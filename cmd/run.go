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
	"encoding/json"
	"fmt"
	"os"

	"github.com/binaek/cling"
)

func addRunCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("run", runCmd).
			WithFlag(cling.
				NewStringCmdInput("project-location").
				WithDefault(".").
				WithDescription("Project directory to load").
				AsFlag(),
			).
			WithFlag(cling.
				NewIntCmdInput("runtime-pool-size").
				WithDefault(4).
				WithDescription("Number of pooled JS runtimes").
				AsFlag(),
			).
			WithFlag(cling.
				NewIntCmdInput("analyze-cache-size").
				WithDefault(512).
				WithDescription("Number of analyzed module bodies to cache").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("output").
				WithDefault("table").
				WithValidator(cling.NewEnumValidator("table", "json")).
				WithDescription("Output format to use. One of: table, json").
				AsFlag(),
			),
	)
}

type runCmdArgs struct {
	ProjectLocation string `cling-name:"project-location"`
	RuntimePoolSize int    `cling-name:"runtime-pool-size"`
	AnalyzeCacheSize int   `cling-name:"analyze-cache-size"`
	Output          string `cling-name:"output"`
}

func runCmd(ctx context.Context, args []string) error {
	input := runCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	built, err := buildCompartment(ctx, input.ProjectLocation, int32(input.RuntimePoolSize), input.AnalyzeCacheSize)
	if err != nil {
		return err
	}
	defer built.Evaluator.Close()

	if built.Project.Entry == "" {
		return fmt.Errorf("project %q declares no entry module", built.Project.Name)
	}

	ns, err := built.Compartment.Import(ctx, built.Project.Entry)
	if err != nil {
		return err
	}

	exports := map[string]any{}
	for _, name := range ns.OwnKeys() {
		v, err := ns.Get(name)
		if err != nil {
			exports[name] = err.Error()
			continue
		}
		exports[name] = v
	}

	switch input.Output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(exports)
	default:
		for name, v := range exports {
			fmt.Printf("%s\t%v\n", name, v)
		}
		return nil
	}
}
