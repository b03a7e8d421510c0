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
	"os"
	"path/filepath"

	"github.com/binaek/cling"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/binaek/compartment/config"
	"github.com/binaek/compartment/constants"
)

func addInitCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("init", initCmd).
			WithFlag(cling.NewStringCmdInput("directory").WithDefault(".").WithDescription("The directory to initialize in MUST be empty.").AsFlag()).
			WithFlag(cling.NewStringCmdInput("entry").WithDefault("./main.mjs").WithDescription("The project's entry module.").AsFlag()).
			WithArgument(cling.NewStringCmdInput("name").WithDescription("The name of the project.").AsArgument()),
	)
}

type initCmdArgs struct {
	Directory string `cling-name:"directory"`
	Entry     string `cling-name:"entry"`
	Name      string `cling-name:"name"`
}

func initCmd(ctx context.Context, args []string) error {
	input := initCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	stat, err := os.Stat(input.Directory)
	if err != nil {
		return err
	}
	if !stat.IsDir() {
		return errors.New("directory is not a directory")
	}

	entries, err := os.ReadDir(input.Directory)
	if err != nil {
		return errors.Wrapf(err, "could not read directory")
	}
	if len(entries) > 0 {
		return errors.New("directory is not empty - please choose a different directory")
	}

	project := config.ProjectFile{
		SchemaVersion: "1",
		Name:          input.Name,
		Version:       "0.1.0",
		Engines:       config.Engines{Compartment: constants.APPVERSION},
		Entry:         input.Entry,
	}

	f, err := os.OpenFile(filepath.Join(input.Directory, constants.ProjectFileName), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "could not create project file")
	}
	defer func() { _ = f.Close() }()

	encoder := toml.NewEncoder(f)
	encoder.SetTablesInline(true)
	if err := encoder.Encode(&project); err != nil {
		return errors.Wrapf(err, "could not encode project file")
	}

	entryPath := filepath.Join(input.Directory, input.Entry)
	if err := os.MkdirAll(filepath.Dir(entryPath), 0755); err != nil {
		return errors.Wrapf(err, "could not create entry directory")
	}
	return os.WriteFile(entryPath, []byte("export default function main() {}\n"), 0644)
}
