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

	"github.com/binaek/cling"

	"github.com/binaek/compartment/api"
	"github.com/binaek/compartment/constants"
	"github.com/binaek/compartment/otel"
)

func addServeCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("serve", serveCmd).
			WithFlag(cling.
				NewIntCmdInput("port").
				WithDefault(7529).
				WithDescription("Port to listen on").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("project-location").
				WithDefault("./").
				WithDescription("Project directory to serve").
				AsFlag(),
			).
			WithFlag(cling.
				NewCmdSliceInput[string]("listen").
				WithDefault([]string{"local"}).
				WithDescription("Address(es) to listen on").
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
			WithFlag(
				cling.NewBoolCmdInput("otel-enabled").
					WithDefault(false).
					WithDescription("Enable OpenTelemetry tracing").
					AsFlag().
					FromEnv([]string{constants.EnvOtelEnabled}),
			).
			WithFlag(
				cling.NewStringCmdInput("otel-endpoint").
					WithDefault("http://localhost:4317").
					WithDescription("OpenTelemetry endpoint to send traces to").
					AsFlag().
					FromEnv([]string{constants.EnvOtelEndpoint}),
			).
			WithFlag(
				cling.NewStringCmdInput("otel-protocol").
					WithDefault("grpc").
					WithValidator(cling.NewEnumValidator("http", "grpc")).
					WithDescription("OpenTelemetry protocol. Allowed values: http, grpc.").
					AsFlag().
					FromEnv([]string{constants.EnvOtelProtocol}),
			),
	)
}

type serveCmdArgs struct {
	Port             int      `cling-name:"port"`
	ProjectLocation  string   `cling-name:"project-location"`
	Listen           []string `cling-name:"listen"`
	RuntimePoolSize  int      `cling-name:"runtime-pool-size"`
	AnalyzeCacheSize int      `cling-name:"analyze-cache-size"`
	OtelEnabled      bool     `cling-name:"otel-enabled"`
	OtelEndpoint     string   `cling-name:"otel-endpoint"`
	OtelProtocol     string   `cling-name:"otel-protocol"`
}

func serveCmd(ctx context.Context, args []string) error {
	input := serveCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	built, err := buildCompartment(ctx, input.ProjectLocation, int32(input.RuntimePoolSize), input.AnalyzeCacheSize)
	if err != nil {
		return err
	}
	defer built.Evaluator.Close()

	var otelCleanup otel.ShutdownFn
	otelConfig := otel.OTelConfig{
		Enabled:        input.OtelEnabled,
		Endpoint:       input.OtelEndpoint,
		Protocol:       input.OtelProtocol,
		ServiceName:    constants.APPNAME,
		ServiceVersion: constants.APPVERSION,
		ProjectName:    built.Project.Name,
	}
	if otelConfig.Enabled {
		otelCleanup, err = otel.InitProvider(ctx, otelConfig)
		if err != nil {
			return err
		}
		defer func() {
			if otelCleanup != nil {
				_ = otelCleanup(context.WithoutCancel(ctx))
			}
		}()
	}

	if built.Project.Entry != "" {
		if _, err := built.Compartment.Load(ctx, built.Project.Entry); err != nil {
			return err
		}
	}

	server := api.NewHTTPAPI(built.Compartment)
	if err := server.Setup(ctx, input.Port, input.Listen); err != nil {
		return err
	}

	go server.StartServer(ctx)

	<-ctx.Done()

	return server.StopServer(ctx)
}
