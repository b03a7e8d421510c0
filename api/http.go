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

// Package api exposes a compartment's module graph over HTTP for
// inspection: which specifiers have been discovered, whether their
// import graph contains a cycle, and a given module's exported names
// and values — plus an endpoint to trigger an import from outside the
// process driving the compartment directly.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/binaek/compartment/compartment"
	"github.com/binaek/compartment/module"
)

// ListenerServerPair pairs a listener with the server bound to it, so
// Setup can fail fast on the first bind error and StopServer can tear
// every listener down uniformly.
type ListenerServerPair struct {
	Listener net.Listener
	Server   *http.Server
}

func (p *ListenerServerPair) Close() error {
	if err := p.Listener.Close(); err != nil {
		return err
	}
	return p.Server.Close()
}

// HTTPAPI is the debug HTTP surface over a single Compartment.
type HTTPAPI struct {
	comp      *compartment.Compartment
	listeners []*ListenerServerPair
}

// NewHTTPAPI builds a debug API over comp.
func NewHTTPAPI(comp *compartment.Compartment) *HTTPAPI {
	return &HTTPAPI{comp: comp}
}

// ImportRequest is the body of POST /import.
type ImportRequest struct {
	Specifier string `json:"specifier"`
}

// ModuleSummary describes one loaded module for GET /modules.
type ModuleSummary struct {
	Specifier string `json:"specifier"`
}

// NamespaceSummary describes a module's namespace for GET /modules/{specifier...}.
type NamespaceSummary struct {
	Specifier string         `json:"specifier"`
	Exports   map[string]any `json:"exports"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// GraphSummary is the response of GET /graph.
type GraphSummary struct {
	Specifiers []string `json:"specifiers"`
	HasCycle   bool     `json:"has_cycle"`
	Cycle      []string `json:"cycle,omitempty"`
}

func (api *HTTPAPI) Setup(ctx context.Context, port int, listen []string) error {
	mux := http.NewServeMux()

	mux.Handle("GET /health", http.HandlerFunc(api.handleHealth))
	mux.Handle("GET /modules", http.HandlerFunc(api.handleListModules))
	mux.Handle("GET /modules/{specifier...}", http.HandlerFunc(api.handleModuleNamespace))
	mux.Handle("GET /graph", http.HandlerFunc(api.handleGraph))
	mux.Handle("POST /import", http.HandlerFunc(api.handleImport))

	bindings, err := resolveBindings(port, listen)
	if err != nil {
		return err
	}

	api.listeners = make([]*ListenerServerPair, 0, len(bindings))
	for _, binding := range bindings {
		ln, err := net.Listen("tcp", binding)
		if err != nil {
			for _, l := range api.listeners {
				_ = l.Close()
			}
			api.listeners = nil
			return fmt.Errorf("failed to listen on %s: %w", binding, err)
		}
		api.listeners = append(api.listeners, &ListenerServerPair{
			Listener: ln,
			Server: &http.Server{
				Handler:      mux,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
				BaseContext: func(net.Listener) context.Context {
					return ctx
				},
			},
		})
		slog.DebugContext(ctx, "listening on server", "binding", binding)
	}
	return nil
}

func (api *HTTPAPI) StartServer(ctx context.Context) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(api.listeners))
	for _, ln := range api.listeners {
		server := ln.Server
		l := ln.Listener
		wg.Go(func() {
			slog.DebugContext(ctx, "debug endpoint available", "address", l.Addr().String())
			if err := server.Serve(l); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		})
	}
	defer func() {
		wg.Wait()
		close(errChan)
	}()
}

func (api *HTTPAPI) StopServer(ctx context.Context) error {
	for _, ln := range api.listeners {
		_ = ln.Close()
	}
	api.listeners = nil
	return nil
}

func (api *HTTPAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (api *HTTPAPI) handleListModules(w http.ResponseWriter, r *http.Request) {
	specs := api.comp.PrivateFields().Specifiers()
	out := make([]ModuleSummary, len(specs))
	for i, s := range specs {
		out[i] = ModuleSummary{Specifier: string(s)}
	}
	api.writeJSON(w, r, http.StatusOK, out)
}

func (api *HTTPAPI) handleModuleNamespace(w http.ResponseWriter, r *http.Request) {
	specifier := r.PathValue("specifier")
	if specifier == "" {
		api.writeProblem(w, r, http.StatusBadRequest, "missing specifier", "")
		return
	}
	ns := api.comp.Module(module.FullSpecifier(specifier))
	summary := NamespaceSummary{Specifier: specifier, Exports: map[string]any{}, Errors: map[string]string{}}
	for _, name := range ns.OwnKeys() {
		v, err := ns.Get(name)
		if err != nil {
			summary.Errors[name] = err.Error()
			continue
		}
		summary.Exports[name] = v
	}
	api.writeJSON(w, r, http.StatusOK, summary)
}

func (api *HTTPAPI) handleGraph(w http.ResponseWriter, r *http.Request) {
	specs := api.comp.PrivateFields().Specifiers()
	strSpecs := make([]string, len(specs))
	for i, s := range specs {
		strSpecs[i] = string(s)
	}
	hasCycle, cycle := api.comp.HasCycle()
	cycleStr := make([]string, len(cycle))
	for i, s := range cycle {
		cycleStr[i] = string(s)
	}
	api.writeJSON(w, r, http.StatusOK, GraphSummary{Specifiers: strSpecs, HasCycle: hasCycle, Cycle: cycleStr})
}

func (api *HTTPAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeProblem(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Specifier == "" {
		api.writeProblem(w, r, http.StatusBadRequest, "specifier is required", "")
		return
	}
	ns, err := api.comp.Import(r.Context(), req.Specifier)
	if err != nil {
		api.writeProblem(w, r, http.StatusUnprocessableEntity, "import failed", err.Error())
		return
	}
	api.writeJSON(w, r, http.StatusOK, map[string]any{"specifier": req.Specifier, "exports": ns.OwnKeys()})
}

func (api *HTTPAPI) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.DebugContext(r.Context(), "error encoding response", "error", err)
	}
}

func (api *HTTPAPI) writeProblem(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	body := ProblemDetails{
		Type:     fmt.Sprintf("https://compartment.dev/problems/%d", status),
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
		Ext:      map[string]any{"timestamp": time.Now().UTC().Format(time.RFC3339)},
	}
	if err := json.NewEncoder(w).Encode(&body); err != nil {
		slog.DebugContext(r.Context(), "error encoding problem details", "error", err)
	}
}
