// Copyright (C) 2026 Strandwork Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"context"
	"fmt"
)

// ToolParam describes one parameter of a tool.
type ToolParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Tool is one externally invokable capability of the analyzer service.
// Front-ends render the registry however they like (CLI subcommands,
// agent tool schemas) and call Run with named arguments.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ToolParam `json:"params"`

	Run func(ctx context.Context, args map[string]any) (any, error) `json:"-"`
}

// Tools returns the analyzer's tool registry.
func (s *Service) Tools() []Tool {
	return []Tool{
		{
			Name:        "start_analyzer",
			Description: "Start the code analyzer on a workspace. Waits for background indexing to finish.",
			Params: []ToolParam{
				{Name: "workspace_path", Type: "string", Description: "absolute path of the C/C++ project to analyze", Required: true},
			},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				workspace, err := stringArg(args, "workspace_path")
				if err != nil {
					return nil, err
				}
				if err := s.Start(ctx, workspace); err != nil {
					return nil, err
				}
				return "analyzer ready", nil
			},
		},
		{
			Name:        "stop_analyzer",
			Description: "Stop the running code analyzer.",
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				if err := s.Stop(); err != nil {
					return nil, err
				}
				return "analyzer stopped", nil
			},
		},
		{
			Name:        "find_definition",
			Description: "Find definition position of a symbol",
			Params: []ToolParam{
				{Name: "symbol_name", Type: "string", Description: "function name or variable name", Required: true},
			},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				symbol, err := stringArg(args, "symbol_name")
				if err != nil {
					return nil, err
				}
				return s.FindDefinition(ctx, symbol)
			},
		},
		{
			Name:        "find_references",
			Description: "Find reference positions of a symbol",
			Params: []ToolParam{
				{Name: "symbol_name", Type: "string", Description: "function name or variable name", Required: true},
			},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				symbol, err := stringArg(args, "symbol_name")
				if err != nil {
					return nil, err
				}
				return s.FindReferences(ctx, symbol)
			},
		},
	}
}

// Tool returns the named tool, or nil when unknown.
func (s *Service) Tool(name string) *Tool {
	for _, t := range s.Tools() {
		if t.Name == name {
			return &t
		}
	}
	return nil
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	str, ok := v.(string)
	if !ok || str == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return str, nil
}
