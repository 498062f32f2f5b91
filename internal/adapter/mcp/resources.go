package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers the two read-only state snapshots of
// spec.md §6.6: persona://state/agent and persona://state/interoception.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"persona://state/agent",
			"Agent State",
			mcplib.WithResourceDescription("The pipeline runner's persisted agent state (spec.md §3.4)"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleAgentStateResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"persona://state/interoception",
			"Interoception State",
			mcplib.WithResourceDescription("The limbic scheduler's per-signal pressure snapshot (spec.md §3.2)"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleInteroceptionResource,
	)
}

func (s *Server) handleAgentStateResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	st, err := s.deps.AgentStateStore.Load(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResourceContents(req.Params.URI, st)
}

func (s *Server) handleInteroceptionResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	st, err := s.deps.InteroceptionStore.Load(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResourceContents(req.Params.URI, st)
}

func jsonResourceContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
