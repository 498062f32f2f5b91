package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/quietsignal/persona-core/internal/domain/action"
	"github.com/quietsignal/persona-core/internal/domain/decision"
	"github.com/quietsignal/persona-core/internal/domain/limbic"
	"github.com/quietsignal/persona-core/internal/domain/signal"
)

// registerTools registers every tool in spec.md §6.6.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.interoceptionStatusTool(),
		s.forceSignalTool(),
		s.setQuietTool(),
		s.clearQuietTool(),
		s.proposeAndScoreTool(),
		s.outboxListTool(),
		s.outboxGetTool(),
	)
}

func (s *Server) interoceptionStatusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("interoception_status",
		mcplib.WithDescription("Return the current pressure and quiet-window state of every limbic signal"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleInteroceptionStatus}
}

func (s *Server) forceSignalTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("force_signal",
		mcplib.WithDescription("Force one signal to emit immediately, bypassing accumulation, threshold and cooldown; has no effect while quiet mode is active"),
		mcplib.WithString("signal",
			mcplib.Required(),
			mcplib.Description("Signal kind, e.g. SOCIAL, CURIOSITY, MAINTENANCE, BOREDOM, ANXIETY, DRIFT, STALE, UNCANNY"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleForceSignal}
}

func (s *Server) setQuietTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("set_quiet",
		mcplib.WithDescription("Suppress emissions for the given number of hours"),
		mcplib.WithNumber("hours",
			mcplib.Required(),
			mcplib.Description("Hours from now until the quiet window ends"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleSetQuiet}
}

func (s *Server) clearQuietTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("clear_quiet",
		mcplib.WithDescription("End the quiet window immediately"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleClearQuiet}
}

func (s *Server) proposeAndScoreTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("propose_and_score",
		mcplib.WithDescription("Score a list of candidate actions with the configured decision weights, without committing anything"),
		mcplib.WithString("candidates",
			mcplib.Required(),
			mcplib.Description("JSON array of action candidates to score"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleProposeAndScore}
}

func (s *Server) outboxListTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("outbox_list",
		mcplib.WithDescription("List queued outbox drafts awaiting a queue run"),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum drafts to return (default 20)"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleOutboxList}
}

func (s *Server) outboxGetTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("outbox_get",
		mcplib.WithDescription("Fetch a single outbox draft by id"),
		mcplib.WithString("id",
			mcplib.Required(),
			mcplib.Description("Draft id"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleOutboxGet}
}

func (s *Server) handleInteroceptionStatus(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	st, err := s.deps.InteroceptionStore.Load(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to load interoception state", err), nil
	}
	return toolResultJSON(st)
}

func (s *Server) handleForceSignal(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()
	kindStr, ok := args["signal"].(string)
	if !ok || kindStr == "" {
		return mcplib.NewToolResultError("signal is required"), nil
	}
	kind := signal.Kind(kindStr)

	st, err := s.deps.InteroceptionStore.Load(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to load interoception state", err), nil
	}

	next, result := limbic.ForceEmit(st, kind, time.Now())
	if err := s.deps.InteroceptionStore.Save(ctx, next); err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to save interoception state", err), nil
	}
	return toolResultJSON(result)
}

func (s *Server) handleSetQuiet(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()
	hours, ok := args["hours"].(float64)
	if !ok {
		return mcplib.NewToolResultError("hours is required"), nil
	}

	st, err := s.deps.InteroceptionStore.Load(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to load interoception state", err), nil
	}

	until := time.Now().Add(time.Duration(hours * float64(time.Hour)))
	next := limbic.SetQuiet(st, until)
	if err := s.deps.InteroceptionStore.Save(ctx, next); err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to save interoception state", err), nil
	}
	return toolResultJSON(map[string]any{"quiet_until": until})
}

func (s *Server) handleClearQuiet(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	st, err := s.deps.InteroceptionStore.Load(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to load interoception state", err), nil
	}

	next := limbic.ClearQuiet(st)
	if err := s.deps.InteroceptionStore.Save(ctx, next); err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to save interoception state", err), nil
	}
	return toolResultJSON(map[string]any{"cleared": true})
}

func (s *Server) handleProposeAndScore(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()
	raw, ok := args["candidates"].(string)
	if !ok || raw == "" {
		return mcplib.NewToolResultError("candidates is required"), nil
	}

	var cands []action.Candidate
	if err := json.Unmarshal([]byte(raw), &cands); err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to parse candidates", err), nil
	}

	scored := decision.ScoreAll(cands, s.deps.Weights)
	type scoredWithSalience struct {
		action.Scored
		Salience float64 `json:"salience"`
	}
	out := make([]scoredWithSalience, len(scored))
	for i, sc := range scored {
		out[i] = scoredWithSalience{Scored: sc, Salience: decision.Salience(sc.Candidate, s.deps.Weights)}
	}
	return toolResultJSON(out)
}

func (s *Server) handleOutboxList(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()
	limit := 20
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	drafts, err := s.deps.OutboxStore.LoadQueued(ctx, limit)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list outbox", err), nil
	}
	return toolResultJSON(drafts)
}

func (s *Server) handleOutboxGet(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcplib.NewToolResultError("id is required"), nil
	}

	d, err := s.deps.OutboxStore.LoadDraft(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get draft %s", id), err), nil
	}
	return toolResultJSON(d)
}

// toolResultJSON marshals v and wraps it as a text tool result.
func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
