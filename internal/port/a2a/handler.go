package a2a

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quietsignal/persona-core/internal/domain/observation"
)

// Handler serves the agent-to-agent forum surface: an agent-card
// discovery document plus a minimal message-submission endpoint that
// queues messages for the next observe() call (spec.md §1; SPEC_FULL
// §6.7).
type Handler struct {
	baseURL   string
	agentName string

	mu    sync.Mutex
	inbox []observation.ForumMessage
}

// NewHandler creates an A2A forum handler.
func NewHandler(baseURL, agentName string) *Handler {
	return &Handler{
		baseURL:   baseURL,
		agentName: agentName,
	}
}

// MountRoutes registers A2A routes on the given chi router. These are
// mounted at the root level, not under /api/v1.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/.well-known/agent.json", h.handleAgentCard)
	r.Post("/a2a/messages", h.handleSubmitMessage)
}

// Drain returns every message queued since the last Drain call and
// empties the inbox. Called once per pipeline observe() cycle.
func (h *Handler) Drain() []observation.ForumMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.inbox) == 0 {
		return nil
	}
	out := h.inbox
	h.inbox = nil
	return out
}

func (h *Handler) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	card := BuildAgentCard(h.baseURL, h.agentName)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(card)
}

func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.From == "" {
		http.Error(w, `{"error":"from is required"}`, http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	h.mu.Lock()
	h.inbox = append(h.inbox, observation.ForumMessage{
		ID:   req.ID,
		From: req.From,
		Text: req.Text,
	})
	h.mu.Unlock()

	slog.Info("a2a message queued", "id", req.ID, "from", req.From)

	resp := MessageReceipt{ID: req.ID, Status: "queued"}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
}
