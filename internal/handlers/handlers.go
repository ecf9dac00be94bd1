// Package handlers exposes the consensus engine over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/cache"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/engine"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/hub"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/resolver"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/writer"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/wsclient"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	hub    *hub.Hub
	writer *writer.HolocronWriter
	cache  *cache.RedisWriter
	policy resolver.SizingPolicy
	ctx    context.Context
}

// NewHandler creates a new handler
func NewHandler(h *hub.Hub, w *writer.HolocronWriter, c *cache.RedisWriter, policy resolver.SizingPolicy, ctx context.Context) *Handler {
	return &Handler{
		hub:    h,
		writer: w,
		cache:  c,
		policy: policy,
		ctx:    ctx,
	}
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"service":        "consensus-engine",
		"active_clients": h.hub.GetClientCount(),
	})
}

// EvaluateRequest is an inline snapshot for an on-demand dry run. The
// endpoint never touches the databases; operators can probe the decision
// table with synthetic picks.
type EvaluateRequest struct {
	Markets     []models.MarketType        `json:"markets"`
	Picks       []models.Pick              `json:"picks"`
	Performance models.PerformanceSnapshot `json:"performance"`
}

// Evaluate runs the consensus pipeline over an inline snapshot
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	if len(req.Picks) == 0 {
		respondError(w, http.StatusBadRequest, "picks must not be empty")
		return
	}
	if len(req.Markets) == 0 {
		req.Markets = []models.MarketType{models.MarketTotal, models.MarketSpread}
	}

	result := engine.EvaluateSnapshot(req.Picks, req.Performance, req.Markets, h.policy)
	respondJSON(w, http.StatusOK, result)
}

// Eligibility returns the cached eligible capper list from the latest run
func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	eligible, err := h.cache.ReadEligibility(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("read eligibility: %v", err))
		return
	}

	if eligible == nil {
		eligible = []models.EligibleCapper{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"eligible_cappers": eligible,
		"count":            len(eligible),
	})
}

// RecentDecisions returns the latest generated meta-picks
func (h *Handler) RecentDecisions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	decisions, err := h.writer.RecentDecisions(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("query decisions: %v", err))
		return
	}

	if decisions == nil {
		decisions = []models.Decision{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"decisions": decisions,
		"count":     len(decisions),
	})
}

// HandleWebSocket upgrades HTTP connections to websocket for meta-pick pushes
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Printf("⚠️  WebSocket upgrade error: %v\n", err)
		return
	}

	clientID := uuid.New().String()
	c := wsclient.NewClient(clientID, conn, h.hub)

	h.hub.Register(c)

	// Use handler context, not request context
	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)

	fmt.Printf("✓ WebSocket connection established: %s\n", clientID)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
