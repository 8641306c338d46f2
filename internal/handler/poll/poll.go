package poll

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fxgdesigns1/cohost/internal/service/poller"
)

type PollHandler struct {
	pollerService *poller.Service
}

func NewPollHandler(pollerService *poller.Service) *PollHandler {
	return &PollHandler{
		pollerService: pollerService,
	}
}

// HandlePoll runs one batch cycle over all active tenants and reports the
// per-tenant counts. A scheduler is expected to hit this repeatedly.
func (h *PollHandler) HandlePoll(w http.ResponseWriter, r *http.Request) {
	results, err := h.pollerService.PollAll(r.Context())
	if err != nil {
		slog.Error("batch poll failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"ok": true, "results": results}); err != nil {
		slog.Error("failed to encode poll results", "error", err)
	}
}
