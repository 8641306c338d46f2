package tenant

import (
	"encoding/json"
	"log/slog"
	"net/http"

	tenant_domain "github.com/fxgdesigns1/cohost/internal/domain/tenant"
)

type TenantHandler struct {
	tenantRepo tenant_domain.TenantRepo
}

func NewTenantHandler(tenantRepo tenant_domain.TenantRepo) *TenantHandler {
	return &TenantHandler{
		tenantRepo: tenantRepo,
	}
}

type registerRequest struct {
	HostID     string  `json:"hostId"`
	HostEmail  string  `json:"hostEmail"`
	LineUserID *string `json:"lineUserId,omitempty"`
}

// HandleRegister creates a tenant in the inactive state. Activation happens
// when the OAuth callback completes.
func (h *TenantHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("failed to decode register request", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if req.HostID == "" || req.HostEmail == "" {
		http.Error(w, "hostId and hostEmail are required", http.StatusBadRequest)
		return
	}

	t := &tenant_domain.Tenant{
		HostID:     req.HostID,
		HostEmail:  req.HostEmail,
		LineUserID: req.LineUserID,
	}
	if err := h.tenantRepo.UpsertTenant(r.Context(), t); err != nil {
		slog.Error("failed to register tenant", "host_id", req.HostID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("tenant registered", "host_id", req.HostID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "hostId": req.HostID})
}

func (h *TenantHandler) HandleUpsertListing(w http.ResponseWriter, r *http.Request) {
	hostID := r.PathValue("hostId")
	listingID := r.PathValue("listingId")

	var cfg tenant_domain.ListingConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		slog.Error("failed to decode listing config", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := h.tenantRepo.SaveListingConfig(r.Context(), hostID, listingID, &cfg); err != nil {
		slog.Error("failed to save listing config", "host_id", hostID, "listing_id", listingID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *TenantHandler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	hostID := r.PathValue("hostId")
	listingID := r.PathValue("listingId")

	cfg, err := h.tenantRepo.GetListingConfig(r.Context(), hostID, listingID)
	if err != nil {
		slog.Error("failed to get listing config", "host_id", hostID, "listing_id", listingID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "config": cfg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
