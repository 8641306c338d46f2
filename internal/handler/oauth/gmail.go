package oauth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	credential_domain "github.com/fxgdesigns1/cohost/internal/domain/credential"
	line_domain "github.com/fxgdesigns1/cohost/internal/domain/line"
	mailbox_domain "github.com/fxgdesigns1/cohost/internal/domain/mailbox"
	tenant_domain "github.com/fxgdesigns1/cohost/internal/domain/tenant"
)

const (
	htmlError   = `<html><body><h1>❌ Authorization failed</h1></body></html>`
	htmlSuccess = `<html><body><h1>✅ Inbox connected</h1><p>You can close this tab.</p></body></html>`

	statePrefix = "host:"
)

type GmailOAuthHandler struct {
	tenantRepo tenant_domain.TenantRepo
	credRepo   credential_domain.CredentialRepo
	mailbox    mailbox_domain.MailboxRepo
	lineRepo   line_domain.LineRepo
}

func NewGmailOAuthHandler(
	tenantRepo tenant_domain.TenantRepo,
	credRepo credential_domain.CredentialRepo,
	mailbox mailbox_domain.MailboxRepo,
	lineRepo line_domain.LineRepo,
) *GmailOAuthHandler {
	return &GmailOAuthHandler{
		tenantRepo: tenantRepo,
		credRepo:   credRepo,
		mailbox:    mailbox,
		lineRepo:   lineRepo,
	}
}

// HandleStart redirects a registered host into the provider consent screen.
// The host id rides along in the state parameter.
func (h *GmailOAuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	hostID := r.URL.Query().Get("hostId")
	if hostID == "" {
		http.Error(w, "hostId is required", http.StatusBadRequest)
		return
	}

	t, err := h.tenantRepo.GetTenant(r.Context(), hostID)
	if err != nil {
		slog.Error("failed to get tenant", "host_id", hostID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if t == nil {
		http.Error(w, "Unknown hostId. Register the tenant first.", http.StatusBadRequest)
		return
	}

	authURL := h.mailbox.GetAuthURL(statePrefix + hostID)
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// HandleCallback exchanges the consent code, persists credentials and
// activates the tenant.
func (h *GmailOAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if code == "" || !strings.HasPrefix(state, statePrefix) {
		slog.Error("bad oauth callback", "state", state)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	hostID := strings.TrimPrefix(state, statePrefix)

	t, err := h.tenantRepo.GetTenant(r.Context(), hostID)
	if err != nil {
		slog.Error("failed to get tenant", "host_id", hostID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if t == nil {
		http.Error(w, "Unknown host", http.StatusBadRequest)
		return
	}

	token, err := h.mailbox.ExchangeCode(r.Context(), code)
	if err != nil {
		slog.Error("failed to exchange oauth code", "host_id", hostID, "error", err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, htmlError)
		return
	}

	if err := h.credRepo.SaveCredentials(r.Context(), hostID, token); err != nil {
		slog.Error("failed to save credentials", "host_id", hostID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := h.tenantRepo.SetActive(r.Context(), hostID, true); err != nil {
		slog.Error("failed to activate tenant", "host_id", hostID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Best effort; the HTML confirmation is the channel of record.
	if h.lineRepo != nil && t.LineUserID != nil {
		if err := h.lineRepo.PushMessage(r.Context(), *t.LineUserID,
			"Your inbox is connected. Guest replies will now be drafted for you."); err != nil {
			slog.Warn("failed to push LINE notification", "host_id", hostID, "error", err)
		}
	}

	slog.Info("tenant authorized", "host_id", hostID)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, htmlSuccess)
}
