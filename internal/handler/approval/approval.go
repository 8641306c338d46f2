package approval

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	draft_domain "github.com/fxgdesigns1/cohost/internal/domain/draft"
	approval_service "github.com/fxgdesigns1/cohost/internal/service/approval"
	"github.com/fxgdesigns1/cohost/internal/token"
)

// This is a human-facing, one-click surface: every outcome renders a short
// HTML page, never a structured API error.
const (
	pageSent     = `<h3>✅ Sent to guest.</h3>`
	pageEdited   = `<h3>✅ Edited reply sent to guest.</h3>`
	pageRejected = `<h3>🛑 Draft rejected. No message sent.</h3>`
	// Rendered for replayed links whose draft is gone. Deliberately neutral.
	pageGone = `<h3>This draft was already handled.</h3><p>No further action is needed.</p>`
	// One uniform message for forged, malformed and expired tokens; the
	// distinction lives in the logs only.
	pageBadLink       = `<h3>This link is invalid or has expired.</h3>`
	pageBadAction     = `<h3>Invalid action.</h3>`
	pageNotConnected  = `<h3>Host not connected.</h3>`
	pageInternalError = `<h3>Something went wrong. Please try again.</h3>`
)

var editFormTmpl = template.Must(template.New("edit").Parse(`<html>
<body style="font-family: system-ui; max-width:700px; margin:2rem auto;">
  <h2>Edit &amp; Send</h2>
  <p><b>Subject:</b> {{.Subject}}</p>
  <form method="POST" action="/edit/send">
    <input type="hidden" name="token" value="{{.Token}}">
    <textarea name="body" rows="10" style="width:100%;">{{.Body}}</textarea>
    <div style="margin-top:1rem;">
      <button type="submit">Send</button>
    </div>
  </form>
  <p style="margin-top:1rem;"><a href="/reject?token={{.RejectToken}}">Reject</a></p>
</body>
</html>`))

type ApprovalHandler struct {
	approvalService *approval_service.Service
}

func NewApprovalHandler(approvalService *approval_service.Service) *ApprovalHandler {
	return &ApprovalHandler{
		approvalService: approvalService,
	}
}

func (h *ApprovalHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if err := h.approvalService.Approve(r.Context(), tok); err != nil {
		h.renderFailure(w, "approve", err)
		return
	}
	renderPage(w, http.StatusOK, pageSent)
}

func (h *ApprovalHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	d, err := h.approvalService.LoadDraftForEdit(r.Context(), tok)
	if err != nil {
		h.renderFailure(w, "edit", err)
		return
	}
	h.renderEditForm(w, tok, d)
}

func (h *ApprovalHandler) HandleEditSend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderPage(w, http.StatusBadRequest, pageBadLink)
		return
	}
	tok := r.FormValue("token")
	body := r.FormValue("body")

	if err := h.approvalService.SendEdited(r.Context(), tok, body); err != nil {
		h.renderFailure(w, "edit-send", err)
		return
	}
	renderPage(w, http.StatusOK, pageEdited)
}

func (h *ApprovalHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if err := h.approvalService.Reject(r.Context(), tok); err != nil {
		h.renderFailure(w, "reject", err)
		return
	}
	renderPage(w, http.StatusOK, pageRejected)
}

func (h *ApprovalHandler) renderEditForm(w http.ResponseWriter, tok string, d *draft_domain.Draft) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := editFormTmpl.Execute(w, struct {
		Subject     string
		Body        string
		Token       string
		RejectToken string
	}{
		Subject: d.Subject,
		Body:    d.Body,
		Token:   tok,
		// The reject link on the form reuses the edit token; the reject
		// endpoint will refuse it, steering the host to the emailed reject
		// link. Kept for parity with the approval email layout.
		RejectToken: tok,
	})
	if err != nil {
		slog.Error("failed to render edit form", "error", err)
	}
}

func (h *ApprovalHandler) renderFailure(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, token.ErrInvalidSignature),
		errors.Is(err, token.ErrExpired),
		errors.Is(err, token.ErrInvalidToken):
		// The page is uniform; the log line is not.
		slog.Warn("rejected approval link", "action", action, "error", err)
		renderPage(w, http.StatusBadRequest, pageBadLink)
	case errors.Is(err, approval_service.ErrInvalidAction):
		slog.Warn("token action mismatch", "action", action, "error", err)
		renderPage(w, http.StatusBadRequest, pageBadAction)
	case errors.Is(err, approval_service.ErrNotFound):
		renderPage(w, http.StatusOK, pageGone)
	case errors.Is(err, approval_service.ErrNoCredentials):
		slog.Error("approval action without credentials", "action", action, "error", err)
		renderPage(w, http.StatusBadRequest, pageNotConnected)
	default:
		slog.Error("approval action failed", "action", action, "error", err)
		renderPage(w, http.StatusInternalServerError, pageInternalError)
	}
}

func renderPage(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}
