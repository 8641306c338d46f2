package approval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	draft_domain "github.com/fxgdesigns1/cohost/internal/domain/draft"
	mailbox_domain "github.com/fxgdesigns1/cohost/internal/domain/mailbox"
	"github.com/fxgdesigns1/cohost/internal/infrastructure/repository/memory"
	approval_service "github.com/fxgdesigns1/cohost/internal/service/approval"
	"github.com/fxgdesigns1/cohost/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeMailbox struct {
	sends int
}

func (f *fakeMailbox) ListInbound(ctx context.Context, tok *oauth2.Token, query string, maxResults int64) ([]mailbox_domain.Ref, error) {
	return nil, nil
}

func (f *fakeMailbox) GetMessage(ctx context.Context, tok *oauth2.Token, messageID string) (*mailbox_domain.Message, error) {
	return nil, nil
}

func (f *fakeMailbox) Send(ctx context.Context, tok *oauth2.Token, toAddr, subject, body, threadID string) error {
	f.sends++
	return nil
}

func (f *fakeMailbox) GetAuthURL(state string) string { return "" }

func (f *fakeMailbox) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return nil, nil
}

type fixture struct {
	store   *memory.Store
	mailbox *fakeMailbox
	codec   *token.Codec
	handler *ApprovalHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	mb := &fakeMailbox{}
	codec := token.NewCodec("test-secret", "http://localhost:8000", time.Hour)
	svc := approval_service.NewService(codec, store, store, store, store, mb)
	return &fixture{
		store:   store,
		mailbox: mb,
		codec:   codec,
		handler: NewApprovalHandler(svc),
	}
}

func (f *fixture) seedDraft(t *testing.T, hostID, draftID string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.store.SaveCredentials(ctx, hostID, &oauth2.Token{AccessToken: hostID}))
	require.NoError(t, f.store.CreateDraft(ctx, &draft_domain.Draft{
		HostID:   hostID,
		DraftID:  draftID,
		ThreadID: "t-" + draftID,
		ToAddr:   "guest@example.com",
		Subject:  "Parking <question>",
		Body:     "Free on-street after 6pm.",
	}))
}

func (f *fixture) issue(t *testing.T, action token.Action, hostID, draftID string) string {
	t.Helper()

	tok, err := f.codec.Issue(action, hostID, draftID, time.Hour)
	require.NoError(t, err)
	return tok
}

func get(h http.HandlerFunc, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path+"?token="+url.QueryEscape(tok), nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleApprove(t *testing.T) {
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")
	tok := f.issue(t, token.ActionApprove, "host-1", "m1")

	rec := get(f.handler.HandleApprove, "/approve", tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sent to guest")
	assert.Equal(t, 1, f.mailbox.sends)
}

// A replayed link whose draft is gone gets a neutral confirmation page, not
// an error, and triggers no send.
func TestHandleApproveReplay(t *testing.T) {
	f := newFixture(t)
	tok := f.issue(t, token.ActionApprove, "host-1", "already-handled")

	rec := get(f.handler.HandleApprove, "/approve", tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already handled")
	assert.Zero(t, f.mailbox.sends)
}

// Forged, malformed and expired tokens all render the same page so a probing
// client cannot tell which check failed.
func TestHandleApproveBadTokensAreUniform(t *testing.T) {
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")

	expired, err := f.codec.Issue(token.ActionApprove, "host-1", "m1", -time.Second)
	require.NoError(t, err)

	valid := f.issue(t, token.ActionApprove, "host-1", "m1")
	forged := "A" + valid[1:]
	if valid[0] == 'A' {
		forged = "B" + valid[1:]
	}

	for name, tok := range map[string]string{
		"garbage": "not-a-token",
		"empty":   "",
		"expired": expired,
		"forged":  forged,
	} {
		rec := get(f.handler.HandleApprove, "/approve", tok)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Contains(t, rec.Body.String(), "invalid or has expired", name)
	}
	assert.Zero(t, f.mailbox.sends)
}

func TestHandleApproveWrongAction(t *testing.T) {
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")
	tok := f.issue(t, token.ActionReject, "host-1", "m1")

	rec := get(f.handler.HandleApprove, "/approve", tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid action")
	assert.Zero(t, f.mailbox.sends)
}

func TestHandleEditFormPrefillsDraft(t *testing.T) {
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")
	tok := f.issue(t, token.ActionEdit, "host-1", "m1")

	rec := get(f.handler.HandleEditForm, "/edit", tok)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Free on-street after 6pm.")
	// html/template must have escaped the subject.
	assert.Contains(t, body, "Parking &lt;question&gt;")
	assert.NotContains(t, body, "Parking <question>")
	assert.Contains(t, body, `name="token" value="`+tok+`"`)
}

func TestHandleEditSend(t *testing.T) {
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")
	tok := f.issue(t, token.ActionEdit, "host-1", "m1")

	form := url.Values{"token": {tok}, "body": {"Updated reply."}}
	req := httptest.NewRequest(http.MethodPost, "/edit/send", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.HandleEditSend(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Edited reply sent")
	assert.Equal(t, 1, f.mailbox.sends)
}

func TestHandleEditSendRefusesRejectToken(t *testing.T) {
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")
	tok := f.issue(t, token.ActionReject, "host-1", "m1")

	form := url.Values{"token": {tok}, "body": {"Updated reply."}}
	req := httptest.NewRequest(http.MethodPost, "/edit/send", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.HandleEditSend(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid action")
	assert.Zero(t, f.mailbox.sends)
}

func TestHandleReject(t *testing.T) {
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")
	tok := f.issue(t, token.ActionReject, "host-1", "m1")

	rec := get(f.handler.HandleReject, "/reject", tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Draft rejected")
	assert.Zero(t, f.mailbox.sends)

	d, err := f.store.GetDraft(context.Background(), "host-1", "m1")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestHandleRejectMissingDraft(t *testing.T) {
	f := newFixture(t)
	tok := f.issue(t, token.ActionReject, "host-1", "gone")

	rec := get(f.handler.HandleReject, "/reject", tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Draft rejected")
}
