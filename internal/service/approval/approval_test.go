package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	draft_domain "github.com/fxgdesigns1/cohost/internal/domain/draft"
	mailbox_domain "github.com/fxgdesigns1/cohost/internal/domain/mailbox"
	"github.com/fxgdesigns1/cohost/internal/infrastructure/repository/memory"
	"github.com/fxgdesigns1/cohost/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type sentMail struct {
	To       string
	Subject  string
	Body     string
	ThreadID string
}

type fakeMailbox struct {
	sendErr error
	sends   []sentMail
}

func (f *fakeMailbox) ListInbound(ctx context.Context, tok *oauth2.Token, query string, maxResults int64) ([]mailbox_domain.Ref, error) {
	return nil, nil
}

func (f *fakeMailbox) GetMessage(ctx context.Context, tok *oauth2.Token, messageID string) (*mailbox_domain.Message, error) {
	return nil, nil
}

func (f *fakeMailbox) Send(ctx context.Context, tok *oauth2.Token, toAddr, subject, body, threadID string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sends = append(f.sends, sentMail{To: toAddr, Subject: subject, Body: body, ThreadID: threadID})
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
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	mb := &fakeMailbox{}
	codec := token.NewCodec("test-secret", "http://localhost:8000", time.Hour)
	return &fixture{
		store:   store,
		mailbox: mb,
		codec:   codec,
		svc:     NewService(codec, store, store, store, store, mb),
	}
}

func (f *fixture) seedDraft(t *testing.T, hostID, draftID string) *draft_domain.Draft {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.store.SaveCredentials(ctx, hostID, &oauth2.Token{AccessToken: hostID}))
	d := &draft_domain.Draft{
		HostID:   hostID,
		DraftID:  draftID,
		ThreadID: "thread-" + draftID,
		ToAddr:   "guest@example.com",
		Subject:  "Late check-out",
		Body:     "I'll check availability and confirm shortly.",
		Source:   draft_domain.SourceLLM,
	}
	require.NoError(t, f.store.CreateDraft(ctx, d))
	return d
}

func (f *fixture) issue(t *testing.T, action token.Action, hostID, draftID string) string {
	t.Helper()

	tok, err := f.codec.Issue(action, hostID, draftID, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestApproveSendsAndFinalizes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.seedDraft(t, "host-1", "m1")
	tok := f.issue(t, token.ActionApprove, "host-1", "m1")

	require.NoError(t, f.svc.Approve(ctx, tok))

	require.Len(t, f.mailbox.sends, 1)
	assert.Equal(t, d.ToAddr, f.mailbox.sends[0].To)
	assert.Equal(t, "Re: "+d.Subject, f.mailbox.sends[0].Subject)
	assert.Equal(t, d.Body, f.mailbox.sends[0].Body)
	assert.Equal(t, d.ThreadID, f.mailbox.sends[0].ThreadID)

	got, err := f.store.GetDraft(ctx, "host-1", "m1")
	require.NoError(t, err)
	assert.Nil(t, got)

	last, err := f.store.LastProcessedID(ctx, "host-1", d.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, "m1", last)

	logs := f.store.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, true, logs[0].Meta["approved"])
	assert.Nil(t, logs[0].Meta["edited"])
}

func TestApproveReplayIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")
	tok := f.issue(t, token.ActionApprove, "host-1", "m1")

	require.NoError(t, f.svc.Approve(ctx, tok))

	// Clicking the same link again must not send a second time.
	err := f.svc.Approve(ctx, tok)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, f.mailbox.sends, 1)
}

func TestApproveRejectsOtherActions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")

	for _, action := range []token.Action{token.ActionEdit, token.ActionReject} {
		tok := f.issue(t, action, "host-1", "m1")
		err := f.svc.Approve(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidAction, action)
	}
	assert.Empty(t, f.mailbox.sends)
}

func TestApproveExpiredToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")

	tok, err := f.codec.Issue(token.ActionApprove, "host-1", "m1", -time.Second)
	require.NoError(t, err)

	err = f.svc.Approve(ctx, tok)
	assert.ErrorIs(t, err, token.ErrExpired)
	assert.Empty(t, f.mailbox.sends)
}

func TestApproveWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d := &draft_domain.Draft{
		HostID:   "host-1",
		DraftID:  "m1",
		ThreadID: "t1",
		ToAddr:   "guest@example.com",
		Subject:  "Hi",
		Body:     "body",
	}
	require.NoError(t, f.store.CreateDraft(ctx, d))
	tok := f.issue(t, token.ActionApprove, "host-1", "m1")

	err := f.svc.Approve(ctx, tok)
	assert.ErrorIs(t, err, ErrNoCredentials)

	// Draft stays pending so the host can retry after reconnecting.
	got, err := f.store.GetDraft(ctx, "host-1", "m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, draft_domain.StatusPending, got.Status)
}

func TestApproveSendFailureLeavesDraftPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.seedDraft(t, "host-1", "m1")
	f.mailbox.sendErr = errors.New("smtp down")
	tok := f.issue(t, token.ActionApprove, "host-1", "m1")

	err := f.svc.Approve(ctx, tok)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	got, err := f.store.GetDraft(ctx, "host-1", "m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, draft_domain.StatusPending, got.Status)

	last, err := f.store.LastProcessedID(ctx, "host-1", d.ThreadID)
	require.NoError(t, err)
	assert.Empty(t, last)
	assert.Empty(t, f.store.Logs())
}

func TestLoadDraftForEdit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.seedDraft(t, "host-1", "m1")

	got, err := f.svc.LoadDraftForEdit(ctx, f.issue(t, token.ActionEdit, "host-1", "m1"))
	require.NoError(t, err)
	assert.Equal(t, d.Body, got.Body)
	assert.Equal(t, d.Subject, got.Subject)

	_, err = f.svc.LoadDraftForEdit(ctx, f.issue(t, token.ActionApprove, "host-1", "m1"))
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = f.svc.LoadDraftForEdit(ctx, f.issue(t, token.ActionEdit, "host-1", "missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendEditedOverridesBody(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.seedDraft(t, "host-1", "m1")
	tok := f.issue(t, token.ActionEdit, "host-1", "m1")

	require.NoError(t, f.svc.SendEdited(ctx, tok, "Sure, late check-out at 1pm works."))

	require.Len(t, f.mailbox.sends, 1)
	assert.Equal(t, "Sure, late check-out at 1pm works.", f.mailbox.sends[0].Body)
	assert.Equal(t, d.ThreadID, f.mailbox.sends[0].ThreadID)

	logs := f.store.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, true, logs[0].Meta["edited"])

	got, err := f.store.GetDraft(ctx, "host-1", "m1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSendEditedEmptyBodyKeepsDraftText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.seedDraft(t, "host-1", "m1")
	tok := f.issue(t, token.ActionEdit, "host-1", "m1")

	require.NoError(t, f.svc.SendEdited(ctx, tok, ""))

	require.Len(t, f.mailbox.sends, 1)
	assert.Equal(t, d.Body, f.mailbox.sends[0].Body)
}

// The edit form submits whichever token the host arrived with, so approve
// tokens are accepted here too. Reject tokens are not.
func TestSendEditedTokenActions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")

	require.NoError(t, f.svc.SendEdited(ctx,
		f.issue(t, token.ActionApprove, "host-1", "m1"), "edited body"))
	assert.Len(t, f.mailbox.sends, 1)

	f.seedDraft(t, "host-1", "m2")
	err := f.svc.SendEdited(ctx,
		f.issue(t, token.ActionReject, "host-1", "m2"), "edited body")
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Len(t, f.mailbox.sends, 1)
}

func TestRejectDiscardsWithoutSending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")
	tok := f.issue(t, token.ActionReject, "host-1", "m1")

	require.NoError(t, f.svc.Reject(ctx, tok))

	assert.Empty(t, f.mailbox.sends)
	got, err := f.store.GetDraft(ctx, "host-1", "m1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRejectMissingDraftIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tok := f.issue(t, token.ActionReject, "host-1", "never-existed")

	assert.NoError(t, f.svc.Reject(ctx, tok))
}

func TestRejectRejectsOtherActions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedDraft(t, "host-1", "m1")

	err := f.svc.Reject(ctx, f.issue(t, token.ActionApprove, "host-1", "m1"))
	assert.ErrorIs(t, err, ErrInvalidAction)
}
