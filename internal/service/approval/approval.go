package approval

import (
	"context"
	"errors"
	"fmt"

	credential_domain "github.com/fxgdesigns1/cohost/internal/domain/credential"
	draft_domain "github.com/fxgdesigns1/cohost/internal/domain/draft"
	mailbox_domain "github.com/fxgdesigns1/cohost/internal/domain/mailbox"
	message_domain "github.com/fxgdesigns1/cohost/internal/domain/message"
	"github.com/fxgdesigns1/cohost/internal/token"
)

var (
	// ErrInvalidAction means the token is authentic but was minted for a
	// different endpoint.
	ErrInvalidAction = errors.New("token action does not match endpoint")
	// ErrNotFound means the referenced draft no longer exists, usually
	// because the link was already actioned. Callers render it as a neutral
	// confirmation, not an error.
	ErrNotFound = errors.New("draft not found")
	// ErrNoCredentials means the host's mail authorization is gone.
	ErrNoCredentials = errors.New("host has no mail credentials")
)

// Service executes approval-link actions. Finalization is strictly ordered:
// the external send must succeed before the draft's status flips and the
// record is deleted, so a send failure leaves the draft pending for retry.
type Service struct {
	codec      *token.Codec
	draftRepo  draft_domain.DraftRepo
	threadRepo message_domain.ThreadRepo
	logRepo    message_domain.LogRepo
	credRepo   credential_domain.CredentialRepo
	mailbox    mailbox_domain.MailboxRepo
}

func NewService(
	codec *token.Codec,
	draftRepo draft_domain.DraftRepo,
	threadRepo message_domain.ThreadRepo,
	logRepo message_domain.LogRepo,
	credRepo credential_domain.CredentialRepo,
	mailbox mailbox_domain.MailboxRepo,
) *Service {
	return &Service{
		codec:      codec,
		draftRepo:  draftRepo,
		threadRepo: threadRepo,
		logRepo:    logRepo,
		credRepo:   credRepo,
		mailbox:    mailbox,
	}
}

// Approve sends the draft body as proposed.
func (s *Service) Approve(ctx context.Context, tok string) error {
	claims, err := s.codec.Verify(tok)
	if err != nil {
		return err
	}
	if claims.Action != token.ActionApprove {
		return ErrInvalidAction
	}
	return s.sendAndFinalize(ctx, claims, "", false)
}

// LoadDraftForEdit returns the pending draft an edit token refers to, for
// pre-filling the edit form.
func (s *Service) LoadDraftForEdit(ctx context.Context, tok string) (*draft_domain.Draft, error) {
	claims, err := s.codec.Verify(tok)
	if err != nil {
		return nil, err
	}
	if claims.Action != token.ActionEdit {
		return nil, ErrInvalidAction
	}

	d, err := s.draftRepo.GetDraft(ctx, claims.HostID, claims.DraftID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

// SendEdited sends a host-edited body. Tokens minted for either edit or
// approve are accepted, so the edit form can submit without re-minting.
func (s *Service) SendEdited(ctx context.Context, tok, body string) error {
	claims, err := s.codec.Verify(tok)
	if err != nil {
		return err
	}
	if claims.Action != token.ActionEdit && claims.Action != token.ActionApprove {
		return ErrInvalidAction
	}
	return s.sendAndFinalize(ctx, claims, body, true)
}

// Reject discards a pending draft without sending. Rejecting an
// already-finalized draft is a no-op.
func (s *Service) Reject(ctx context.Context, tok string) error {
	claims, err := s.codec.Verify(tok)
	if err != nil {
		return err
	}
	if claims.Action != token.ActionReject {
		return ErrInvalidAction
	}

	d, err := s.draftRepo.GetDraft(ctx, claims.HostID, claims.DraftID)
	if err != nil {
		return err
	}
	if d == nil {
		return nil
	}

	if err := s.draftRepo.SetDraftStatus(ctx, claims.HostID, claims.DraftID, draft_domain.StatusRejected); err != nil {
		return err
	}
	return s.draftRepo.DeleteDraft(ctx, claims.HostID, claims.DraftID)
}

func (s *Service) sendAndFinalize(ctx context.Context, claims *token.Claims, override string, edited bool) error {
	d, err := s.draftRepo.GetDraft(ctx, claims.HostID, claims.DraftID)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrNotFound
	}

	creds, err := s.credRepo.LoadCredentials(ctx, claims.HostID)
	if err != nil {
		return err
	}
	if creds == nil {
		return ErrNoCredentials
	}

	body := d.Body
	if edited && override != "" {
		body = override
	}

	if err := s.mailbox.Send(ctx, creds, d.ToAddr, "Re: "+d.Subject, body, d.ThreadID); err != nil {
		return fmt.Errorf("failed to send approved reply: %w", err)
	}

	meta := map[string]any{"approved": true}
	if edited {
		meta["edited"] = true
	}
	if err := s.logRepo.LogMessage(ctx, claims.HostID, d.ThreadID, message_domain.DirectionOutbound, body, meta); err != nil {
		return err
	}
	if err := s.threadRepo.UpsertThreadMarker(ctx, claims.HostID, d.ThreadID, claims.DraftID); err != nil {
		return err
	}
	if err := s.draftRepo.SetDraftStatus(ctx, claims.HostID, claims.DraftID, draft_domain.StatusSent); err != nil {
		return err
	}
	return s.draftRepo.DeleteDraft(ctx, claims.HostID, claims.DraftID)
}
