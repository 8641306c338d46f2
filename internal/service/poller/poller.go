package poller

import (
	"context"
	"fmt"
	"log/slog"

	credential_domain "github.com/fxgdesigns1/cohost/internal/domain/credential"
	draft_domain "github.com/fxgdesigns1/cohost/internal/domain/draft"
	line_domain "github.com/fxgdesigns1/cohost/internal/domain/line"
	mailbox_domain "github.com/fxgdesigns1/cohost/internal/domain/mailbox"
	message_domain "github.com/fxgdesigns1/cohost/internal/domain/message"
	reply_domain "github.com/fxgdesigns1/cohost/internal/domain/reply"
	tenant_domain "github.com/fxgdesigns1/cohost/internal/domain/tenant"
	"github.com/fxgdesigns1/cohost/internal/policy"
	"github.com/fxgdesigns1/cohost/internal/token"
	"golang.org/x/oauth2"
)

const (
	DefaultQuery      = "label:inbox newer_than:1d from:airbnb.com"
	DefaultMaxResults = 10
)

// HostResult reports one tenant's share of a batch poll. Skipped is set when
// the tenant was not processed at all (no credentials, or its cycle failed).
type HostResult struct {
	HostID  string `json:"hostId"`
	Skipped string `json:"skipped,omitempty"`
	Handled int    `json:"handled"`
	Drafted int    `json:"drafted"`
}

type Service struct {
	tenantRepo tenant_domain.TenantRepo
	credRepo   credential_domain.CredentialRepo
	mailbox    mailbox_domain.MailboxRepo
	draftRepo  draft_domain.DraftRepo
	threadRepo message_domain.ThreadRepo
	logRepo    message_domain.LogRepo
	engine     *policy.Engine
	generator  reply_domain.Generator
	lineRepo   line_domain.LineRepo
	codec      *token.Codec

	query      string
	maxResults int64
	autoMode   bool
}

type Config struct {
	Query      string
	MaxResults int64
	AutoMode   bool
}

func NewService(
	tenantRepo tenant_domain.TenantRepo,
	credRepo credential_domain.CredentialRepo,
	mailbox mailbox_domain.MailboxRepo,
	draftRepo draft_domain.DraftRepo,
	threadRepo message_domain.ThreadRepo,
	logRepo message_domain.LogRepo,
	engine *policy.Engine,
	generator reply_domain.Generator,
	lineRepo line_domain.LineRepo,
	codec *token.Codec,
	cfg Config,
) *Service {
	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	return &Service{
		tenantRepo: tenantRepo,
		credRepo:   credRepo,
		mailbox:    mailbox,
		draftRepo:  draftRepo,
		threadRepo: threadRepo,
		logRepo:    logRepo,
		engine:     engine,
		generator:  generator,
		lineRepo:   lineRepo,
		codec:      codec,
		query:      cfg.Query,
		maxResults: cfg.MaxResults,
		autoMode:   cfg.AutoMode,
	}
}

// PollAll runs one batch cycle over every active tenant. One tenant's
// failure never aborts the rest of the batch.
func (s *Service) PollAll(ctx context.Context) ([]HostResult, error) {
	hostIDs, err := s.tenantRepo.ListActiveHostIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}

	results := make([]HostResult, 0, len(hostIDs))
	for _, hostID := range hostIDs {
		result, err := s.ProcessHost(ctx, hostID)
		if err != nil {
			slog.Error("poll cycle failed for tenant", "host_id", hostID, "error", err)
			results = append(results, HostResult{HostID: hostID, Skipped: "error"})
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

// ProcessHost pulls recent inbound messages for one tenant and routes each
// to auto-send or the approval workflow. The thread cursor is advanced only
// after the corresponding action completed, so a crash mid-message causes a
// reprocess on the next poll rather than a lost message.
func (s *Service) ProcessHost(ctx context.Context, hostID string) (HostResult, error) {
	creds, err := s.credRepo.LoadCredentials(ctx, hostID)
	if err != nil {
		return HostResult{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds == nil {
		return HostResult{HostID: hostID, Skipped: "no_creds"}, nil
	}

	t, err := s.tenantRepo.GetTenant(ctx, hostID)
	if err != nil {
		return HostResult{}, fmt.Errorf("failed to get tenant: %w", err)
	}

	refs, err := s.mailbox.ListInbound(ctx, creds, s.query, s.maxResults)
	if err != nil {
		return HostResult{}, fmt.Errorf("failed to list inbound messages: %w", err)
	}

	result := HostResult{HostID: hostID}
	for _, ref := range refs {
		msg, err := s.mailbox.GetMessage(ctx, creds, ref.ID)
		if err != nil {
			return result, fmt.Errorf("failed to fetch message %s: %w", ref.ID, err)
		}

		handled, drafted, err := s.processMessage(ctx, hostID, t, creds, msg)
		if err != nil {
			return result, fmt.Errorf("failed to process message %s: %w", msg.ID, err)
		}
		if handled {
			result.Handled++
		}
		if drafted {
			result.Drafted++
		}
	}

	return result, nil
}

func (s *Service) processMessage(
	ctx context.Context,
	hostID string,
	t *tenant_domain.Tenant,
	creds *oauth2.Token,
	msg *mailbox_domain.Message,
) (handled, drafted bool, err error) {
	last, err := s.threadRepo.LastProcessedID(ctx, hostID, msg.ThreadID)
	if err != nil {
		return false, false, fmt.Errorf("failed to read thread cursor: %w", err)
	}
	if last == msg.ID {
		// Already actioned in a previous poll; nothing may happen twice.
		return false, false, nil
	}

	if err := s.logRepo.LogMessage(ctx, hostID, msg.ThreadID, message_domain.DirectionInbound,
		msg.Body, map[string]any{"subject": msg.Subject}); err != nil {
		return false, false, err
	}

	cfg, err := s.tenantRepo.GetListingConfig(ctx, hostID, "default")
	if err != nil {
		return false, false, fmt.Errorf("failed to get listing config: %w", err)
	}

	text, autoOK, _ := s.engine.Classify(msg.Body, "there")
	source := draft_domain.SourceTemplate
	if text == "" {
		if s.generator == nil {
			slog.Error("no reply generator configured, leaving message for next poll",
				"host_id", hostID, "message_id", msg.ID)
			return false, false, nil
		}
		text, err = s.generator.Generate(ctx, msg.Body, cfg, "there")
		if err != nil {
			// Generation failure means no reply is available. Leave the
			// cursor untouched so the next poll retries.
			slog.Error("reply generation failed", "host_id", hostID, "message_id", msg.ID, "error", err)
			return false, false, nil
		}
		autoOK = false
		source = draft_domain.SourceLLM
	}

	toAddr := msg.ReplyTo
	if toAddr == "" {
		toAddr = msg.From
	}

	if s.autoMode && autoOK {
		if err := s.mailbox.Send(ctx, creds, toAddr, "Re: "+msg.Subject, text, msg.ThreadID); err != nil {
			return false, false, fmt.Errorf("failed to auto-send reply: %w", err)
		}
		if err := s.logRepo.LogMessage(ctx, hostID, msg.ThreadID, message_domain.DirectionOutbound,
			text, map[string]any{"auto_sent": true, "source": source}); err != nil {
			return false, false, err
		}
		handled = true
	} else {
		if err := s.draftForApproval(ctx, hostID, t, creds, msg, toAddr, text, source, autoOK); err != nil {
			return false, false, err
		}
		drafted = true
	}

	// Cursor last: a crash before this line reprocesses the message, which
	// draft creation tolerates (draft id = message id).
	if err := s.threadRepo.UpsertThreadMarker(ctx, hostID, msg.ThreadID, msg.ID); err != nil {
		return false, false, fmt.Errorf("failed to advance thread cursor: %w", err)
	}

	return handled, drafted, nil
}

func (s *Service) draftForApproval(
	ctx context.Context,
	hostID string,
	t *tenant_domain.Tenant,
	creds *oauth2.Token,
	msg *mailbox_domain.Message,
	toAddr, text, source string,
	autoOK bool,
) error {
	d := &draft_domain.Draft{
		HostID:   hostID,
		DraftID:  msg.ID,
		ThreadID: msg.ThreadID,
		ToAddr:   toAddr,
		Subject:  msg.Subject,
		Body:     text,
		Source:   source,
		AutoOK:   autoOK,
		Status:   draft_domain.StatusPending,
	}
	if err := s.draftRepo.CreateDraft(ctx, d); err != nil {
		return err
	}

	links, err := s.codec.ApprovalLinks(hostID, msg.ID)
	if err != nil {
		return fmt.Errorf("failed to mint approval links: %w", err)
	}

	if t != nil && t.HostEmail != "" {
		body := approvalEmailBody(msg.Subject, text, links)
		if err := s.mailbox.Send(ctx, creds, t.HostEmail, "[Approve] "+msg.Subject, body, ""); err != nil {
			return fmt.Errorf("failed to send approval email: %w", err)
		}
	}

	// LINE push is best effort; the approval email is the channel of record.
	if s.lineRepo != nil && t != nil && t.LineUserID != nil {
		notice := fmt.Sprintf("A guest reply is awaiting your approval.\n\nSubject: %s", msg.Subject)
		if err := s.lineRepo.SendButtonMessage(ctx, *t.LineUserID, notice, "Review draft", links.Edit); err != nil {
			slog.Warn("failed to push LINE notification", "host_id", hostID, "error", err)
		}
	}

	if err := s.logRepo.LogMessage(ctx, hostID, msg.ThreadID, message_domain.DirectionDraft,
		text, map[string]any{"auto_sent": false, "source": source}); err != nil {
		return err
	}

	slog.Info("draft created", "host_id", hostID, "draft_id", msg.ID, "source", source)
	return nil
}

func approvalEmailBody(subject, preview string, links *token.Links) string {
	return fmt.Sprintf(
		"Approval needed for a guest reply.\n\n"+
			"Subject: %s\n\n"+
			"Draft reply:\n"+
			"--------------------------------\n"+
			"%s\n"+
			"--------------------------------\n\n"+
			"Approve: %s\n"+
			"Edit & Send: %s\n"+
			"Reject: %s\n\n"+
			"-- AI Co-Host",
		subject, preview, links.Approve, links.Edit, links.Reject,
	)
}
