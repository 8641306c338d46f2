package draft

import (
	"context"
	"time"
)

const (
	StatusPending  = "pending"
	StatusSent     = "sent"
	StatusRejected = "rejected"
)

const (
	SourceTemplate = "template"
	SourceLLM      = "llm"
)

// Draft is a proposed but unsent reply awaiting host disposition. DraftID is
// the source inbound message id, so re-creating a draft for the same message
// overwrites rather than duplicates.
type Draft struct {
	HostID    string
	DraftID   string
	ThreadID  string
	ToAddr    string
	Subject   string
	Body      string
	Source    string
	AutoOK    bool
	Status    string
	CreatedAt time.Time
}

type DraftRepo interface {
	// CreateDraft upserts; duplicate suppression happens at the thread
	// cursor, not here.
	CreateDraft(ctx context.Context, d *Draft) error
	// GetDraft returns (nil, nil) for a missing or already-finalized draft.
	GetDraft(ctx context.Context, hostID, draftID string) (*Draft, error)
	SetDraftStatus(ctx context.Context, hostID, draftID, status string) error
	DeleteDraft(ctx context.Context, hostID, draftID string) error
}
