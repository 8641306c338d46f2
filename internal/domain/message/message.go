package message

import "context"

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
	DirectionDraft    = "draft"
)

// ThreadRepo holds the per-(host, thread) cursor of the last message id
// already processed. Once a message id is recorded, no draft or auto-send
// action may be taken for it again.
type ThreadRepo interface {
	LastProcessedID(ctx context.Context, hostID, threadID string) (string, error)
	UpsertThreadMarker(ctx context.Context, hostID, threadID, lastMessageID string) error
}

// LogRepo is the message audit trail.
type LogRepo interface {
	LogMessage(ctx context.Context, hostID, threadID, direction, body string, meta map[string]any) error
}
