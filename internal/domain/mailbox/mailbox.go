package mailbox

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Ref identifies an inbound message without its content.
type Ref struct {
	ID       string
	ThreadID string
}

type Message struct {
	ID       string
	ThreadID string
	From     string
	ReplyTo  string
	To       string
	Subject  string
	Body     string
	Date     time.Time
}

type MailboxRepo interface {
	ListInbound(ctx context.Context, token *oauth2.Token, query string, maxResults int64) ([]Ref, error)
	GetMessage(ctx context.Context, token *oauth2.Token, messageID string) (*Message, error)
	// Send dispatches a plain-text reply; a non-empty threadID keeps the
	// reply on the source conversation.
	Send(ctx context.Context, token *oauth2.Token, toAddr, subject, body, threadID string) error
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
}
