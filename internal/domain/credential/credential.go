package credential

import (
	"context"

	"golang.org/x/oauth2"
)

// CredentialRepo stores per-host mail-provider OAuth tokens. LoadCredentials
// returns (nil, nil) when the host never completed authorization; the poller
// treats that as a skip, not an error.
type CredentialRepo interface {
	SaveCredentials(ctx context.Context, hostID string, token *oauth2.Token) error
	LoadCredentials(ctx context.Context, hostID string) (*oauth2.Token, error)
}
