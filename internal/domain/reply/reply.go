package reply

import (
	"context"
	"errors"

	"github.com/fxgdesigns1/cohost/internal/domain/tenant"
)

// ErrGeneration is returned when the generative collaborator fails. The
// caller must treat it as "no reply available" and never auto-send.
var ErrGeneration = errors.New("reply generation failed")

type Generator interface {
	Generate(ctx context.Context, messageText string, cfg *tenant.ListingConfig, guestName string) (string, error)
}
