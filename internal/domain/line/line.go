package line

import "context"

type LineRepo interface {
	PushMessage(ctx context.Context, userID, message string) error
	SendButtonMessage(ctx context.Context, userID, text, buttonText, buttonURL string) error
}
