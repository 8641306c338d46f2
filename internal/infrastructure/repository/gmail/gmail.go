package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	mailbox_domain "github.com/fxgdesigns1/cohost/internal/domain/mailbox"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

type gmailRepo struct {
	config *oauth2.Config
	ctx    context.Context
}

var _ mailbox_domain.MailboxRepo = (*gmailRepo)(nil)

func NewGmailRepo(ctx context.Context, credentialsPath, redirectURL string) (mailbox_domain.MailboxRepo, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b,
		gmail.GmailReadonlyScope,
		gmail.GmailSendScope,
		gmail.GmailModifyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	if redirectURL != "" {
		config.RedirectURL = redirectURL
	}

	return &gmailRepo{
		config: config,
		ctx:    ctx,
	}, nil
}

// getServiceWithToken creates a Gmail service using the provided OAuth token
func (r *gmailRepo) getServiceWithToken(token *oauth2.Token) (*gmail.Service, error) {
	client := r.config.Client(r.ctx, token)
	srv, err := gmail.NewService(r.ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create gmail service: %w", err)
	}
	return srv, nil
}

func (r *gmailRepo) ListInbound(ctx context.Context, token *oauth2.Token, query string, maxResults int64) ([]mailbox_domain.Ref, error) {
	service, err := r.getServiceWithToken(token)
	if err != nil {
		return nil, err
	}

	user := "me"
	msgs, err := service.Users.Messages.List(user).Q(query).MaxResults(maxResults).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %w", err)
	}

	var refs []mailbox_domain.Ref
	for _, m := range msgs.Messages {
		refs = append(refs, mailbox_domain.Ref{
			ID:       m.Id,
			ThreadID: m.ThreadId,
		})
	}

	return refs, nil
}

func (r *gmailRepo) GetMessage(ctx context.Context, token *oauth2.Token, messageID string) (*mailbox_domain.Message, error) {
	service, err := r.getServiceWithToken(token)
	if err != nil {
		return nil, err
	}

	user := "me"
	msg, err := service.Users.Messages.Get(user, messageID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message: %w", err)
	}

	var from, replyTo, to, subject string
	var date time.Time

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "From":
			from = header.Value
		case "Reply-To":
			replyTo = header.Value
		case "To":
			to = header.Value
		case "Subject":
			subject = header.Value
		case "Date":
			parsedDate, err := time.Parse(time.RFC1123Z, header.Value)
			if err != nil {
				parsedDate = time.Now()
			}
			date = parsedDate
		}
	}

	threadID := msg.ThreadId
	if threadID == "" {
		threadID = msg.Id
	}

	return &mailbox_domain.Message{
		ID:       msg.Id,
		ThreadID: threadID,
		From:     from,
		ReplyTo:  replyTo,
		To:       to,
		Subject:  subject,
		Body:     extractPlain(msg.Payload),
		Date:     date,
	}, nil
}

// extractPlain walks the MIME tree for the first text/plain part. Gmail
// encodes part bodies as unpadded base64url.
func extractPlain(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		if decoded, err := decodeBody(payload.Body.Data); err == nil {
			return decoded
		}
		return ""
	}
	for _, part := range payload.Parts {
		if text := extractPlain(part); text != "" {
			return text
		}
	}
	return ""
}

func decodeBody(data string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(data)
		if err != nil {
			return "", fmt.Errorf("unable to decode message body: %w", err)
		}
	}
	return string(decoded), nil
}

func (r *gmailRepo) Send(ctx context.Context, token *oauth2.Token, toAddr, subject, body, threadID string) error {
	service, err := r.getServiceWithToken(token)
	if err != nil {
		return err
	}

	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		toAddr, subject, body)

	msg := &gmail.Message{
		Raw: base64.RawURLEncoding.EncodeToString([]byte(raw)),
	}
	if threadID != "" {
		msg.ThreadId = threadID
	}

	user := "me"
	if _, err := service.Users.Messages.Send(user, msg).Do(); err != nil {
		return fmt.Errorf("unable to send message: %w", err)
	}

	return nil
}

func (r *gmailRepo) GetAuthURL(state string) string {
	return r.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (r *gmailRepo) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := r.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}
