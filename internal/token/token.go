package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionEdit    Action = "edit"
	ActionReject  Action = "reject"
)

func (a Action) valid() bool {
	switch a {
	case ActionApprove, ActionEdit, ActionReject:
		return true
	}
	return false
}

var (
	// ErrInvalidToken covers every malformed-input case: bad base64, bad
	// structure, missing fields. Decode failures are deliberately not
	// distinguished from each other.
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
)

const DefaultTTL = 7 * 24 * time.Hour

// Claims is the self-contained payload of a capability token: one action on
// one draft of one host, valid until exp.
type Claims struct {
	Action  Action `json:"a"`
	HostID  string `json:"h"`
	DraftID string `json:"d"`
	Exp     int64  `json:"exp"`
}

// Codec issues and verifies signed approval tokens. Tokens are
// base64url(payload_json) + "." + base64url(hmac_sha256(payload_b64)),
// both segments unpadded. There is no server-side state; expiry is the only
// bound on a captured link.
type Codec struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewCodec(secret, baseURL string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *Codec) sign(payload string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

func (c *Codec) Issue(action Action, hostID, draftID string, ttl time.Duration) (string, error) {
	if !action.valid() {
		return "", fmt.Errorf("unknown action %q", action)
	}
	claims := Claims{
		Action:  action,
		HostID:  hostID,
		DraftID: draftID,
		Exp:     c.now().Add(ttl).Unix(),
	}
	raw, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to encode claims: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	sig := base64.RawURLEncoding.EncodeToString(c.sign(payload))
	return payload + "." + sig, nil
}

func (c *Codec) Verify(tok string) (*Claims, error) {
	payload, sigSeg, found := strings.Cut(tok, ".")
	if !found {
		return nil, ErrInvalidToken
	}

	// Signature first, constant-time. A forged token must fail here before
	// any payload decoding can leak structure information.
	sig, err := base64.RawURLEncoding.DecodeString(sigSeg)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !hmac.Equal(sig, c.sign(payload)) {
		return nil, ErrInvalidSignature
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if !claims.Action.valid() || claims.HostID == "" || claims.DraftID == "" || claims.Exp == 0 {
		return nil, ErrInvalidToken
	}
	if c.now().Unix() > claims.Exp {
		return nil, ErrExpired
	}
	return &claims, nil
}

// Links is the approve/edit/reject URL triple exposed by one approval email.
// Each token is independently valid and independently expiring.
type Links struct {
	Approve string
	Edit    string
	Reject  string
}

func (c *Codec) ApprovalLinks(hostID, draftID string) (*Links, error) {
	links := &Links{}
	for _, entry := range []struct {
		action Action
		path   string
		dest   *string
	}{
		{ActionApprove, "/approve", &links.Approve},
		{ActionEdit, "/edit", &links.Edit},
		{ActionReject, "/reject", &links.Reject},
	} {
		tok, err := c.Issue(entry.action, hostID, draftID, c.ttl)
		if err != nil {
			return nil, err
		}
		q := url.Values{"token": {tok}}
		*entry.dest = c.baseURL + entry.path + "?" + q.Encode()
	}
	return links, nil
}
