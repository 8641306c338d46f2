package credential

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	credential_domain "github.com/fxgdesigns1/cohost/internal/domain/credential"
	"golang.org/x/oauth2"
)

type credentialRepo struct {
	db *sql.DB
}

var _ credential_domain.CredentialRepo = (*credentialRepo)(nil)

func NewCredentialRepo(db *sql.DB) credential_domain.CredentialRepo {
	return &credentialRepo{db: db}
}

func (r *credentialRepo) SaveCredentials(ctx context.Context, hostID string, token *oauth2.Token) error {
	var refreshToken sql.NullString
	var expiresAt sql.NullInt64

	if token.RefreshToken != "" {
		refreshToken = sql.NullString{String: token.RefreshToken, Valid: true}
	}
	if !token.Expiry.IsZero() {
		expiresAt = sql.NullInt64{Int64: token.Expiry.Unix(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gmail_credentials (host_id, access_token, refresh_token, token_expires_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			access_token = VALUES(access_token),
			refresh_token = VALUES(refresh_token),
			token_expires_at = VALUES(token_expires_at)`,
		hostID, token.AccessToken, refreshToken, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}

func (r *credentialRepo) LoadCredentials(ctx context.Context, hostID string) (*oauth2.Token, error) {
	var (
		accessToken  string
		refreshToken sql.NullString
		expiresAt    sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, token_expires_at
		FROM gmail_credentials WHERE host_id = ?`,
		hostID,
	).Scan(&accessToken, &refreshToken, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	token := &oauth2.Token{AccessToken: accessToken}
	if refreshToken.Valid {
		token.RefreshToken = refreshToken.String
	}
	if expiresAt.Valid {
		token.Expiry = time.Unix(expiresAt.Int64, 0)
	}

	return token, nil
}
