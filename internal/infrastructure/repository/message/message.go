package message

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	message_domain "github.com/fxgdesigns1/cohost/internal/domain/message"
	"github.com/google/uuid"
)

// bodyLimit caps audit-log bodies; inbound mail can carry arbitrarily large
// quoted history.
const bodyLimit = 8000

type threadRepo struct {
	db *sql.DB
}

var _ message_domain.ThreadRepo = (*threadRepo)(nil)

func NewThreadRepo(db *sql.DB) message_domain.ThreadRepo {
	return &threadRepo{db: db}
}

func (r *threadRepo) LastProcessedID(ctx context.Context, hostID, threadID string) (string, error) {
	var lastMessageID string

	err := r.db.QueryRowContext(ctx,
		`SELECT last_message_id FROM thread_markers WHERE host_id = ? AND thread_id = ?`,
		hostID, threadID,
	).Scan(&lastMessageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get thread marker: %w", err)
	}

	return lastMessageID, nil
}

func (r *threadRepo) UpsertThreadMarker(ctx context.Context, hostID, threadID, lastMessageID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO thread_markers (host_id, thread_id, last_message_id)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE last_message_id = VALUES(last_message_id)`,
		hostID, threadID, lastMessageID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert thread marker: %w", err)
	}

	return nil
}

type logRepo struct {
	db *sql.DB
}

var _ message_domain.LogRepo = (*logRepo)(nil)

func NewLogRepo(db *sql.DB) message_domain.LogRepo {
	return &logRepo{db: db}
}

func (r *logRepo) LogMessage(ctx context.Context, hostID, threadID, direction, body string, meta map[string]any) error {
	if len(body) > bodyLimit {
		body = body[:bodyLimit]
	}
	if meta == nil {
		meta = map[string]any{}
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode message meta: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO message_log (id, host_id, thread_id, direction, body, meta)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), hostID, threadID, direction, body, rawMeta,
	)
	if err != nil {
		return fmt.Errorf("failed to log message: %w", err)
	}

	return nil
}
