package draft

import (
	"context"
	"database/sql"
	"fmt"

	draft_domain "github.com/fxgdesigns1/cohost/internal/domain/draft"
)

type draftRepo struct {
	db *sql.DB
}

var _ draft_domain.DraftRepo = (*draftRepo)(nil)

func NewDraftRepo(db *sql.DB) draft_domain.DraftRepo {
	return &draftRepo{db: db}
}

func (r *draftRepo) CreateDraft(ctx context.Context, d *draft_domain.Draft) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO drafts (host_id, draft_id, thread_id, to_addr, subject, body, source, auto_ok, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			thread_id = VALUES(thread_id),
			to_addr = VALUES(to_addr),
			subject = VALUES(subject),
			body = VALUES(body),
			source = VALUES(source),
			auto_ok = VALUES(auto_ok),
			status = VALUES(status)`,
		d.HostID, d.DraftID, d.ThreadID, d.ToAddr, d.Subject, d.Body,
		d.Source, d.AutoOK, draft_domain.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}

	return nil
}

func (r *draftRepo) GetDraft(ctx context.Context, hostID, draftID string) (*draft_domain.Draft, error) {
	var (
		d         draft_domain.Draft
		createdAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT host_id, draft_id, thread_id, to_addr, subject, body, source, auto_ok, status, created_at
		FROM drafts WHERE host_id = ? AND draft_id = ?`,
		hostID, draftID,
	).Scan(&d.HostID, &d.DraftID, &d.ThreadID, &d.ToAddr, &d.Subject, &d.Body,
		&d.Source, &d.AutoOK, &d.Status, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	if createdAt.Valid {
		d.CreatedAt = createdAt.Time
	}

	return &d, nil
}

func (r *draftRepo) SetDraftStatus(ctx context.Context, hostID, draftID, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE drafts SET status = ? WHERE host_id = ? AND draft_id = ?`,
		status, hostID, draftID)
	if err != nil {
		return fmt.Errorf("failed to set draft status: %w", err)
	}

	return nil
}

func (r *draftRepo) DeleteDraft(ctx context.Context, hostID, draftID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE host_id = ? AND draft_id = ?`,
		hostID, draftID)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	return nil
}
