package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	tenant_domain "github.com/fxgdesigns1/cohost/internal/domain/tenant"
)

type tenantRepo struct {
	db *sql.DB
}

var _ tenant_domain.TenantRepo = (*tenantRepo)(nil)

func NewTenantRepo(db *sql.DB) tenant_domain.TenantRepo {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) UpsertTenant(ctx context.Context, t *tenant_domain.Tenant) error {
	var lineUserID sql.NullString
	if t.LineUserID != nil {
		lineUserID = sql.NullString{String: *t.LineUserID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenants (host_id, host_email, line_user_id, active)
		VALUES (?, ?, ?, FALSE)
		ON DUPLICATE KEY UPDATE
			host_email = VALUES(host_email),
			line_user_id = VALUES(line_user_id)`,
		t.HostID, t.HostEmail, lineUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert tenant: %w", err)
	}

	return nil
}

func (r *tenantRepo) GetTenant(ctx context.Context, hostID string) (*tenant_domain.Tenant, error) {
	var (
		t          tenant_domain.Tenant
		lineUserID sql.NullString
		createdAt  sql.NullTime
		updatedAt  sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT host_id, host_email, line_user_id, active, created_at, updated_at
		FROM tenants WHERE host_id = ?`,
		hostID,
	).Scan(&t.HostID, &t.HostEmail, &lineUserID, &t.Active, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	if lineUserID.Valid {
		id := lineUserID.String
		t.LineUserID = &id
	}
	if createdAt.Valid {
		t.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		t.UpdatedAt = updatedAt.Time
	}

	return &t, nil
}

func (r *tenantRepo) SetActive(ctx context.Context, hostID string, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET active = ? WHERE host_id = ?`, active, hostID)
	if err != nil {
		return fmt.Errorf("failed to set tenant active flag: %w", err)
	}

	return nil
}

func (r *tenantRepo) ListActiveHostIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT host_id FROM tenants WHERE active = TRUE ORDER BY host_id LIMIT 200`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}
	defer rows.Close()

	var hostIDs []string
	for rows.Next() {
		var hostID string
		if err := rows.Scan(&hostID); err != nil {
			return nil, fmt.Errorf("failed to scan host id: %w", err)
		}
		hostIDs = append(hostIDs, hostID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active tenants: %w", err)
	}

	return hostIDs, nil
}

func (r *tenantRepo) SaveListingConfig(ctx context.Context, hostID, listingID string, cfg *tenant_domain.ListingConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode listing config: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO listing_configs (host_id, listing_id, config)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE config = VALUES(config)`,
		hostID, listingID, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to save listing config: %w", err)
	}

	return nil
}

func (r *tenantRepo) GetListingConfig(ctx context.Context, hostID, listingID string) (*tenant_domain.ListingConfig, error) {
	var raw []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT config FROM listing_configs WHERE host_id = ? AND listing_id = ?`,
		hostID, listingID,
	).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return tenant_domain.DefaultListingConfig(), nil
		}
		return nil, fmt.Errorf("failed to get listing config: %w", err)
	}

	var cfg tenant_domain.ListingConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode listing config: %w", err)
	}

	return &cfg, nil
}
