// Package memory holds in-memory implementations of the storage interfaces.
// It is selected explicitly by configuration for development and tests; it is
// never a runtime fallback on database failure.
package memory

import (
	"context"
	"sync"
	"time"

	credential_domain "github.com/fxgdesigns1/cohost/internal/domain/credential"
	draft_domain "github.com/fxgdesigns1/cohost/internal/domain/draft"
	message_domain "github.com/fxgdesigns1/cohost/internal/domain/message"
	tenant_domain "github.com/fxgdesigns1/cohost/internal/domain/tenant"
	"golang.org/x/oauth2"
)

type LogEntry struct {
	HostID    string
	ThreadID  string
	Direction string
	Body      string
	Meta      map[string]any
	At        time.Time
}

type Store struct {
	mu       sync.RWMutex
	tenants  map[string]*tenant_domain.Tenant
	listings map[string]*tenant_domain.ListingConfig
	creds    map[string]*oauth2.Token
	drafts   map[string]*draft_domain.Draft
	markers  map[string]string
	logs     []LogEntry
}

var (
	_ tenant_domain.TenantRepo         = (*Store)(nil)
	_ credential_domain.CredentialRepo = (*Store)(nil)
	_ draft_domain.DraftRepo           = (*Store)(nil)
	_ message_domain.ThreadRepo        = (*Store)(nil)
	_ message_domain.LogRepo           = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		tenants:  make(map[string]*tenant_domain.Tenant),
		listings: make(map[string]*tenant_domain.ListingConfig),
		creds:    make(map[string]*oauth2.Token),
		drafts:   make(map[string]*draft_domain.Draft),
		markers:  make(map[string]string),
	}
}

// Every key is scoped by host id; no operation can touch another tenant's
// records.
func scoped(hostID, id string) string {
	return hostID + "\x00" + id
}

func (s *Store) UpsertTenant(ctx context.Context, t *tenant_domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *t
	if existing, ok := s.tenants[t.HostID]; ok {
		stored.Active = existing.Active
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.Active = false
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = time.Now()
	s.tenants[t.HostID] = &stored
	return nil
}

func (s *Store) GetTenant(ctx context.Context, hostID string) (*tenant_domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[hostID]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (s *Store) SetActive(ctx context.Context, hostID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tenants[hostID]; ok {
		t.Active = active
		t.UpdatedAt = time.Now()
	}
	return nil
}

func (s *Store) ListActiveHostIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hostIDs []string
	for hostID, t := range s.tenants {
		if t.Active {
			hostIDs = append(hostIDs, hostID)
		}
	}
	return hostIDs, nil
}

func (s *Store) SaveListingConfig(ctx context.Context, hostID, listingID string, cfg *tenant_domain.ListingConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *cfg
	s.listings[scoped(hostID, listingID)] = &copied
	return nil
}

func (s *Store) GetListingConfig(ctx context.Context, hostID, listingID string) (*tenant_domain.ListingConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.listings[scoped(hostID, listingID)]
	if !ok {
		return tenant_domain.DefaultListingConfig(), nil
	}
	copied := *cfg
	return &copied, nil
}

func (s *Store) SaveCredentials(ctx context.Context, hostID string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *token
	s.creds[hostID] = &copied
	return nil
}

func (s *Store) LoadCredentials(ctx context.Context, hostID string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.creds[hostID]
	if !ok {
		return nil, nil
	}
	copied := *token
	return &copied, nil
}

func (s *Store) CreateDraft(ctx context.Context, d *draft_domain.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *d
	stored.Status = draft_domain.StatusPending
	stored.CreatedAt = time.Now()
	s.drafts[scoped(d.HostID, d.DraftID)] = &stored
	return nil
}

func (s *Store) GetDraft(ctx context.Context, hostID, draftID string) (*draft_domain.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[scoped(hostID, draftID)]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (s *Store) SetDraftStatus(ctx context.Context, hostID, draftID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.drafts[scoped(hostID, draftID)]; ok {
		d.Status = status
	}
	return nil
}

func (s *Store) DeleteDraft(ctx context.Context, hostID, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, scoped(hostID, draftID))
	return nil
}

func (s *Store) LastProcessedID(ctx context.Context, hostID, threadID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.markers[scoped(hostID, threadID)], nil
}

func (s *Store) UpsertThreadMarker(ctx context.Context, hostID, threadID, lastMessageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers[scoped(hostID, threadID)] = lastMessageID
	return nil
}

func (s *Store) LogMessage(ctx context.Context, hostID, threadID, direction, body string, meta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(body) > 8000 {
		body = body[:8000]
	}
	s.logs = append(s.logs, LogEntry{
		HostID:    hostID,
		ThreadID:  threadID,
		Direction: direction,
		Body:      body,
		Meta:      meta,
		At:        time.Now(),
	})
	return nil
}

// Logs returns a snapshot of the audit log, for tests.
func (s *Store) Logs() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// DraftCount returns the number of stored drafts, for tests.
func (s *Store) DraftCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.drafts)
}
