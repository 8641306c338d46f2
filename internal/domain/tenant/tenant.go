package tenant

import (
	"context"
	"time"
)

type Tenant struct {
	HostID     string
	HostEmail  string
	LineUserID *string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ListingConfig struct {
	CheckInAfter            string   `json:"check_in_after"`
	CheckOutBefore          string   `json:"check_out_before"`
	WifiSSID                string   `json:"wifi_ssid"`
	WifiPassword            string   `json:"wifi_password"`
	ParkingNotes            string   `json:"parking_notes"`
	Tone                    string   `json:"tone"`
	BlockedAutoSendKeywords []string `json:"blocked_auto_send_keywords"`
}

// DefaultListingConfig is what the policy and generative layers see for a
// tenant that never stored a config of their own.
func DefaultListingConfig() *ListingConfig {
	return &ListingConfig{
		CheckInAfter:   "15:00",
		CheckOutBefore: "11:00",
		WifiSSID:       "Home-Guest",
		WifiPassword:   "StayHappy2025",
		ParkingNotes:   "Free on-street after 18:00; nearest paid car park on King St.",
		Tone:           "friendly, concise, professional",
		BlockedAutoSendKeywords: []string{
			"refund", "discount", "damage", "compensation", "price match", "exception",
		},
	}
}

type TenantRepo interface {
	UpsertTenant(ctx context.Context, t *Tenant) error
	GetTenant(ctx context.Context, hostID string) (*Tenant, error)
	SetActive(ctx context.Context, hostID string, active bool) error
	ListActiveHostIDs(ctx context.Context) ([]string, error)
	SaveListingConfig(ctx context.Context, hostID, listingID string, cfg *ListingConfig) error
	GetListingConfig(ctx context.Context, hostID, listingID string) (*ListingConfig, error)
}
