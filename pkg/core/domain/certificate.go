package domain

import "time"

// Certificate is the issued record a shared link points at.
type Certificate struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	ProgramID      string     `json:"program_id"`
	ProgramSlug    string     `json:"program_slug"`
	RecipientName  string     `json:"recipient_name"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	IssuedAt       time.Time  `json:"issued_at"`
	TTLDays        int        `json:"ttl_days"`
	Views          int64      `json:"views,omitempty"` // Aggregated count
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// IssuedCertificate is returned to the dashboard after issuance.
type IssuedCertificate struct {
	Certificate *Certificate `json:"certificate"`
	Token       string       `json:"token"`
	URL         string       `json:"url"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// LinkFormat tells which URL form a resolution came through.
type LinkFormat string

const (
	FormatToken  LinkFormat = "token"
	FormatLegacy LinkFormat = "legacy"
)

// Resolution is the outcome of opening a shared certificate link.
type Resolution struct {
	Certificate *Certificate `json:"certificate"`
	Format      LinkFormat   `json:"format"`
	Preview     bool         `json:"preview,omitempty"`
	// ExpiresAt and Remaining are unset for legacy links, which carry no window.
	ExpiresAt   *time.Time    `json:"expires_at,omitempty"`
	Remaining   time.Duration `json:"-"`
	RemainingMS int64         `json:"remaining_ms,omitempty"`
}

// IssueRequest is what the dashboard submits to issue a certificate.
type IssueRequest struct {
	OrganizationID string `json:"organization_id"`
	ProgramID      string `json:"program_id"`
	ProgramName    string `json:"program_name"`
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email,omitempty"`
	// Nil selects the configured default. Zero is accepted and yields a link
	// that is already expired.
	TTLDays *int `json:"ttl_days,omitempty"`
}
