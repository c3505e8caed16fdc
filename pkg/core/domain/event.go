package domain

import "time"

// EventType names a certificate lifecycle event.
type EventType string

const (
	EventIssued EventType = "certificate.issued"
	EventViewed EventType = "certificate.viewed"
)

// Event is published when a certificate is issued or its page is opened.
type Event struct {
	Type           EventType `json:"type"`
	CertificateID  string    `json:"certificate_id"`
	OrganizationID string    `json:"organization_id"`
	ProgramSlug    string    `json:"program_slug,omitempty"`
	Referer        string    `json:"referer,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
