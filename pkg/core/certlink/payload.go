// Package certlink turns certificate share links into opaque URL tokens and back.
//
// A token carries a LinkPayload, is decodable without server state and fails
// to decode when any character is altered. Older three-segment links
// (org/program/cert) are recognized by Classify and never reach the codec.
package certlink

import (
	"fmt"
	"strings"
	"time"

	"github.com/wadjakorntonsri/certlink/pkg/core/certid"
)

const (
	// MaxOrganizationIDLength bounds the tenant id carried in a token.
	MaxOrganizationIDLength = 128
	// MaxTTLDays keeps ExpiresAt inside time.Duration range.
	MaxTTLDays = 36500

	delimiter = "|"
)

// LinkPayload is everything a share link needs to locate and time-limit a certificate.
type LinkPayload struct {
	OrganizationID string
	ProgramSlug    string
	CertificateID  string
	IssuedAt       time.Time
	TTLDays        int
}

// NewPayload builds a payload issued at the given instant, slugging the program
// name and truncating the instant to milliseconds.
func NewPayload(orgID, programName, certificateID string, issuedAt time.Time, ttlDays int) LinkPayload {
	return LinkPayload{
		OrganizationID: orgID,
		ProgramSlug:    Slugify(programName),
		CertificateID:  certificateID,
		IssuedAt:       time.UnixMilli(issuedAt.UnixMilli()).UTC(),
		TTLDays:        ttlDays,
	}
}

// Equal compares payloads field by field, instants by Time.Equal.
func (p LinkPayload) Equal(q LinkPayload) bool {
	return p.OrganizationID == q.OrganizationID &&
		p.ProgramSlug == q.ProgramSlug &&
		p.CertificateID == q.CertificateID &&
		p.IssuedAt.Equal(q.IssuedAt) &&
		p.TTLDays == q.TTLDays
}

// Validate reports why p could not survive an encode/decode round trip.
func (p LinkPayload) Validate() error {
	switch {
	case p.OrganizationID == "":
		return fmt.Errorf("%w: organization id is required", ErrInvalidPayload)
	case len(p.OrganizationID) > MaxOrganizationIDLength:
		return fmt.Errorf("%w: organization id longer than %d bytes", ErrInvalidPayload, MaxOrganizationIDLength)
	case strings.Contains(p.OrganizationID, delimiter):
		return fmt.Errorf("%w: organization id contains %q", ErrInvalidPayload, delimiter)
	case p.IssuedAt.IsZero():
		return fmt.Errorf("%w: issue time is required", ErrInvalidPayload)
	case !certid.Valid(p.CertificateID):
		return fmt.Errorf("%w: malformed certificate id %q", ErrInvalidPayload, p.CertificateID)
	case p.TTLDays < 0 || p.TTLDays > MaxTTLDays:
		return fmt.Errorf("%w: ttl must be between 0 and %d days", ErrInvalidPayload, MaxTTLDays)
	}
	return nil
}
