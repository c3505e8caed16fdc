package certlink

import "strings"

// routePrefix is the hash route certificate pages live under.
const routePrefix = "certificate/"

// Target is what an incoming fragment points at: an OpaqueToken or a LegacyPath.
type Target interface {
	isTarget()
}

// OpaqueToken is a candidate for Codec.Decode. It may still be malformed.
type OpaqueToken string

// LegacyPath is the pre-token "org/program/cert" form, resolved by id lookup.
type LegacyPath struct {
	OrganizationID string
	ProgramID      string
	CertificateID  string
}

func (OpaqueToken) isTarget() {}
func (LegacyPath) isTarget()  {}

// Classify splits a fragment into a legacy path when it has exactly two '/'
// separators and three non-empty segments. Anything else is an opaque token
// candidate. Classify before decoding so legacy links are not reported as
// invalid tokens.
func Classify(fragment string) Target {
	if strings.Count(fragment, "/") == 2 {
		parts := strings.Split(fragment, "/")
		if parts[0] != "" && parts[1] != "" && parts[2] != "" {
			return LegacyPath{OrganizationID: parts[0], ProgramID: parts[1], CertificateID: parts[2]}
		}
	}
	return OpaqueToken(fragment)
}

// ParseFragment extracts the classifiable part of a share link. It accepts a
// full URL, "#/certificate/<x>", "/certificate/<x>", "certificate/<x>" or a
// bare "<x>". Query strings after the route are dropped. A bare legacy path
// whose organization is literally "certificate" is kept whole.
func ParseFragment(raw string) string {
	s := strings.TrimSpace(raw)
	anchored := false
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[i+1:]
		anchored = true
	}
	if strings.HasPrefix(s, "/") {
		anchored = true
	}
	s = NormalizePath(s)
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "/")

	if rest, ok := strings.CutPrefix(s, routePrefix); ok {
		if _, legacy := Classify(s).(LegacyPath); anchored || !legacy {
			s = rest
		}
	}
	return s
}
