package certlink

import (
	"strings"
	"testing"
	"time"
)

func TestBuildURL(t *testing.T) {
	if got := BuildURL("https://certs.example.com", "tok"); got != "https://certs.example.com/#/certificate/tok" {
		t.Errorf("BuildURL = %q", got)
	}
	if got := BuildURL("https://certs.example.com/", "tok"); got != "https://certs.example.com/#/certificate/tok" {
		t.Errorf("BuildURL with trailing slash = %q", got)
	}
}

func TestBuildLegacyURL(t *testing.T) {
	got := BuildLegacyURL("https://certs.example.com", "org1", "prog2", "cert3")
	if got != "https://certs.example.com/#/certificate/org1/prog2/cert3" {
		t.Errorf("BuildLegacyURL = %q", got)
	}
	if target := Classify(ParseFragment(got)); target != (LegacyPath{OrganizationID: "org1", ProgramID: "prog2", CertificateID: "cert3"}) {
		t.Errorf("legacy URL classified as %#v", target)
	}
}

// The full issue/share/open flow for one certificate.
func TestEndToEnd_ShareAndOpen(t *testing.T) {
	const origin = "https://certs.example.com"
	payload := LinkPayload{
		OrganizationID: "org_42",
		ProgramSlug:    "intro-to-rust",
		CertificateID:  "CERT-1700000000000-AB12CD34",
		IssuedAt:       time.UnixMilli(1700000000000),
		TTLDays:        365,
	}
	b := NewBuilder(origin, mustCodec(t, Unsigned, nil))

	shareURL, token, err := b.URL(payload)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if shareURL != origin+"/#/certificate/"+token {
		t.Fatalf("share URL = %q", shareURL)
	}

	target, ok := Classify(ParseFragment(shareURL)).(OpaqueToken)
	if !ok {
		t.Fatalf("share URL not classified as a token")
	}
	decoded, err := b.Codec().Decode(string(target))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.CertificateID != payload.CertificateID || decoded.OrganizationID != payload.OrganizationID {
		t.Errorf("decoded %+v", decoded)
	}

	if IsExpired(decoded, time.UnixMilli(1700000000000+1000)) {
		t.Error("link expired one second after issuance")
	}
	later := time.UnixMilli(1700000000000).Add(365*24*time.Hour + 24*time.Hour)
	if !IsExpired(decoded, later) {
		t.Error("link still valid a year and a day after issuance")
	}
	if strings.Contains(token, "/") {
		t.Errorf("token contains '/': %s", token)
	}
}
