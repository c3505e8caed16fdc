package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/wadjakorntonsri/certlink/pkg/core/certid"
	"github.com/wadjakorntonsri/certlink/pkg/core/certlink"
	"github.com/wadjakorntonsri/certlink/pkg/core/domain"
	"github.com/wadjakorntonsri/certlink/pkg/ports"
)

// Options tunes a CertificateService. Zero values pick sensible defaults.
type Options struct {
	DefaultTTLDays int
	Events         ports.EventPublisher
	Logger         *slog.Logger
	Now            func() time.Time
	IDs            *certid.Generator
}

type CertificateService struct {
	repo           ports.CertificateRepository
	builder        *certlink.Builder
	ids            *certid.Generator
	events         ports.EventPublisher
	logger         *slog.Logger
	defaultTTLDays int
	now            func() time.Time
}

func NewCertificateService(repo ports.CertificateRepository, builder *certlink.Builder, opts Options) *CertificateService {
	s := &CertificateService{
		repo:           repo,
		builder:        builder,
		ids:            opts.IDs,
		events:         opts.Events,
		logger:         opts.Logger,
		defaultTTLDays: opts.DefaultTTLDays,
		now:            opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.ids == nil {
		s.ids = certid.NewGenerator(s.now, nil)
	}
	if s.events == nil {
		s.events = nopEvents{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.defaultTTLDays <= 0 {
		s.defaultTTLDays = 365
	}
	return s
}

// Issue creates a certificate, stores it and returns its share link.
func (s *CertificateService) Issue(ctx context.Context, req domain.IssueRequest) (*domain.IssuedCertificate, error) {
	issued, err := s.build(req, s.ids.New())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, issued.Certificate); err != nil {
		return nil, fmt.Errorf("store certificate: %w", err)
	}

	s.logger.Info("certificate issued",
		"certificate_id", issued.Certificate.ID,
		"organization_id", issued.Certificate.OrganizationID,
		"ttl_days", issued.Certificate.TTLDays)

	s.publish(ctx, domain.Event{
		Type:           domain.EventIssued,
		CertificateID:  issued.Certificate.ID,
		OrganizationID: issued.Certificate.OrganizationID,
		ProgramSlug:    issued.Certificate.ProgramSlug,
		OccurredAt:     issued.Certificate.CreatedAt,
	})
	return issued, nil
}

// Preview returns a share link for a DEMO certificate that is never stored.
func (s *CertificateService) Preview(ctx context.Context, req domain.IssueRequest) (*domain.IssuedCertificate, error) {
	return s.build(req, s.ids.NewDemo())
}

func (s *CertificateService) build(req domain.IssueRequest, id string) (*domain.IssuedCertificate, error) {
	if strings.TrimSpace(req.OrganizationID) == "" {
		return nil, fmt.Errorf("%w: organization id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.RecipientName) == "" {
		return nil, fmt.Errorf("%w: recipient name is required", domain.ErrInvalidInput)
	}

	ttl := s.defaultTTLDays
	if req.TTLDays != nil {
		ttl = *req.TTLDays
	}

	now := s.now()
	payload := certlink.NewPayload(req.OrganizationID, req.ProgramName, id, now, ttl)
	url, token, err := s.builder.URL(payload)
	if err != nil {
		if errors.Is(err, certlink.ErrInvalidPayload) {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		return nil, err
	}
	if ttl == 0 {
		s.logger.Warn("issuing a link that is already expired", "certificate_id", id, "ttl_days", ttl)
	}

	programID := req.ProgramID
	if programID == "" {
		programID = payload.ProgramSlug
	}

	return &domain.IssuedCertificate{
		Certificate: &domain.Certificate{
			ID:             id,
			OrganizationID: payload.OrganizationID,
			ProgramID:      programID,
			ProgramSlug:    payload.ProgramSlug,
			RecipientName:  req.RecipientName,
			RecipientEmail: req.RecipientEmail,
			IssuedAt:       payload.IssuedAt,
			TTLDays:        ttl,
			CreatedAt:      now,
		},
		Token:     token,
		URL:       url,
		ExpiresAt: payload.ExpiresAt(),
	}, nil
}

// Resolve turns an incoming share link into the certificate it points at.
// Malformed and expired links fail before any repository call.
func (s *CertificateService) Resolve(ctx context.Context, fragment string) (*domain.Resolution, error) {
	switch target := certlink.Classify(certlink.ParseFragment(fragment)).(type) {
	case certlink.LegacyPath:
		cert, err := s.lookup(ctx, target.CertificateID, target.OrganizationID)
		if err != nil {
			return nil, err
		}
		return &domain.Resolution{Certificate: cert, Format: domain.FormatLegacy}, nil

	case certlink.OpaqueToken:
		payload, err := s.builder.Codec().Decode(string(target))
		if err != nil {
			return nil, err
		}

		res := &domain.Resolution{Format: domain.FormatToken}
		if remaining, ok := certlink.TimeRemaining(payload, s.now()); ok {
			expiresAt := payload.ExpiresAt()
			if remaining <= 0 {
				return nil, &domain.ExpiredError{ExpiredAt: expiresAt, Ago: -remaining}
			}
			res.ExpiresAt = &expiresAt
			res.Remaining = remaining
			res.RemainingMS = remaining.Milliseconds()
		}
		if certid.IsDemo(payload.CertificateID) {
			res.Preview = true
			res.Certificate = &domain.Certificate{
				ID:             payload.CertificateID,
				OrganizationID: payload.OrganizationID,
				ProgramSlug:    payload.ProgramSlug,
				IssuedAt:       payload.IssuedAt,
				TTLDays:        payload.TTLDays,
			}
			return res, nil
		}

		cert, err := s.lookup(ctx, payload.CertificateID, payload.OrganizationID)
		if err != nil {
			return nil, err
		}
		res.Certificate = cert
		return res, nil
	}
	return nil, domain.ErrMalformedToken
}

// lookup fetches a certificate and checks it belongs to the organization the
// link names.
func (s *CertificateService) lookup(ctx context.Context, id, orgID string) (*domain.Certificate, error) {
	cert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup certificate: %w", err)
	}
	if cert == nil || cert.OrganizationID != orgID {
		return nil, domain.ErrNotFound
	}
	return cert, nil
}

// LegacyURL rebuilds the three-segment link of a stored certificate.
func (s *CertificateService) LegacyURL(ctx context.Context, id string) (string, error) {
	cert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if cert == nil {
		return "", domain.ErrNotFound
	}
	return s.builder.LegacyURL(cert.OrganizationID, cert.ProgramID, cert.ID), nil
}

func (s *CertificateService) RecordView(ctx context.Context, certificateID, referer, userAgent, ip string) error {
	cert, err := s.repo.GetByID(ctx, certificateID)
	if err != nil {
		return err
	}
	if cert == nil {
		return domain.ErrNotFound
	}

	view := &domain.View{
		CertificateID: cert.ID,
		Referer:       referer,
		UserAgent:     userAgent,
		IPHash:        hashIP(ip),
		CreatedAt:     s.now(),
	}
	if err := s.repo.RecordView(ctx, view); err != nil {
		return err
	}

	s.publish(ctx, domain.Event{
		Type:           domain.EventViewed,
		CertificateID:  cert.ID,
		OrganizationID: cert.OrganizationID,
		ProgramSlug:    cert.ProgramSlug,
		Referer:        referer,
		UserAgent:      userAgent,
		OccurredAt:     view.CreatedAt,
	})
	return nil
}

func (s *CertificateService) GetViewStats(ctx context.Context, certificateID string) (*domain.ViewStats, error) {
	cert, err := s.repo.GetByID(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetViewStats(ctx, certificateID)
}

// publish never fails the caller; delivery problems are only logged.
func (s *CertificateService) publish(ctx context.Context, event domain.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", "type", event.Type, "certificate_id", event.CertificateID, "error", err)
	}
}

// hashIP drops the port and hashes the address so raw IPs are never stored.
func hashIP(addr string) string {
	if addr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	sum := sha256.Sum256([]byte(host))
	return hex.EncodeToString(sum[:])
}

type nopEvents struct{}

func (nopEvents) Publish(context.Context, domain.Event) error { return nil }
func (nopEvents) Close() error                                { return nil }

var _ ports.CertificateService = (*CertificateService)(nil)
