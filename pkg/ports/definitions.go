package ports

import (
	"context"

	"github.com/wadjakorntonsri/certlink/pkg/core/domain"
)

// CertificateRepository defines storage operations for issued certificates
type CertificateRepository interface {
	Create(ctx context.Context, cert *domain.Certificate) error
	GetByID(ctx context.Context, id string) (*domain.Certificate, error) // nil, nil when missing
	Delete(ctx context.Context, id string) error                         // Soft delete
	Dump(ctx context.Context) ([]domain.Certificate, error)              // For migration

	// Stats
	RecordView(ctx context.Context, view *domain.View) error
	GetViewStats(ctx context.Context, certificateID string) (*domain.ViewStats, error)
}

// EventPublisher ships certificate lifecycle events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}

// CertificateService defines the business logic operations
type CertificateService interface {
	Issue(ctx context.Context, req domain.IssueRequest) (*domain.IssuedCertificate, error)
	Preview(ctx context.Context, req domain.IssueRequest) (*domain.IssuedCertificate, error)
	Resolve(ctx context.Context, fragment string) (*domain.Resolution, error)
	LegacyURL(ctx context.Context, id string) (string, error)

	// Stats
	RecordView(ctx context.Context, certificateID, referer, userAgent, ip string) error
	GetViewStats(ctx context.Context, certificateID string) (*domain.ViewStats, error)
}
