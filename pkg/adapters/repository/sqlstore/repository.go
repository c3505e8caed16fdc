package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"                  // Postgres driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/certlink/pkg/core/domain"
	"github.com/wadjakorntonsri/certlink/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

type SQLRepository struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// NewSQLRepository opens dbURL with the driver its scheme implies and
// creates the schema if needed.
func NewSQLRepository(dbURL string) (*SQLRepository, error) {
	d := dialectFor(dbURL)

	db, err := sql.Open(d.driver, dbURL)
	if err != nil {
		return nil, err
	}
	if d.driver == "sqlite" {
		// One writer at a time; shared-cache memory databases fail fast on table locks
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", d.driver, err)
	}

	if err := migrate(db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLRepository{db: db, dialect: d, now: time.Now}, nil
}

// Close releases the connection pool.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func migrate(db *sql.DB, d dialect) error {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const certificateColumns = `id, organization_id, program_id, program_slug, recipient_name, recipient_email,
	issued_at_ms, ttl_days, views, created_at_ms, deleted_at_ms`

func (r *SQLRepository) Create(ctx context.Context, cert *domain.Certificate) error {
	query := `INSERT INTO certificates (id, organization_id, program_id, program_slug, recipient_name,
			  recipient_email, issued_at_ms, ttl_days, created_at_ms)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(query),
		cert.ID, cert.OrganizationID, cert.ProgramID, cert.ProgramSlug, cert.RecipientName,
		cert.RecipientEmail, cert.IssuedAt.UnixMilli(), cert.TTLDays, cert.CreatedAt.UnixMilli())
	return err
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*domain.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = ? AND deleted_at_ms IS NULL`

	cert, err := scanCertificate(r.db.QueryRowContext(ctx, r.dialect.rebind(query), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cert, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE certificates SET deleted_at_ms = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(query), r.now().UnixMilli(), id)
	return err
}

func (r *SQLRepository) Dump(ctx context.Context) ([]domain.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates ORDER BY created_at_ms`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []domain.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, *c)
	}
	return certs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCertificate(s scanner) (*domain.Certificate, error) {
	var (
		c                   domain.Certificate
		programID, slug     sql.NullString
		recipient, email    sql.NullString
		issuedMs, createdMs int64
		deletedMs           sql.NullInt64
	)
	if err := s.Scan(&c.ID, &c.OrganizationID, &programID, &slug, &recipient, &email,
		&issuedMs, &c.TTLDays, &c.Views, &createdMs, &deletedMs); err != nil {
		return nil, err
	}
	c.ProgramID = programID.String
	c.ProgramSlug = slug.String
	c.RecipientName = recipient.String
	c.RecipientEmail = email.String
	c.IssuedAt = time.UnixMilli(issuedMs).UTC()
	c.CreatedAt = time.UnixMilli(createdMs).UTC()
	if deletedMs.Valid {
		t := time.UnixMilli(deletedMs.Int64).UTC()
		c.DeletedAt = &t
	}
	return &c, nil
}

func (r *SQLRepository) RecordView(ctx context.Context, view *domain.View) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Insert View Record
	queryView := `INSERT INTO certificate_views (certificate_id, referer, user_agent, ip_hash, created_at_ms) VALUES (?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, r.dialect.rebind(queryView),
		view.CertificateID, view.Referer, view.UserAgent, view.IPHash, view.CreatedAt.UnixMilli())
	if err != nil {
		return err
	}

	// 2. Increment Certificate Views Counter (Atomic)
	queryCount := `UPDATE certificates SET views = views + 1 WHERE id = ?`
	_, err = tx.ExecContext(ctx, r.dialect.rebind(queryCount), view.CertificateID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SQLRepository) GetViewStats(ctx context.Context, certificateID string) (*domain.ViewStats, error) {
	stats := &domain.ViewStats{
		Referrers:  make(map[string]int64),
		DailyViews: []domain.DailyViews{},
	}

	// Total Views
	err := r.db.QueryRowContext(ctx, r.dialect.rebind(`SELECT COUNT(*) FROM certificate_views WHERE certificate_id = ?`), certificateID).Scan(&stats.TotalViews)
	if err != nil {
		return nil, err
	}

	// Referrers
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(`SELECT COALESCE(referer, ''), COUNT(*) AS c FROM certificate_views
		WHERE certificate_id = ? GROUP BY referer ORDER BY c DESC LIMIT 10`), certificateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ref string
		var count int64
		if err := rows.Scan(&ref, &count); err != nil {
			return nil, err
		}
		if ref == "" {
			ref = "Direct"
		}
		stats.Referrers[ref] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// Daily Views (Last 30 days)
	rows2, err := r.db.QueryContext(ctx, r.dialect.rebind(`
		SELECT `+r.dialect.day+` AS day, COUNT(*)
		FROM certificate_views
		WHERE certificate_id = ?
		GROUP BY day
		ORDER BY day DESC
		LIMIT 30`), certificateID)
	if err != nil {
		return nil, err
	}
	defer rows2.Close()
	for rows2.Next() {
		var dv domain.DailyViews
		if err := rows2.Scan(&dv.Date, &dv.Count); err != nil {
			return nil, err
		}
		stats.DailyViews = append(stats.DailyViews, dv)
	}

	return stats, rows2.Err()
}

type dialect struct {
	driver string
	schema []string
	day    string // buckets created_at_ms into YYYY-MM-DD (UTC)
}

func (d dialect) rebind(query string) string {
	if d.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dialectFor(dbURL string) dialect {
	switch {
	case strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://"):
		return dialect{
			driver: "pgx",
			schema: postgresSchema,
			day:    `to_char(to_timestamp(created_at_ms / 1000) AT TIME ZONE 'UTC', 'YYYY-MM-DD')`,
		}
	case strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://"):
		return dialect{driver: "libsql", schema: sqliteSchema, day: sqliteDay}
	default:
		return dialect{driver: "sqlite", schema: sqliteSchema, day: sqliteDay}
	}
}

const sqliteDay = `strftime('%Y-%m-%d', created_at_ms / 1000, 'unixepoch')`

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS certificates (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		program_id TEXT,
		program_slug TEXT,
		recipient_name TEXT,
		recipient_email TEXT,
		issued_at_ms INTEGER NOT NULL,
		ttl_days INTEGER NOT NULL,
		views INTEGER DEFAULT 0,
		created_at_ms INTEGER NOT NULL,
		deleted_at_ms INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_certificates_org ON certificates(organization_id)`,
	`CREATE TABLE IF NOT EXISTS certificate_views (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		certificate_id TEXT NOT NULL,
		referer TEXT,
		user_agent TEXT,
		ip_hash TEXT,
		created_at_ms INTEGER NOT NULL,
		FOREIGN KEY(certificate_id) REFERENCES certificates(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_certificate_views_cert ON certificate_views(certificate_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS certificates (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		program_id TEXT,
		program_slug TEXT,
		recipient_name TEXT,
		recipient_email TEXT,
		issued_at_ms BIGINT NOT NULL,
		ttl_days INTEGER NOT NULL,
		views BIGINT DEFAULT 0,
		created_at_ms BIGINT NOT NULL,
		deleted_at_ms BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_certificates_org ON certificates(organization_id)`,
	`CREATE TABLE IF NOT EXISTS certificate_views (
		id BIGSERIAL PRIMARY KEY,
		certificate_id TEXT NOT NULL REFERENCES certificates(id),
		referer TEXT,
		user_agent TEXT,
		ip_hash TEXT,
		created_at_ms BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_certificate_views_cert ON certificate_views(certificate_id)`,
}

// Ensure interface compliance
var _ ports.CertificateRepository = (*SQLRepository)(nil)
