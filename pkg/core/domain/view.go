package domain

import "time"

// View represents one opening of a shared certificate page
type View struct {
	ID            int64     `json:"id"`
	CertificateID string    `json:"certificate_id"`
	Referer       string    `json:"referer"`
	UserAgent     string    `json:"user_agent"`
	IPHash        string    `json:"ip_hash"` // Anonymized IP
	CreatedAt     time.Time `json:"created_at"`
}

// ViewStats represents aggregated statistics for a certificate page
type ViewStats struct {
	TotalViews int64            `json:"total_views"`
	Referrers  map[string]int64 `json:"referrers"`   // count by referer
	DailyViews []DailyViews     `json:"daily_views"` // timeline
}

type DailyViews struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}
