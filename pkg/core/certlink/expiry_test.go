package certlink

import (
	"testing"
	"time"
)

func TestIsExpired_Boundary(t *testing.T) {
	p := samplePayload()
	expiresMs := p.IssuedAt.UnixMilli() + int64(p.TTLDays)*86400000

	if IsExpired(p, time.UnixMilli(expiresMs-1)) {
		t.Error("expired one millisecond before the window ends")
	}
	if !IsExpired(p, time.UnixMilli(expiresMs)) {
		t.Error("not expired at the end of the window")
	}
	if !p.ExpiresAt().Equal(time.UnixMilli(expiresMs)) {
		t.Errorf("ExpiresAt = %v, want %v", p.ExpiresAt(), time.UnixMilli(expiresMs))
	}
}

func TestTimeRemaining(t *testing.T) {
	p := samplePayload()
	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"at issuance", p.IssuedAt, 365 * 24 * time.Hour},
		{"one second in", p.IssuedAt.Add(time.Second), 365*24*time.Hour - time.Second},
		{"a day after expiry", p.IssuedAt.Add(366 * 24 * time.Hour), -24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TimeRemaining(p, tt.now)
			if !ok {
				t.Fatal("TimeRemaining returned ok=false")
			}
			if got != tt.want {
				t.Errorf("TimeRemaining = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeRemaining_ZeroTTLExpiredAtIssuance(t *testing.T) {
	p := samplePayload()
	p.TTLDays = 0
	if !IsExpired(p, p.IssuedAt) {
		t.Error("ttl 0 should be expired at issuance")
	}
}

func TestTimeRemaining_NoIssueTime(t *testing.T) {
	p := samplePayload()
	p.IssuedAt = time.Time{}
	if _, ok := TimeRemaining(p, time.Now()); ok {
		t.Error("payload without issue time should carry no expiry")
	}
	if IsExpired(p, time.Now()) {
		t.Error("payload without issue time should not be expired")
	}
}
