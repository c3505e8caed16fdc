package certlink

import "time"

const day = 24 * time.Hour

// ExpiresAt is IssuedAt plus TTLDays whole days.
func (p LinkPayload) ExpiresAt() time.Time {
	return p.IssuedAt.Add(time.Duration(p.TTLDays) * day)
}

// TimeRemaining returns how long the link stays valid after now. The duration
// is negative once the window has passed. ok is false only for a hand-built
// payload with no issue time; Encode refuses those and Decode never yields one.
func TimeRemaining(p LinkPayload, now time.Time) (remaining time.Duration, ok bool) {
	if p.IssuedAt.IsZero() {
		return 0, false
	}
	return p.ExpiresAt().Sub(now), true
}

// IsExpired reports remaining <= 0. A payload without an issue time never expires.
func IsExpired(p LinkPayload, now time.Time) bool {
	remaining, ok := TimeRemaining(p, now)
	return ok && remaining <= 0
}
