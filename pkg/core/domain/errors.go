package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformedToken means the link could not be classified or decoded.
	ErrMalformedToken = errors.New("invalid certificate link")
	// ErrExpiredLink means the link decoded fine but its window has elapsed.
	ErrExpiredLink = errors.New("this link has expired")
	// ErrNotFound means the link is fine but no certificate backs it.
	ErrNotFound = errors.New("certificate not found")
	// ErrInvalidInput covers issuance requests the service refuses.
	ErrInvalidInput = errors.New("invalid input")
)

// ExpiredError carries when the link expired and how long ago that was.
type ExpiredError struct {
	ExpiredAt time.Time
	Ago       time.Duration
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("%s (%s ago)", ErrExpiredLink, e.Ago.Round(time.Second))
}

func (e *ExpiredError) Is(target error) bool { return target == ErrExpiredLink }
