package certlink

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wadjakorntonsri/certlink/pkg/core/certid"
	"github.com/wadjakorntonsri/certlink/pkg/core/domain"
)

// Mode selects whether tokens carry a server-side signature.
type Mode int

const (
	// Unsigned tokens carry a checksum only: anyone can decode them, and
	// anyone who knows the format can mint them.
	Unsigned Mode = iota
	// Signed tokens append an HMAC-SHA256 over the unsigned token; decoding
	// needs the server key.
	Signed
)

func (m Mode) String() string {
	switch m {
	case Unsigned:
		return "unsigned"
	case Signed:
		return "signed"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode accepts "unsigned" (or empty) and "signed".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unsigned":
		return Unsigned, nil
	case "signed":
		return Signed, nil
	}
	return Unsigned, fmt.Errorf("unknown link signing mode %q", s)
}

const (
	version    byte = 0x01
	headerSize      = 5 // version + crc32
	fieldCount      = 5

	signatureSeparator = "."
	maxUnescapeRounds  = 3
)

var tokenEncoding = base64.RawURLEncoding.Strict()

// ErrInvalidPayload is returned by Encode for payloads that cannot round-trip.
var ErrInvalidPayload = errors.New("invalid link payload")

// DecodeError explains why a token was rejected. It matches
// domain.ErrMalformedToken under errors.Is.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "malformed certificate link: " + e.Reason
}

func (e *DecodeError) Is(target error) bool { return target == domain.ErrMalformedToken }

func malformed(format string, args ...any) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// Codec encodes and decodes link tokens. It holds no mutable state and is
// safe for concurrent use.
type Codec struct {
	mode Mode
	key  []byte
}

// NewCodec returns a codec for the mode. Signed mode requires a key.
func NewCodec(mode Mode, key []byte) (*Codec, error) {
	switch mode {
	case Unsigned:
		return &Codec{mode: Unsigned}, nil
	case Signed:
		if len(key) == 0 {
			return nil, errors.New("signed links require a secret key")
		}
		return &Codec{mode: Signed, key: append([]byte(nil), key...)}, nil
	}
	return nil, fmt.Errorf("unsupported link mode %s", mode)
}

// Mode reports the codec's signing mode.
func (c *Codec) Mode() Mode { return c.mode }

// Encode serializes p into a URL-safe token without '/' characters.
// The program slug is sanitized first; the other fields must pass Validate.
func (c *Codec) Encode(p LinkPayload) (string, error) {
	p.ProgramSlug = Slugify(p.ProgramSlug)
	if err := p.Validate(); err != nil {
		return "", err
	}

	body := strings.Join([]string{
		p.OrganizationID,
		p.ProgramSlug,
		p.CertificateID,
		strconv.FormatInt(p.IssuedAt.UnixMilli(), 10),
		strconv.Itoa(p.TTLDays),
	}, delimiter)

	frame := make([]byte, headerSize, headerSize+len(body))
	frame[0] = version
	frame = append(frame, body...)
	binary.BigEndian.PutUint32(frame[1:headerSize], checksum(frame[0], frame[headerSize:]))

	token := tokenEncoding.EncodeToString(frame)
	if c.mode == Signed {
		sig, err := jwt.SigningMethodHS256.Sign(token, c.key)
		if err != nil {
			return "", fmt.Errorf("sign link: %w", err)
		}
		token += signatureSeparator + tokenEncoding.EncodeToString(sig)
	}
	return token, nil
}

// Decode parses a token produced by Encode. Percent-encoded input is accepted.
// Every failure is a *DecodeError; no partially filled payload is returned.
func (c *Codec) Decode(token string) (LinkPayload, error) {
	token, err := unescape(token)
	if err != nil {
		return LinkPayload{}, err
	}

	body, err := c.verify(token)
	if err != nil {
		return LinkPayload{}, err
	}

	if !urlSafe(body) {
		return LinkPayload{}, malformed("unexpected characters")
	}
	frame, err := tokenEncoding.DecodeString(body)
	if err != nil {
		return LinkPayload{}, malformed("not base64url: %v", err)
	}
	if len(frame) <= headerSize {
		return LinkPayload{}, malformed("truncated")
	}
	if frame[0] != version {
		return LinkPayload{}, malformed("unknown version %d", frame[0])
	}
	if binary.BigEndian.Uint32(frame[1:headerSize]) != checksum(frame[0], frame[headerSize:]) {
		return LinkPayload{}, malformed("checksum mismatch")
	}
	return parseBody(string(frame[headerSize:]))
}

// verify strips and checks the signature in signed mode.
func (c *Codec) verify(token string) (string, error) {
	i := strings.Index(token, signatureSeparator)
	if c.mode != Signed {
		if i >= 0 {
			return "", malformed("signed token given to an unsigned codec")
		}
		return token, nil
	}

	if i < 0 {
		return "", malformed("missing signature")
	}
	body, encodedSig := token[:i], token[i+len(signatureSeparator):]
	if !urlSafe(encodedSig) {
		return "", malformed("unexpected characters in signature")
	}
	sig, err := tokenEncoding.DecodeString(encodedSig)
	if err != nil {
		return "", malformed("signature not base64url: %v", err)
	}
	if err := jwt.SigningMethodHS256.Verify(body, sig, c.key); err != nil {
		return "", malformed("signature mismatch")
	}
	return body, nil
}

// zeroInstantMillis is time.Time{} in unix millis. A decoded payload always
// carries an issue time, so this value never parses.
var zeroInstantMillis = time.Time{}.UnixMilli()

func parseBody(body string) (LinkPayload, error) {
	fields := strings.Split(body, delimiter)
	if len(fields) != fieldCount {
		return LinkPayload{}, malformed("expected %d fields, got %d", fieldCount, len(fields))
	}
	org, slug, cert, issuedRaw, ttlRaw := fields[0], fields[1], fields[2], fields[3], fields[4]

	if org == "" || len(org) > MaxOrganizationIDLength {
		return LinkPayload{}, malformed("bad organization id")
	}
	if slug != Slugify(slug) {
		return LinkPayload{}, malformed("unsanitized program slug")
	}
	if !certid.Valid(cert) {
		return LinkPayload{}, malformed("certificate id has unexpected shape")
	}

	ms, err := strconv.ParseInt(issuedRaw, 10, 64)
	if err != nil || strconv.FormatInt(ms, 10) != issuedRaw {
		return LinkPayload{}, malformed("non-numeric issue time")
	}
	if ms == zeroInstantMillis {
		return LinkPayload{}, malformed("missing issue time")
	}
	ttl, err := strconv.Atoi(ttlRaw)
	if err != nil || strconv.Itoa(ttl) != ttlRaw {
		return LinkPayload{}, malformed("non-numeric ttl")
	}
	if ttl < 0 || ttl > MaxTTLDays {
		return LinkPayload{}, malformed("ttl out of range")
	}

	return LinkPayload{
		OrganizationID: org,
		ProgramSlug:    slug,
		CertificateID:  cert,
		IssuedAt:       time.UnixMilli(ms).UTC(),
		TTLDays:        ttl,
	}, nil
}

// unescape undoes percent-encoding applied by routers or mail clients.
// Tokens never contain '%', so its presence marks an encoded form.
func unescape(s string) (string, error) {
	for i := 0; i < maxUnescapeRounds && strings.Contains(s, "%"); i++ {
		u, err := url.PathUnescape(s)
		if err != nil {
			return "", malformed("bad percent escape")
		}
		s = u
	}
	if strings.Contains(s, "%") {
		return "", malformed("too many percent-encoding layers")
	}
	return s, nil
}

func checksum(v byte, body []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write([]byte{v})
	h.Write(body)
	return h.Sum32()
}

// urlSafe reports whether s uses only the unpadded base64url alphabet.
// The base64 decoder skips CR and LF, so they are rejected here.
func urlSafe(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
