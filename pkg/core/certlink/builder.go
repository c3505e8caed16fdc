package certlink

import "strings"

// routeBase joins the origin and the hash route.
const routeBase = "/#/" + routePrefix

// NormalizePath strips the leading '/' of a user-supplied path. Repeated
// slashes go with it so that NormalizePath is idempotent.
func NormalizePath(path string) string {
	return strings.TrimLeft(path, "/")
}

// BuildURL returns origin + "/#/certificate/" + token.
func BuildURL(origin, token string) string {
	return strings.TrimRight(origin, "/") + routeBase + token
}

// BuildLegacyURL returns the three-segment form kept for links issued before tokens.
func BuildLegacyURL(origin, orgID, programID, certificateID string) string {
	return strings.TrimRight(origin, "/") + routeBase + orgID + "/" + programID + "/" + certificateID
}

// Builder composes share URLs for one origin.
type Builder struct {
	origin string
	codec  *Codec
}

// NewBuilder returns a Builder for origin; a trailing '/' is dropped.
func NewBuilder(origin string, codec *Codec) *Builder {
	return &Builder{origin: strings.TrimRight(origin, "/"), codec: codec}
}

// Origin returns the origin URLs are built against.
func (b *Builder) Origin() string { return b.origin }

// Codec returns the codec tokens are encoded with.
func (b *Builder) Codec() *Codec { return b.codec }

// URL encodes p and returns the share URL together with the token.
func (b *Builder) URL(p LinkPayload) (url, token string, err error) {
	token, err = b.codec.Encode(p)
	if err != nil {
		return "", "", err
	}
	return BuildURL(b.origin, token), token, nil
}

// LegacyURL builds the three-segment form.
func (b *Builder) LegacyURL(orgID, programID, certificateID string) string {
	return BuildLegacyURL(b.origin, orgID, programID, certificateID)
}
