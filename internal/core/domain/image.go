package domain

import (
	"encoding/json"
	"strings"
)

// DefaultImageCount is how many covers a generate request asks for when it does not say.
const DefaultImageCount = 3

// MaxImageCount bounds the per-request image count.
const MaxImageCount = 4

const defaultImageMIME = "image/png"

// ImageKind distinguishes inline payloads from remote URLs.
type ImageKind int

const (
	ImageInline ImageKind = iota
	ImageRemote
)

// ImageReference is a displayable cover: either an inline base64 payload with a
// MIME type, or an absolute URL.
type ImageReference struct {
	Kind     ImageKind
	MIMEType string
	Data     string // base64, set when Kind == ImageInline
	URL      string // set when Kind == ImageRemote
}

// InlineImage wraps a bare base64 payload. An empty mime type means PNG.
func InlineImage(mimeType, data string) ImageReference {
	if mimeType == "" {
		mimeType = defaultImageMIME
	}
	return ImageReference{Kind: ImageInline, MIMEType: mimeType, Data: data}
}

// RemoteImage wraps an absolute URL.
func RemoteImage(url string) ImageReference {
	return ImageReference{Kind: ImageRemote, URL: url}
}

// ParseImageReference classifies a string as an absolute URL, a data URI, or a
// bare base64 payload (treated as PNG). ok is false for blank input.
func ParseImageReference(s string) (ref ImageReference, ok bool) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ImageReference{}, false
	case strings.HasPrefix(s, "http"):
		return RemoteImage(s), true
	case strings.HasPrefix(s, "data:"):
		header, payload, found := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
		mimeType, encoding, _ := strings.Cut(header, ";")
		if !found || payload == "" || encoding != "base64" {
			return ImageReference{}, false
		}
		return InlineImage(mimeType, payload), true
	default:
		return InlineImage(defaultImageMIME, s), true
	}
}

// String renders the reference as something an <img src> accepts.
func (r ImageReference) String() string {
	if r.Kind == ImageRemote {
		return r.URL
	}
	return "data:" + r.MIMEType + ";base64," + r.Data
}

// MarshalJSON encodes the reference as its display string.
func (r ImageReference) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
