package transform

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Transformer derives the output URL for one input image URL. Implementations
// must be deterministic and order-independent; the pipeline applies them
// per-URL and preserves input order itself.
type Transformer interface {
	Derive(rawURL string) (string, error)
}

// Compressed is the placeholder compression transform: it inserts a marker
// before the filename extension, e.g. "a.jpg" -> "a-compressed.jpg".
type Compressed struct{}

const marker = "-compressed"

func (Compressed) Derive(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if u.Opaque != "" {
		return "", fmt.Errorf("opaque url %q not supported", rawURL)
	}
	if host := u.Hostname(); host != "" {
		if _, err := publicsuffix.EffectiveTLDPlusOne(host); err != nil {
			return "", fmt.Errorf("url %q: no registrable domain: %w", rawURL, err)
		}
	}

	dir, file := path.Split(u.Path)
	if file == "" {
		return "", fmt.Errorf("url %q has no filename", rawURL)
	}
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	u.Path = dir + stem + marker + ext
	return u.String(), nil
}
