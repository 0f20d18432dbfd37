package models

import (
	"slices"
	"strings"
	"time"
)

// DefaultAssetFormats are the media types playable by the preview.
var DefaultAssetFormats = []string{"audio/mpeg", "video/mp4", "audio/wav"}

// Asset is a demo media file listed in an asset manifest. Src is its identity.
type Asset struct {
	Src    string `json:"src"`
	Title  string `json:"title,omitempty"`
	Format string `json:"format,omitempty"`
	Expiry string `json:"expiry,omitempty"`
}

// Expired reports whether the asset's expiry parses and lies before now.
//
// An unparseable expiry never expires.
func (a Asset) Expired(now time.Time) bool {
	ts, ok := ParseTime(a.Expiry)
	if !ok {
		return false
	}
	return ts.Before(now)
}

// DisplayTitle returns the title, falling back to src.
func (a Asset) DisplayTitle() string {
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return a.Src
}

// FilterAssets drops malformed, expired and disallowed-format entries, preserving order.
//
// Src is trimmed on kept assets. A nil allowed list means [DefaultAssetFormats]; an empty format is always allowed.
func FilterAssets(assets []Asset, now time.Time, allowed []string) []Asset {
	if allowed == nil {
		allowed = DefaultAssetFormats
	}

	kept := make([]Asset, 0, len(assets))
	for _, a := range assets {
		a.Src = strings.TrimSpace(a.Src)
		if a.Src == "" {
			continue
		}
		if a.Format != "" && !slices.Contains(allowed, a.Format) {
			continue
		}
		if a.Expired(now) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
