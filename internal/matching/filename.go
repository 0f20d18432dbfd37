package matching

import "strings"

// ExtractFilename returns the lowercased trailing path segment of url with any query removed.
func ExtractFilename(url string) string {
	if url == "" {
		return ""
	}
	if i := strings.Index(url, "?"); i >= 0 {
		url = url[:i]
	}
	if i := strings.LastIndex(url, "/"); i >= 0 {
		url = url[i+1:]
	}
	return strings.ToLower(url)
}

// StripExtension drops the text from the last dot. Dotfiles keep their name.
func StripExtension(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

// BaseNameFromURL is [ExtractFilename] without the extension.
func BaseNameFromURL(url string) string {
	return StripExtension(ExtractFilename(url))
}
