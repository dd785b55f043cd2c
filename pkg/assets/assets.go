package assets

import (
	"path"
	"path/filepath"
	"strings"
)

var mimeTypesByExtension = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

var extensionByMimeType = func() map[string]string {
	m := make(map[string]string, len(mimeTypesByExtension))
	for ext, mime := range mimeTypesByExtension {
		m[mime] = ext
	}
	return m
}()

// ResolveURL turns a stored relative path into a publicly reachable absolute
// URL. Absolute http(s) URLs pass through unchanged.
func ResolveURL(rawURL, baseOrigin string) string {
	if rawURL == "" {
		return ""
	}

	lower := strings.ToLower(rawURL)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return rawURL
	}

	normalized := rawURL
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}

	return strings.TrimRight(baseOrigin, "/") + normalized
}

// MIMEFromPath maps a file path or URL onto a video MIME type by extension.
// Returns empty when the extension is not a known video type.
func MIMEFromPath(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	return mimeTypesByExtension[strings.ToLower(path.Ext(rawURL))]
}

// ExtensionFromMIME maps a MIME type back onto its file extension.
func ExtensionFromMIME(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	return extensionByMimeType[strings.ToLower(mimeType)]
}

// SafeFileName reduces raw user input to a bare file name and rejects
// anything that still smells like path traversal.
func SafeFileName(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	normalized := filepath.Base(raw)
	if normalized == "." || normalized == string(filepath.Separator) || strings.Contains(normalized, "..") {
		return "", false
	}

	return normalized, true
}
