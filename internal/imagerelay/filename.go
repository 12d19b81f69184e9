package imagerelay

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

var contentTypeExtensions = map[string]string{
	"image/jpeg":               "jpg",
	"image/jpg":                "jpg",
	"image/pjpeg":              "jpg",
	"image/png":                "png",
	"image/gif":                "gif",
	"image/webp":               "webp",
	"image/avif":               "avif",
	"image/svg+xml":            "svg",
	"image/x-icon":             "ico",
	"image/vnd.microsoft.icon": "ico",
	"image/bmp":                "bmp",
	"image/tiff":               "tiff",
}

// ObjectName builds the uploaded object name for sourceURL:
// <first 8 chars of base64(sha256(url)) without +/=>_<unix millis>.<ext>.
func ObjectName(sourceURL, contentType string, at time.Time) string {
	sum := sha256.Sum256([]byte(sourceURL))
	encoded := base64.StdEncoding.EncodeToString(sum[:])
	encoded = strings.NewReplacer("+", "", "/", "", "=", "").Replace(encoded)
	if len(encoded) > 8 {
		encoded = encoded[:8]
	}
	return fmt.Sprintf("%s_%d.%s", encoded, at.UnixMilli(), extensionFor(sourceURL, contentType))
}

// extensionFor prefers the URL path extension, then the content type, then jpg.
func extensionFor(sourceURL, contentType string) string {
	if u, err := url.Parse(sourceURL); err == nil {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
		if isPlainExtension(ext) {
			return ext
		}
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if ext, ok := contentTypeExtensions[mediaType]; ok {
		return ext
	}
	return "jpg"
}

func isPlainExtension(ext string) bool {
	if ext == "" || len(ext) > 5 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
