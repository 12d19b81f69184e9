package imagerelay

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectName_Extension(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	tests := []struct {
		name        string
		url         string
		contentType string
		suffix      string
	}{
		{"path extension", "https://example.com/a/cover.PNG", "image/jpeg", "_1700000000123.png"},
		{"content type", "https://example.com/image", "image/webp", "_1700000000123.webp"},
		{"content type with params", "https://example.com/image", "image/svg+xml; charset=utf-8", "_1700000000123.svg"},
		{"fallback jpg", "https://example.com/image", "image/x-unknown", "_1700000000123.jpg"},
		{"odd extension ignored", "https://example.com/file.php-thing", "image/gif", "_1700000000123.gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := ObjectName(tt.url, tt.contentType, at)
			assert.Regexp(t, `^[A-Za-z0-9]{8}_`, name)
			assert.True(t, strings.HasSuffix(name, tt.suffix), name)
		})
	}
}

func TestObjectName_Prefix(t *testing.T) {
	at := time.UnixMilli(1)

	a1 := ObjectName("https://example.com/a.png", "image/png", at)
	a2 := ObjectName("https://example.com/a.png", "image/png", at)
	b := ObjectName("https://example.com/b.png", "image/png", at)

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1[:8], b[:8])
	assert.NotContains(t, a1+b, "+")
	assert.NotContains(t, a1+b, "=")
	assert.NotContains(t, a1+b, "/")
}
