package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endlessReader never reaches EOF and counts how much has been handed out.
type endlessReader struct {
	served int64
}

func (e *endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'x'
	}
	e.served += int64(len(p))
	return len(p), nil
}

func TestReadHTMLBody_AbortsEndlessStream(t *testing.T) {
	src := &endlessReader{}
	resp := &http.Response{
		StatusCode:    http.StatusOK,
		Header:        http.Header{"Content-Type": {"text/html"}},
		Body:          io.NopCloser(src),
		ContentLength: -1,
	}

	_, read, err := readHTMLBody(resp, DefaultMaxBodyBytes, "http://example.com")
	require.Error(t, err)

	assert.Equal(t, models.ErrResponseTooLarge, models.CodeOf(err))
	assert.Greater(t, read, DefaultMaxBodyBytes)
	assert.LessOrEqual(t, src.served, DefaultMaxBodyBytes+1)
}

func TestReadHTMLBody_DeclaredLengthOverLimit(t *testing.T) {
	src := &endlessReader{}
	resp := &http.Response{
		Header:        http.Header{"Content-Type": {"text/html"}},
		Body:          io.NopCloser(src),
		ContentLength: 2048,
	}

	_, _, err := readHTMLBody(resp, 1024, "http://example.com")
	assert.Equal(t, models.ErrResponseTooLarge, models.CodeOf(err))
	assert.Zero(t, src.served)
}

func TestReadHTMLBody_ExactlyAtLimit(t *testing.T) {
	resp := &http.Response{
		Header: http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:   io.NopCloser(strings.NewReader(strings.Repeat("a", 1024))),
	}

	body, n, err := readHTMLBody(resp, 1024, "http://example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), n)
	assert.Len(t, body, 1024)
}

func TestCappedReader(t *testing.T) {
	r := &CappedReader{R: strings.NewReader("hello world"), Limit: 5}
	_, err := io.ReadAll(r)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestIsHTMLContentType(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"Text/HTML", true},
		{"application/xhtml+xml", false},
		{"application/json", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, isHTMLContentType(tt.contentType), tt.contentType)
	}
}

func TestBrowserHeaders(t *testing.T) {
	h := BrowserHeaders(uaFirefoxWindows)
	assert.Equal(t, uaFirefoxWindows, h.Get("User-Agent"))
	assert.Equal(t, "gzip, deflate, br", h.Get("Accept-Encoding"))
	assert.Equal(t, `"Windows"`, h.Get("Sec-Ch-Ua-Platform"))
	assert.Equal(t, "document", h.Get("Sec-Fetch-Dest"))

	minimal := MinimalHeaders("ignored")
	assert.Equal(t, uaChromeWindows, minimal.Get("User-Agent"))
	assert.Len(t, minimal, 3)
}
