package httpclient

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

// CappedReader counts bytes as they are read and fails the read that pushes
// the total past Limit.
type CappedReader struct {
	R     io.Reader
	Limit int64
	N     int64
}

// ErrBodyTooLarge is returned by CappedReader once Limit is exceeded.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

func (c *CappedReader) Read(p []byte) (int, error) {
	if remaining := c.Limit - c.N + 1; remaining > 0 && int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := c.R.Read(p)
	c.N += int64(n)
	if c.N > c.Limit {
		return n, ErrBodyTooLarge
	}
	return n, err
}

// ErrUndecodableBody marks a body that arrived intact but could not be
// decompressed. Repeating the request returns the same bytes, so it is final.
var ErrUndecodableBody = errors.New("undecodable response body")

// sourceReader remembers the last non-EOF error of the raw body so decoder
// failures can be told apart from transport failures.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}

// newDeflateReader accepts the zlib-framed stream HTTP servers send for
// "deflate" and falls back to raw DEFLATE when the zlib header is absent.
func newDeflateReader(body io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(body)
	header, err := br.Peek(2)
	if err == nil && isZlibHeader(header) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

// isZlibHeader checks CM=8 and the FCHECK multiple-of-31 rule from RFC 1950.
func isZlibHeader(h []byte) bool {
	return h[0]&0x0f == 8 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0
}

// decodeContentEncoding wraps body with the decoder matching the
// Content-Encoding header. Unknown encodings pass through untouched.
func decodeContentEncoding(body io.Reader, encoding string) (io.Reader, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, noop, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, noop, err
		}
		return zr, zr.Close, nil
	case "deflate":
		dr, err := newDeflateReader(body)
		if err != nil {
			return nil, noop, err
		}
		return dr, dr.Close, nil
	case "br":
		return brotli.NewReader(body), noop, nil
	default:
		return body, noop, nil
	}
}

// readHTMLBody streams resp.Body through decompression and the size cap, and
// converts the result to UTF-8 using the declared or sniffed charset.
func readHTMLBody(resp *http.Response, limit int64, url string) (string, int64, error) {
	if limit > 0 && resp.ContentLength > limit && resp.Header.Get("Content-Encoding") == "" {
		return "", 0, tooLarge(url, limit)
	}

	encoding := resp.Header.Get("Content-Encoding")
	source := &sourceReader{r: resp.Body}
	decoded, closeDecoder, err := decodeContentEncoding(source, encoding)
	if err != nil {
		if source.err != nil {
			return "", 0, networkError(url, fmt.Errorf("read body: %w", source.err))
		}
		return "", 0, undecodable(url, encoding, err)
	}
	defer closeDecoder()

	capped := &CappedReader{R: decoded, Limit: limit}
	var reader io.Reader = capped
	if limit <= 0 {
		reader = decoded
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			return "", capped.N, tooLarge(url, limit)
		}
		if source.err == nil && decoded != io.Reader(source) {
			return "", int64(buf.Len()), undecodable(url, encoding, err)
		}
		return "", int64(buf.Len()), networkError(url, fmt.Errorf("read body: %w", err))
	}

	raw := buf.Bytes()
	utf8Reader, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return string(raw), int64(len(raw)), nil
	}
	converted, err := io.ReadAll(utf8Reader)
	if err != nil {
		return string(raw), int64(len(raw)), nil
	}
	return string(converted), int64(len(raw)), nil
}

func undecodable(url, encoding string, err error) *FetchError {
	return &FetchError{
		ErrCode: models.ErrFetchFailed,
		URL:     url,
		Message: fmt.Sprintf("cannot decode %s body", encoding),
		Err:     fmt.Errorf("%w: %v", ErrUndecodableBody, err),
	}
}

func tooLarge(url string, limit int64) *FetchError {
	return &FetchError{
		ErrCode: models.ErrResponseTooLarge,
		URL:     url,
		Message: fmt.Sprintf("response too large (limit %d bytes)", limit),
	}
}

// isHTMLContentType reports whether the Content-Type header declares HTML.
func isHTMLContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}
