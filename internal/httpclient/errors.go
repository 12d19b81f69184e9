package httpclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/aleister1102/ogpreview/internal/models"
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errMissingLocation  = errors.New("redirect without Location header")
)

// FetchError is a classified fetch failure.
type FetchError struct {
	ErrCode    models.ErrorCode
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.ErrCode)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.URL != "" {
		msg = fmt.Sprintf("%s for '%s'", msg, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }
func (e *FetchError) Code() models.ErrorCode { return e.ErrCode }
func (e *FetchError) Status() int { return e.StatusCode }

// NewHTTPStatusError reports a terminal non-2xx response.
func NewHTTPStatusError(status int, url string) *FetchError {
	return &FetchError{ErrCode: models.ErrHTTPStatus, URL: url, StatusCode: status, Message: "upstream error"}
}

// IsRetryableError reports whether a failed attempt may be repeated.
// Guard rejections, content, size and decoding problems and deadline errors
// are final.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrUndecodableBody) {
		return false
	}
	var coded models.Coded
	if errors.As(err, &coded) {
		return coded.Code() == models.ErrFetchFailed
	}
	return true
}

func networkError(url string, err error) *FetchError {
	return &FetchError{ErrCode: models.ErrFetchFailed, URL: url, Message: "request failed", Err: err}
}

// classify turns a raw error into a FetchError, mapping deadline expiry to
// Timeout.
func classify(ctx context.Context, url string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &FetchError{ErrCode: models.ErrTimeout, URL: url, Message: "upstream timed out", Err: err}
	}
	var coded models.Coded
	if errors.As(err, &coded) {
		return err
	}
	return networkError(url, err)
}
