package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies why a scrape failed.
type ErrorCode string

const (
	ErrInvalidURL             ErrorCode = "InvalidUrl"
	ErrBlockedTarget          ErrorCode = "BlockedTarget"
	ErrUnresolvableHost       ErrorCode = "UnresolvableHost"
	ErrUnsupportedContentType ErrorCode = "UnsupportedContentType"
	ErrResponseTooLarge       ErrorCode = "ResponseTooLarge"
	ErrHTTPStatus             ErrorCode = "HttpError"
	ErrTimeout                ErrorCode = "Timeout"
	ErrFetchFailed            ErrorCode = "FetchFailed"
	ErrBatchProcessingFailed  ErrorCode = "BatchProcessingFailed"
)

// Coded is implemented by errors that carry a scrape error code.
type Coded interface {
	error
	Code() ErrorCode
}

// ScrapeError is the generic coded error used where no richer type exists.
type ScrapeError struct {
	ErrCode    ErrorCode
	StatusCode int
	URL        string
	Message    string
	Err        error
}

func (e *ScrapeError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.ErrCode)
	}
	if e.URL != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ScrapeError) Unwrap() error { return e.Err }
func (e *ScrapeError) Code() ErrorCode { return e.ErrCode }

// Status returns the upstream HTTP status attached to the error, if any.
func (e *ScrapeError) Status() int { return e.StatusCode }

// NewScrapeError builds a coded error.
func NewScrapeError(code ErrorCode, url, message string, err error) *ScrapeError {
	return &ScrapeError{ErrCode: code, URL: url, Message: message, Err: err}
}

// CodeOf extracts the error code from err, defaulting to FetchFailed.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ErrFetchFailed
}

// UpstreamStatusOf extracts the HTTP status carried by err, or 0.
func UpstreamStatusOf(err error) int {
	var withStatus interface{ Status() int }
	if errors.As(err, &withStatus) {
		return withStatus.Status()
	}
	return 0
}

// StatusForError maps a scrape failure to the status code reported to callers.
func StatusForError(err error) int {
	switch CodeOf(err) {
	case ErrInvalidURL, ErrBlockedTarget, ErrUnresolvableHost:
		return http.StatusBadRequest
	case ErrUnsupportedContentType:
		return http.StatusUnsupportedMediaType
	case ErrResponseTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrTimeout:
		return http.StatusGatewayTimeout
	case ErrHTTPStatus:
		return StatusForUpstream(UpstreamStatusOf(err))
	default:
		return http.StatusInternalServerError
	}
}

// StatusForUpstream maps an upstream HTTP status to the caller-facing one.
func StatusForUpstream(status int) int {
	switch {
	case status >= 500:
		return http.StatusBadGateway
	case status >= 400:
		return status
	default:
		return http.StatusBadGateway
	}
}
