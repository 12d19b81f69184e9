package models

import "time"

// PerformanceStats describes one fetch.
type PerformanceStats struct {
	ResponseTime  int64 `json:"responseTime"`
	ContentLength int64 `json:"contentLength"`
	HTTPStatus    int   `json:"httpStatus,omitempty"`
}

// ScrapeResult is the per-URL outcome returned by the orchestrator.
type ScrapeResult struct {
	Success     bool              `json:"success"`
	URL         string            `json:"url"`
	Metadata    *ScrapedMetadata  `json:"metadata,omitempty"`
	ScrapedAt   *time.Time        `json:"scrapedAt,omitempty"`
	Saved       *bool             `json:"saved,omitempty"`
	Performance *PerformanceStats `json:"performance,omitempty"`
	Error       string            `json:"error,omitempty"`
	ErrorCode   ErrorCode         `json:"errorCode,omitempty"`
	StatusCode  int               `json:"statusCode,omitempty"`
	Info        string            `json:"info,omitempty"`
}

// IsSaved reports whether the result was persisted.
func (r ScrapeResult) IsSaved() bool {
	return r.Saved != nil && *r.Saved
}

// FailedResult builds a failure record for url from err.
func FailedResult(url string, err error) ScrapeResult {
	return ScrapeResult{
		Success:    false,
		URL:        url,
		Error:      err.Error(),
		ErrorCode:  CodeOf(err),
		StatusCode: StatusForError(err),
	}
}

// BatchStatistics aggregates a slice of results.
type BatchStatistics struct {
	Successful          int   `json:"successful"`
	Failed              int   `json:"failed"`
	Saved               int   `json:"saved"`
	TotalProcessingTime int64 `json:"totalProcessingTime"`
}

// ComputeStatistics counts outcomes in results; elapsed is the wall time of the run.
func ComputeStatistics(results []ScrapeResult, elapsed time.Duration) BatchStatistics {
	stats := BatchStatistics{TotalProcessingTime: elapsed.Milliseconds()}
	for _, r := range results {
		if r.Success {
			stats.Successful++
		} else {
			stats.Failed++
		}
		if r.IsSaved() {
			stats.Saved++
		}
	}
	return stats
}
