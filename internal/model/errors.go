package model

import (
	"fmt"
	"strings"
	"time"
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// SourceFetchError is a top-level failure of one source: network, status or
// payload decoding. It is logged at the registry boundary and never returned
// to the orchestrator.
type SourceFetchError struct {
	Source string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

// ItemError describes a single source item that could not be normalized.
// The item is dropped; its siblings are still processed.
type ItemError struct {
	Source string
	Reason string
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s item dropped: %s", e.Source, e.Reason)
}

// NoValidSourcesError is returned when a non-empty source selection matches
// no registered adapter.
type NoValidSourcesError struct {
	Requested []string
}

func (e *NoValidSourcesError) Error() string {
	return fmt.Sprintf("no valid sources selected (requested: %s)", strings.Join(e.Requested, ", "))
}

// InternalError is an ingestion failure outside the per-source isolation
// boundary, such as an unreachable store.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("ingestion %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
