package domain

import "errors"

var (
	// Common domain errors
	ErrNoIdentifier    = errors.New("no identifier found in input")
	ErrAuth            = errors.New("credential rejected by remote service")
	ErrTransport       = errors.New("transport failure")
	ErrBadRequest      = errors.New("remote service rejected the request")
	ErrPollTimeout     = errors.New("polling ceiling exceeded")
	ErrSearchFailed    = errors.New("remote search job failed")
	ErrResultsNotReady = errors.New("search results not ready yet")
)
