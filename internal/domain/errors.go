package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrChapterNotFound indicates the requested chapter does not exist
	ErrChapterNotFound = errors.New("chapter not found")

	// ErrServerOffline indicates the content backend is unreachable
	ErrServerOffline = errors.New("content server is unreachable")

	// ErrUnauthorized indicates the API key was rejected
	ErrUnauthorized = errors.New("api key is invalid")

	// ErrUnexpectedStatus indicates a non-2xx response from the backend
	ErrUnexpectedStatus = errors.New("unexpected response status")
)
