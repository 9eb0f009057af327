package provider

import "errors"

// Sentinel errors for provider package operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrUnknownProvider indicates a kind with no registered variant.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrProviderUnavailable indicates the variant failed its availability probe.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderDisabled indicates the variant was disabled by configuration.
	ErrProviderDisabled = errors.New("provider disabled by configuration")

	// ErrNotInitialized indicates the process-wide registry has not been set up.
	ErrNotInitialized = errors.New("provider registry not initialized")
)
