package backend

import "errors"

var (
	// ErrNotLoaded indicates Process was called before Load or after Unload.
	ErrNotLoaded = errors.New("backend not loaded")

	// ErrSelfTestFailed indicates the availability probe produced a wrong result.
	ErrSelfTestFailed = errors.New("backend self-test failed")
)

// Strength levels understood by every backend through interfaces.ParamStrength.
const (
	StrengthWeak   = 0
	StrengthStrong = 1
)
