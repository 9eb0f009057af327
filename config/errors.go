package config

import "errors"

// ErrInvalidSettings indicates a settings blob or plugin configuration that
// failed validation.
var ErrInvalidSettings = errors.New("invalid settings")
