package filter

import "errors"

var (
	// ErrClosed is returned by operations on an instance after Close.
	ErrClosed = errors.New("filter instance closed")

	// ErrNoHost is returned by New without a host pipeline.
	ErrNoHost = errors.New("filter instance requires a host")

	// ErrNoTaskRunner is returned by New without a task runner.
	ErrNoTaskRunner = errors.New("filter instance requires a task runner")
)
