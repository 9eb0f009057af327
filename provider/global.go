package provider

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	globalMu sync.Mutex
	global   *Registry
)

// Initialize creates and probes the process-wide registry. It is called once
// by the plugin shim at load time; later calls log a warning and return the
// existing registry without applying their variants or options.
// It never panics.
func Initialize(variants []Variant, opts ...Option) (reg *Registry) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		logrus.WithFields(logrus.Fields{
			"function": "provider.Initialize",
			"variants": len(variants),
			"options":  len(opts),
		}).Warn("Provider registry already initialized, ignoring new variants and options")
		return global
	}

	defer func() {
		if rec := recover(); rec != nil {
			logrus.WithFields(logrus.Fields{
				"function": "provider.Initialize",
				"error":    fmt.Sprintf("%v", rec),
			}).Error("Failed to initialize provider registry")
			global = nil
			reg = nil
		}
	}()

	r := NewRegistry(variants, opts...)
	r.Initialize()
	global = r
	return r
}

// Finalize tears down the process-wide registry. Safe to call when Initialize
// was never called or failed.
func Finalize() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return
	}
	global.Finalize()
	global = nil
}

// Get returns the process-wide registry.
func Get() (*Registry, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return nil, ErrNotInitialized
	}
	return global, nil
}
