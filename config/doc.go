// Package config holds the configuration surface of the denoising filter.
//
// Settings is the per-instance blob a host hands to Instance.Update: the
// selected provider (Automatic by default) and the strength (Strong by
// default). FromMap accepts numeric values or names, so both
//
//	config.FromMap(map[string]any{"provider": 2, "strength": 0})
//	config.FromMap(map[string]any{"provider": "temporal", "strength": "weak"})
//
// describe the same settings.
//
// PluginConfig is read once when the plugin loads. LoadPluginConfig layers
// built-in defaults, an optional YAML file and DENOISEFX_* environment
// variables (optionally seeded from a .env file):
//
//   - DENOISEFX_WORKERS: size of the switch task pool, 0 for GOMAXPROCS
//   - DENOISEFX_LOG_LEVEL: logrus level name
//   - DENOISEFX_LOG_FORMAT: "text" or "json"
//   - DENOISEFX_DISABLED_PROVIDERS: comma-separated provider keys
//   - DENOISEFX_PRIORITY: comma-separated provider keys
//   - DENOISEFX_PROVIDER, DENOISEFX_STRENGTH: instance defaults
//
// Invalid values are logged and replaced by their defaults rather than
// failing the load.
package config
