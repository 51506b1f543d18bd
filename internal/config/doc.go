// Package config loads the dashboard server configuration.
//
// Load starts from Default, overlays the YAML file named by EDUDASH_CONFIG (or
// config/edudash.yaml if it exists), then applies environment variables through
// envconfig, and validates the result. Variables are named
// EDUDASH_<SECTION>_<FIELD>, for example:
//
//	EDUDASH_DATA_SOURCE=http
//	EDUDASH_DATA_BASE_URL=https://stats.example.org/edu
//	EDUDASH_DATA_PRELOAD=true
//	EDUDASH_SECURITY_ALLOWED_ORIGINS=https://a.example.org,https://b.example.org
//	EDUDASH_TELEMETRY_TRACING_ENABLED=true
//
// The data section decides where the six CSV files and the province map come
// from: a local directory (source "file") or a static host (source "http").
//
// Tests build configurations from Default and never touch the environment.
package config
