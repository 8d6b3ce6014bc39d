// Package config loads, normalizes, and validates ridiexport configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RIDIEXPORT_DRM_HELPER. The Config type centralizes the credential file
// location, the library base override, the DRM helper, and logging knobs so
// the CLI resolves everything in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
