// Package config loads, normalizes, and validates enrichd configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ARISTOTE_CLIENT_SECRET. The Config type centralizes every knob the server
// and the import driver need: service credentials, the public base URL the
// enrichment provider calls back on, and the lifecycle policy values the
// reconciler treats as configuration rather than literals.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
