// Package config loads weatherops configuration.
//
// Load reads an optional .env file, then a YAML document whose ${VAR}
// references are expanded strictly, then applies environment overrides and
// resolves secretref: values (see package secret) before validating.
package config
