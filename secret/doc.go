// Package secret resolves credentials referenced from configuration.
//
// Configuration values go through strict environment expansion (see
// ExpandEnvStrict) and then secret references are resolved through
// providers (see Provider, Registry and Resolver).
//
// References use the prefix "secretref:":
//   - Environment: secretref:env:OPENWEATHER_API_KEY
//   - File:        secretref:file:/run/secrets/openweather
//   - Inline use:  Bearer secretref:env:ADMIN_TOKEN
//
// RegisterBuiltins installs the "env" and "file" providers.
package secret
