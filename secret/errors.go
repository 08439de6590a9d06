package secret

import "errors"

var (
	// ErrMissingEnv is returned when ${VAR} names an unset variable.
	ErrMissingEnv = errors.New("secret: missing environment variable")

	// ErrInvalidRegistration is returned for an empty name or nil factory.
	ErrInvalidRegistration = errors.New("secret: invalid provider registration")

	// ErrDuplicateProvider is returned when a provider name is registered twice.
	ErrDuplicateProvider = errors.New("secret: provider already registered")

	// ErrProviderNotFound is returned when a reference names an unknown provider.
	ErrProviderNotFound = errors.New("secret: provider not registered")

	// ErrSecretNotFound is returned when a provider has no value for a reference.
	ErrSecretNotFound = errors.New("secret: secret not found")

	// ErrEmptySecret is returned in strict mode when a provider yields "".
	ErrEmptySecret = errors.New("secret: empty secret value")
)
