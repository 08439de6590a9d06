package fetch

import (
	"fmt"
	"strings"
)

// Endpoint binds a request class to a remote path and the parameters that
// identify a request of that class.
type Endpoint struct {
	// Name selects the endpoint in Fetch calls.
	Name string

	// Class prefixes the cache key. Defaults to Name.
	Class string

	// Path is appended to the client's base URL.
	Path string

	// Identity lists, in key order, the parameters that distinguish one
	// request of this class from another.
	Identity []string
}

func (e Endpoint) class() string {
	if e.Class != "" {
		return e.Class
	}
	return e.Name
}

func (e Endpoint) validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidEndpoint)
	}
	if strings.ContainsAny(e.class(), ": ") {
		return fmt.Errorf("%w: class %q contains a separator", ErrInvalidEndpoint, e.class())
	}
	if strings.TrimSpace(e.Path) == "" {
		return fmt.Errorf("%w: %s has no path", ErrInvalidEndpoint, e.Name)
	}
	if len(e.Identity) == 0 {
		return fmt.Errorf("%w: %s has no identity parameters", ErrInvalidEndpoint, e.Name)
	}
	return nil
}
