package secret

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvProvider resolves references as environment variable names.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider returns a provider backed by the process environment.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// Name implements Provider.
func (p *EnvProvider) Name() string { return "env" }

// Resolve returns the value of the environment variable named ref.
func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := p.lookup(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s", ErrSecretNotFound, ref)
	}
	return v, nil
}

// Close implements Provider.
func (p *EnvProvider) Close() error { return nil }

// FileProvider resolves references as file paths, e.g. mounted secrets.
// A single trailing newline is stripped.
type FileProvider struct {
	// Root, when set, confines relative references to this directory.
	Root string
}

// Name implements Provider.
func (p *FileProvider) Name() string { return "file" }

// Resolve reads the file named by ref.
func (p *FileProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := ref
	if p.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(p.Root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: file %s", ErrSecretNotFound, ref)
		}
		return "", fmt.Errorf("secret: read %s: %w", ref, err)
	}
	s := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

// Close implements Provider.
func (p *FileProvider) Close() error { return nil }

// RegisterBuiltins registers the "env" and "file" providers with reg.
// The file provider honours an optional "root" config value.
func RegisterBuiltins(reg *Registry) error {
	if err := reg.Register("env", func(map[string]any) (Provider, error) {
		return NewEnvProvider(), nil
	}); err != nil {
		return err
	}
	return reg.Register("file", func(cfg map[string]any) (Provider, error) {
		p := &FileProvider{}
		if root, ok := cfg["root"].(string); ok {
			p.Root = root
		}
		return p, nil
	})
}
