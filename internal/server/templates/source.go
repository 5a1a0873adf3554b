// Package templates provides the lease template text.
package templates

import (
	"context"
	_ "embed"
	"fmt"
	"os"
)

//go:embed lease.tmpl
var defaultLease string

// Source returns the current template text.
type Source interface {
	Load(ctx context.Context) (string, error)
}

// FileSource reads the template from disk on every call so edits are
// picked up without a restart.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (string, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", s.Path, err)
	}
	return string(b), nil
}

// StaticSource always returns the same text.
type StaticSource string

func (s StaticSource) Load(ctx context.Context) (string, error) {
	return string(s), nil
}

// Default returns the built-in residential lease.
func Default() StaticSource {
	return StaticSource(defaultLease)
}

// New returns a FileSource for path, or the built-in lease when path is
// empty.
func New(path string) Source {
	if path == "" {
		return Default()
	}
	return FileSource{Path: path}
}
