// Package assets loads model files into scene nodes.
package assets

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/gekko3d/siteplan/layout/core"
)

// ErrAssetLoad is matched by every *LoadError.
var ErrAssetLoad = errors.New("asset load failure")

// Loader turns an asset reference (file path or URL) into a fresh node tree.
// Every call must return a new tree; callers own and dispose it.
type Loader interface {
	Load(ctx context.Context, ref string) (*core.Node, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, ref string) (*core.Node, error)

func (f LoaderFunc) Load(ctx context.Context, ref string) (*core.Node, error) {
	return f(ctx, ref)
}

// LoadError reports a missing, unreachable or malformed asset.
type LoadError struct {
	Ref string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Cause() error { return e.Err }

func (e *LoadError) Is(target error) bool {
	return target == ErrAssetLoad
}

func loadErr(ref string, err error, msg string) error {
	return &LoadError{Ref: ref, Err: errors.Wrap(err, msg)}
}
