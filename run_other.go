//go:build !linux

package sigrelease

import (
	"context"
)

func Run(ctx context.Context, opts ...Option) (*Result, error) {
	return nil, ErrUnsupported
}
