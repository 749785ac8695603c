package service

import "context"

// WriteSerializer runs a read-modify-write cycle against the stores. The
// default runs the cycle inline on the caller's goroutine, so concurrent
// cycles may interleave and lose updates.
type WriteSerializer interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type inlineWrites struct{}

func (inlineWrites) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// InlineWrites returns the unsynchronized WriteSerializer.
func InlineWrites() WriteSerializer { return inlineWrites{} }
