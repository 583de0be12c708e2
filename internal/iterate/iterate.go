// Package iterate runs verification steps one at a time, stopping at the
// first failure.
//
// A step reports one of three outcomes through its return value:
//
//   - nil: continue with the next step
//   - Stop: end the iteration successfully, skipping the remaining steps
//   - any other error: end the iteration and forward that error
//
// No step is started before the previous one returned, so failure attribution
// is always "first failing step in order".
package iterate

import (
	"context"
	"errors"
	"sort"
)

// Stop ends an iteration early without reporting a failure.
var Stop = errors.New("iterate: stop")

// Slice runs step for every item in order.
func Slice[T any](ctx context.Context, items []T, step func(ctx context.Context, index int, item T) error) error {
	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx, i, items[i]); err != nil {
			if errors.Is(err, Stop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Map runs step for every entry of m. Keys are visited in ascending order so
// the reported failure does not depend on map iteration order.
func Map[V any](ctx context.Context, m map[string]V, step func(ctx context.Context, key string, value V) error) error {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Slice(ctx, keys, func(ctx context.Context, _ int, k string) error {
		return step(ctx, k, m[k])
	})
}
