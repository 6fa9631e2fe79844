// Package lazy provides a one-shot initialization cell with sticky
// failure semantics. A missing or malformed input file will not heal on
// its own, so once construction fails the cached error is returned on
// every subsequent use without retrying the load.
package lazy

import "sync"

// Value holds a lazily constructed T. The first caller of Get pays the
// construction cost; concurrent callers block until it completes and
// then share the result or the cached error.
type Value[T any] struct {
	build func() (T, error)

	once  sync.Once
	value T
	err   error
}

// New returns a Value that constructs its contents with build on first use.
func New[T any](build func() (T, error)) *Value[T] {
	return &Value[T]{build: build}
}

// Get returns the constructed value, building it exactly once.
func (v *Value[T]) Get() (T, error) {
	v.once.Do(func() {
		v.value, v.err = v.build()
	})
	return v.value, v.err
}
