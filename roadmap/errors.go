package roadmap

import "errors"

var (
	// ErrSamplingExhausted is returned by Build when the free space is too
	// crowded to place the requested number of configurations within the
	// attempt budget. The builder holds no roadmap afterwards.
	ErrSamplingExhausted = errors.New("roadmap: sampling exhausted before reaching requested vertex count")

	// ErrInvalidParameter is returned by Build when a parameter is out of
	// range, before any sampling happens.
	ErrInvalidParameter = errors.New("roadmap: invalid build parameter")
)
