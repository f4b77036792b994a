package domain

import "errors"

var (
	// ErrEmptyPatch marks a file whose patch yields no analyzable content.
	ErrEmptyPatch = errors.New("empty patch content")
	// ErrProviderTimeout marks a provider that missed its deadline.
	ErrProviderTimeout = errors.New("provider timed out")
	// ErrProviderPanic marks a provider that panicked during analysis.
	ErrProviderPanic = errors.New("provider panicked")
	// ErrInvalidTransition is returned for illegal task state changes.
	ErrInvalidTransition = errors.New("invalid task state transition")
)
