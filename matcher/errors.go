// ABOUTME: Sentinel errors for input and configuration validation
// ABOUTME: Distinct from the classified writing errors the engine reports as data

package matcher

import "errors"

var (
	// ErrEmptyReference reports a match call with no reference strokes.
	ErrEmptyReference = errors.New("reference character has no strokes")

	// ErrConfig reports engine configuration the GA cannot run with.
	ErrConfig = errors.New("invalid matcher configuration")
)
