/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the error kinds reported by the decoding layers.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sample

import "github.com/pkg/errors"

// Error kinds. Lower layers wrap these with errors.Wrap so callers can
// classify a failure with errors.Is.
var (
	// ErrMalformed reports bad magic, truncated data or an out of range
	// offset. The offending unit is skipped.
	ErrMalformed = errors.New("malformed input")

	// ErrUnsupported reports a codec or container variant that is not
	// implemented.
	ErrUnsupported = errors.New("unsupported variant")

	// ErrNoPlayableTracks reports a song that loaded without error but
	// produced no tracks.
	ErrNoPlayableTracks = errors.New("no playable tracks")

	// ErrNotFound reports a missing file.
	ErrNotFound = errors.New("file not found")
)

// Malformedf returns an ErrMalformed wrapped with a formatted message.
func Malformedf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformed, format, args...)
}

// Unsupportedf returns an ErrUnsupported wrapped with a formatted message.
func Unsupportedf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrUnsupported, format, args...)
}
