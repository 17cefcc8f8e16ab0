// SPDX-License-Identifier: EPL-2.0

package convert

import "errors"

var (
	// ErrNoConversionNeeded is returned by New when from and to already
	// describe the same stream shape; callers must bypass the converter
	// in that case (spec §4.3's "idempotence" contract).
	ErrNoConversionNeeded = errors.New("convert: source and target params are identical, bypass the converter")

	// ErrUnsupportedChannelConversion is returned by New for any channel
	// mismatch other than 1 -> 2 (mono to stereo duplication).
	ErrUnsupportedChannelConversion = errors.New("convert: unsupported channel conversion")

	// ErrUnknownSampleFormat is returned when a sample type has no
	// known width or conversion rule.
	ErrUnknownSampleFormat = errors.New("convert: unknown sample format")

	// ErrPartialFrame is returned when the input buffer length is not a
	// whole number of source frames.
	ErrPartialFrame = errors.New("convert: input length is not a whole number of frames")
)
