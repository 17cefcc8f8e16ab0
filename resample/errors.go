// SPDX-License-Identifier: EPL-2.0

package resample

import "errors"

// ErrInvalidFrameSize is returned when Push is given a slice whose
// length is not a multiple of the resampler's channel count.
var ErrInvalidFrameSize = errors.New("resample: input length must be a multiple of channel count")
