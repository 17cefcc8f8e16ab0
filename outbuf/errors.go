// SPDX-License-Identifier: EPL-2.0

package outbuf

import "errors"

// ErrAlreadyDestroyed names the destroyed state of an OutputBuffer.
// No OutputBuffer method returns it; none of them returns an error.
var ErrAlreadyDestroyed = errors.New("outbuf: buffer already destroyed")
