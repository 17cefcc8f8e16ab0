// SPDX-License-Identifier: EPL-2.0

package device

import "errors"

// ErrMockPlayFailure is returned by Mock.Play after FailNextPlay,
// standing in for a DeviceWriteFailure per spec §7.
var ErrMockPlayFailure = errors.New("device: mock play failure")

// ErrDeviceClosed is returned by Play/BufFill-adjacent operations when
// called on a device that was never successfully opened.
var ErrDeviceClosed = errors.New("device: not open")
