// SPDX-License-Identifier: EPL-2.0

// Package device defines the adapter contract the output buffer's
// worker drives, and the back-ends that implement it. The worker
// depends only on this interface: no inheritance depth, a small
// vtable, per spec §4.5 and §9's "device adapter polymorphism" note.
package device

import "github.com/ik5/mocaudio/pcm"

// Device is the OS-level audio sink adapter. Implementations are
// driven entirely from the OutputBuffer's worker goroutine; see
// package outbuf for the synchronization contract.
type Device interface {
	// Init reports the device's fixed capabilities: supported sample
	// formats and the channel-count range it accepts.
	Init() pcm.Capabilities

	// Open prepares the device for playback at params, returning false
	// if params cannot be honored. Open may be called again after
	// Close without re-calling Init.
	Open(params pcm.SoundParams) bool

	// Close releases the device. Safe to call on an already-closed
	// device.
	Close()

	// Play writes buf to the device, returning the number of bytes
	// actually accepted (which may be less than len(buf)) or an error.
	// The worker retries until the buffer is fully drained.
	Play(buf []byte) (int, error)

	// Reset drops any pending audio, readying the device for immediate
	// reuse, and reports whether it succeeded.
	Reset() bool

	// BufFill reports device-reported outstanding bytes still to be
	// played, or 0 if the device cannot report this.
	BufFill() int

	// GetRate reports the device's actual output rate in Hz, which may
	// differ from the rate requested at Open.
	GetRate() int

	// ReadMixer reports the hardware mixer level in [0, 100], or -1 if
	// the device has no hardware mixer.
	ReadMixer() int

	// SetMixer sets the hardware mixer level, clamped to [0, 100].
	SetMixer(level int)
}
