// SPDX-License-Identifier: EPL-2.0

// Package outbuf implements the output buffer stage of the playback
// pipeline: a bounded FIFO fed by a producer, drained by one dedicated
// worker goroutine that drives a device.Device. Grounded on the
// cond-variable producer/consumer shape of the teacher's audio.go and
// on other_examples' SharedAudioBuffer (sync.Mutex + sync.Cond over a
// single lock), generalized to the two-condvar, bounded-FIFO,
// device-driving worker of spec §4.4.
package outbuf

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ik5/mocaudio/device"
	"github.com/ik5/mocaudio/fifo"
	"github.com/ik5/mocaudio/internal/assertc"
	"github.com/ik5/mocaudio/pcm"
)

const (
	// maxPlaySec bounds how long, in seconds of audio, a single worker
	// iteration drains in one device.Play sequence, so control
	// operations (pause/stop/reset) stay responsive.
	maxPlaySec = 0.1
	// maxPlayBytes is the hard byte ceiling on top of maxPlaySec.
	maxPlayBytes = 32768

	reopenRetryDelay = time.Second
)

// OutputBuffer is a bounded byte FIFO drained by a dedicated worker
// goroutine that writes to a device.Device. One mutex guards all
// mutable fields, the FIFO, and the device-open flag; two condition
// variables ("data-available", "space-available") signal across it,
// per spec §5.
type OutputBuffer struct {
	mu             sync.Mutex
	dataAvailable  *sync.Cond
	spaceAvailable *sync.Cond
	parked         *sync.Cond // internal: lets WaitUntilParked observe workerParked transitions

	fifo *fifo.FIFO
	dev  device.Device

	params         pcm.SoundParams
	bytesPerSecond int

	deviceOpen           bool
	paused               bool
	stopped              bool
	exiting              bool
	resetDeviceRequested bool
	workerParked         bool

	playedTime float64
	hwFill     int

	freeCallback func()

	logger *slog.Logger
	wg     sync.WaitGroup

	destroyed bool
}

// New constructs an OutputBuffer with a FIFO of the given byte
// capacity, owning dev for its lifetime, and starts its worker
// goroutine immediately. logger may be nil, in which case
// slog.Default() is used.
func New(capacity int, dev device.Device, params pcm.SoundParams, logger *slog.Logger) *OutputBuffer {
	if logger == nil {
		logger = slog.Default()
	}
	ob := &OutputBuffer{
		fifo:           fifo.New(capacity),
		dev:            dev,
		params:         params,
		bytesPerSecond: pcm.BytesPerSecond(params),
		logger:         logger,
	}
	ob.dataAvailable = sync.NewCond(&ob.mu)
	ob.spaceAvailable = sync.NewCond(&ob.mu)
	ob.parked = sync.NewCond(&ob.mu)

	ob.wg.Add(1)
	go ob.run()
	return ob
}

// Put copies as much of data into the FIFO as fits, blocking while
// the FIFO is full and the buffer is not stopped. It returns 0
// without blocking once stopped: this is the protocol signal to the
// producer that playback has been cancelled, not an error.
func (ob *OutputBuffer) Put(data []byte) int {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	total := 0
	for total < len(data) {
		if ob.stopped {
			return total
		}
		n := ob.fifo.Put(data[total:])
		if n > 0 {
			total += n
			ob.dataAvailable.Broadcast()
			continue
		}
		ob.spaceAvailable.Wait()
	}
	return total
}

// Pause requests the worker close the device at its next park point.
// The FIFO is left intact; Unpause resumes from where it left off.
func (ob *OutputBuffer) Pause() {
	ob.mu.Lock()
	ob.paused = true
	ob.resetDeviceRequested = true
	ob.mu.Unlock()
	ob.dataAvailable.Broadcast()
}

// Unpause clears the paused flag and wakes the worker.
func (ob *OutputBuffer) Unpause() {
	ob.mu.Lock()
	ob.paused = false
	ob.mu.Unlock()
	ob.dataAvailable.Broadcast()
}

// Stop requests the worker drop all pending audio and blocks until it
// has done so. After Stop returns, Put returns 0 until Reset is
// called.
func (ob *OutputBuffer) Stop() {
	ob.mu.Lock()
	ob.stopped = true
	ob.paused = false
	ob.resetDeviceRequested = true
	ob.mu.Unlock()
	ob.dataAvailable.Broadcast()

	ob.mu.Lock()
	for ob.fifo.Fill() != 0 {
		ob.spaceAvailable.Wait()
	}
	ob.mu.Unlock()
}

// Reset clears the stopped state, readying the buffer for reuse.
// Precondition: the buffer is stopped and no concurrent Put is in
// flight; violating it is a programmer error.
func (ob *OutputBuffer) Reset() {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	assertc.That(ob.stopped, "outbuf: Reset called while not stopped")

	ob.fifo.Clear()
	ob.stopped = false
	ob.paused = false
	ob.resetDeviceRequested = false
	ob.hwFill = 0
}

// SetTime overrides the played-time accumulator, e.g. after a seek.
func (ob *OutputBuffer) SetTime(seconds float64) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	ob.playedTime = seconds
}

// Time returns max(0, played_time - hw_fill/bytes_per_second), the
// current estimated playback position.
func (ob *OutputBuffer) Time() float64 {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.timeLocked()
}

func (ob *OutputBuffer) timeLocked() float64 {
	t := ob.playedTime
	if ob.bytesPerSecond > 0 {
		t -= float64(ob.hwFill) / float64(ob.bytesPerSecond)
	}
	if t < 0 {
		return 0
	}
	return t
}

// SetFreeCallback installs fn to be invoked, without the lock held,
// once per worker iteration. A nil fn disables the callback. The
// callback runs on the worker goroutine; it must not call Destroy or
// Put on this same OutputBuffer synchronously, per spec §9.
func (ob *OutputBuffer) SetFreeCallback(fn func()) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	ob.freeCallback = fn
}

// Fill returns the number of unread bytes currently queued.
func (ob *OutputBuffer) Fill() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.fifo.Fill()
}

// Free returns the number of bytes Put could currently accept without
// blocking.
func (ob *OutputBuffer) Free() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.fifo.Space()
}

// WaitUntilParked blocks until the worker is parked: the FIFO is
// empty, or the buffer is paused or stopped. Callers use this to be
// sure the device is idle before touching it directly.
func (ob *OutputBuffer) WaitUntilParked() {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	for !ob.workerParked {
		ob.parked.Wait()
	}
}

// Destroy stops the worker, joins it, and releases the FIFO.
// Precondition: no producer is concurrently calling Put.
func (ob *OutputBuffer) Destroy() {
	ob.mu.Lock()
	ob.exiting = true
	ob.mu.Unlock()
	ob.dataAvailable.Broadcast()

	ob.wg.Wait()

	ob.mu.Lock()
	ob.fifo.Clear()
	ob.destroyed = true
	ob.mu.Unlock()
	ob.spaceAvailable.Broadcast()
}

// run is the worker loop described by spec §4.4. One dedicated
// goroutine per OutputBuffer drives the device for the buffer's
// lifetime.
func (ob *OutputBuffer) run() {
	defer ob.wg.Done()

	scratch := make([]byte, maxPlayBytes)

	for {
		ob.mu.Lock()

		if ob.resetDeviceRequested && ob.deviceOpen {
			if !ob.dev.Reset() {
				ob.logger.Warn("device reset failed")
			}
			ob.resetDeviceRequested = false
		}

		if ob.stopped {
			ob.fifo.Clear()
		}

		if cb := ob.freeCallback; cb != nil {
			ob.mu.Unlock()
			cb()
			ob.mu.Lock()
		}

		ob.spaceAvailable.Broadcast()

		// While exiting, the worker never parks waiting for more data
		// to arrive: if the fifo is already drained, or paused leaves
		// the device closed with no way to drain it, give up now.
		// Destroy clears the fifo after joining this goroutine, so
		// abandoning whatever is left here is safe.
		if ob.exiting && (ob.fifo.Fill() == 0 || ob.paused) {
			if ob.deviceOpen {
				ob.dev.Close()
				ob.deviceOpen = false
			}
			ob.mu.Unlock()
			return
		}

		if !ob.exiting && (ob.fifo.Fill() == 0 || ob.paused || ob.stopped) {
			if ob.paused && ob.deviceOpen {
				ob.dev.Close()
				ob.deviceOpen = false
			}
			ob.workerParked = true
			ob.parked.Broadcast()
			ob.dataAvailable.Wait()
			ob.workerParked = false
			ob.parked.Broadcast()
			ob.mu.Unlock()
			continue
		}

		if !ob.deviceOpen {
			if ob.dev.Open(ob.params) {
				ob.deviceOpen = true
			} else if ob.exiting {
				// Don't retry-sleep forever on Destroy's behalf; give
				// up and let the fifo be dropped as above.
				ob.mu.Unlock()
				return
			} else {
				ob.logger.Warn("device open failed, retrying", "delay", reopenRetryDelay)
				ob.mu.Unlock()
				time.Sleep(reopenRetryDelay)
				continue
			}
		}

		if ob.stopped {
			ob.mu.Unlock()
			continue
		}

		n := ob.fifo.Fill()
		if n > maxPlayBytes {
			n = maxPlayBytes
		}
		if ob.bytesPerSecond > 0 {
			capBytes := int(float64(ob.bytesPerSecond) * maxPlaySec)
			if capBytes > 0 && capBytes < n {
				n = capBytes
			}
		}
		got := ob.fifo.Get(scratch[:n])
		ob.mu.Unlock()

		written := ob.drain(scratch[:got])

		ob.mu.Lock()
		if written > 0 && ob.bytesPerSecond > 0 {
			ob.playedTime += float64(written) / float64(ob.bytesPerSecond)
		}
		ob.hwFill = ob.dev.BufFill()
		ob.mu.Unlock()
	}
}

// drain writes buf to the device, retrying on short writes, and
// returns the number of bytes actually accepted. A write failure
// discards the remainder of buf and is logged, per spec §7's
// DeviceWriteFailure policy; the worker continues on the next
// iteration.
func (ob *OutputBuffer) drain(buf []byte) int {
	written := 0
	for written < len(buf) {
		n, err := ob.dev.Play(buf[written:])
		if err != nil {
			ob.logger.Warn("device write failed", "error", err)
			break
		}
		if n == 0 {
			break
		}
		written += n
	}
	return written
}
