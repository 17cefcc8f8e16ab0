// SPDX-License-Identifier: EPL-2.0

package device

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/ik5/mocaudio/pcm"
)

// Oto is a Device backed by github.com/ebitengine/oto/v3. Grounded on
// other_examples' resonate-go Oto output: an oto.Player fed through an
// io.Pipe, since oto streams rather than accepting discrete buffers.
// Each Open creates a new pipe and player and Close tears both down.
// oto permits only one oto.Context per process, so Close does not tear
// the context down; a re-Open with a different format logs a warning
// and keeps the existing context.
type Oto struct {
	mu sync.Mutex

	ctx    *oto.Context
	player *oto.Player
	pw     *io.PipeWriter
	pr     *io.PipeReader

	rate     int
	channels int
	format   pcm.SampleFormat
	opened   bool

	logger *slog.Logger
}

// NewOto returns an unopened Oto device. logger may be nil, in which
// case slog.Default() is used.
func NewOto(logger *slog.Logger) *Oto {
	if logger == nil {
		logger = slog.Default()
	}
	return &Oto{logger: logger}
}

// Init reports the narrow set of formats oto/v3 accepts natively:
// unsigned 8-bit, signed 16-bit little-endian, and 32-bit float
// little-endian, 1 or 2 channels. Anything else must be converted
// upstream before reaching this device.
func (o *Oto) Init() pcm.Capabilities {
	caps := pcm.NewCapabilities(1, 2)
	caps.Add(pcm.U8, pcm.LittleEndian)
	caps.Add(pcm.S16, pcm.LittleEndian)
	caps.Add(pcm.Float, pcm.LittleEndian)
	return caps
}

func (o *Oto) otoFormat(t pcm.SampleType) (oto.Format, bool) {
	switch t {
	case pcm.U8:
		return oto.FormatUnsignedInt8, true
	case pcm.S16:
		return oto.FormatSignedInt16LE, true
	case pcm.Float:
		return oto.FormatFloat32LE, true
	default:
		return 0, false
	}
}

func (o *Oto) Open(params pcm.SoundParams) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	fmt_, ok := o.otoFormat(params.Format.Type)
	if !ok || params.Format.Endian.Resolve() != pcm.LittleEndian {
		return false
	}

	if o.ctx != nil && (o.rate != params.Rate || o.channels != params.Channels || o.format.Type != params.Format.Type) {
		o.logger.Warn("oto device does not support reinitialization; continuing with existing context",
			"old_rate", o.rate, "new_rate", params.Rate)
	}

	if o.ctx == nil {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   params.Rate,
			ChannelCount: params.Channels,
			Format:       fmt_,
		})
		if err != nil {
			o.logger.Error("oto context creation failed", "error", err)
			return false
		}
		<-ready
		o.ctx = ctx
		o.rate = params.Rate
		o.channels = params.Channels
		o.format = params.Format
	}

	// Every Open gets its own pipe and player, even when reusing an
	// existing context: the previous player/pipe pair was torn down by
	// Close and can't accept writes again.
	o.pr, o.pw = io.Pipe()
	o.player = o.ctx.NewPlayer(o.pr)
	o.player.Play()
	o.opened = true
	return true
}

func (o *Oto) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil {
		o.player.Close()
	}
	if o.pw != nil {
		o.pw.Close()
	}
	o.opened = false
}

func (o *Oto) Play(buf []byte) (int, error) {
	o.mu.Lock()
	pw := o.pw
	opened := o.opened
	o.mu.Unlock()

	if !opened || pw == nil {
		return 0, ErrDeviceClosed
	}
	n, err := pw.Write(buf)
	if err != nil {
		return n, fmt.Errorf("device: oto pipe write: %w", err)
	}
	return n, nil
}

// Reset is unsupported: oto's pipe-fed player has no way to discard
// already-written-but-unplayed bytes short of tearing down the
// player. Reset always reports failure; outbuf's worker logs that and
// carries on.
func (o *Oto) Reset() bool { return false }

func (o *Oto) BufFill() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return 0
	}
	return o.player.BufferedSize()
}

func (o *Oto) GetRate() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rate
}

// ReadMixer always reports -1: oto exposes no hardware mixer, and
// volume control belongs to the softmix stage upstream.
func (o *Oto) ReadMixer() int { return -1 }

// SetMixer is a no-op for the same reason ReadMixer reports -1.
func (o *Oto) SetMixer(int) {}
