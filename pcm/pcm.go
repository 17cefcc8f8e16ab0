// SPDX-License-Identifier: EPL-2.0

// Package pcm describes the PCM sample formats and sound parameters that
// flow through the playback pipeline: the FIFO, the software mixer, the
// audio converter, the output buffer, and the device adapters all agree
// on the same SoundParams/SampleFormat vocabulary defined here.
package pcm

import (
	"fmt"
	"unsafe"
)

// SampleType is the numeric representation of one PCM sample.
type SampleType int

const (
	U8 SampleType = iota
	S8
	U16
	S16
	U32
	S32
	Float
)

func (t SampleType) String() string {
	switch t {
	case U8:
		return "U8"
	case S8:
		return "S8"
	case U16:
		return "U16"
	case S16:
		return "S16"
	case U32:
		return "U32"
	case S32:
		return "S32"
	case Float:
		return "Float"
	default:
		return fmt.Sprintf("SampleType(%d)", int(t))
	}
}

// Width reports the sample width in bytes.
func (t SampleType) Width() int {
	switch t {
	case U8, S8:
		return 1
	case U16, S16:
		return 2
	case U32, S32, Float:
		return 4
	default:
		return 0
	}
}

// Signed reports whether the sample type is a signed fixed-point type.
// Float is neither signed nor unsigned in the fixed-point sense.
func (t SampleType) Signed() bool {
	switch t {
	case S8, S16, S32:
		return true
	default:
		return false
	}
}

// Endianness is the byte order a multi-byte sample is stored in.
type Endianness int

const (
	// NativeEndian resolves to LittleEndian or BigEndian at package init,
	// per the target architecture. Never re-probed in hot loops.
	NativeEndian Endianness = iota
	LittleEndian
	BigEndian
)

func (e Endianness) String() string {
	switch e {
	case LittleEndian:
		return "LE"
	case BigEndian:
		return "BE"
	case NativeEndian:
		return "Native"
	default:
		return fmt.Sprintf("Endianness(%d)", int(e))
	}
}

// hostEndian is resolved once, at init, via a cheap uint16 probe.
var hostEndian = func() Endianness {
	var x uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&x))
	if b[0] == 1 {
		return LittleEndian
	}
	return BigEndian
}()

// Resolve returns e with NativeEndian replaced by the concrete host
// endianness. LittleEndian/BigEndian pass through unchanged.
func (e Endianness) Resolve() Endianness {
	if e == NativeEndian {
		return hostEndian
	}
	return e
}

// HostEndian returns the concrete endianness of the running machine.
func HostEndian() Endianness { return hostEndian }

// SampleFormat tags a sample's numeric type and byte order.
type SampleFormat struct {
	Type   SampleType
	Endian Endianness
}

func (f SampleFormat) String() string {
	if f.Type.Width() <= 1 {
		return f.Type.String()
	}
	return fmt.Sprintf("%s-%s", f.Type, f.Endian)
}

// SoundParams is the (format, channels, rate) triple describing a PCM
// stream, as produced by a decoder and consumed by the converter,
// mixer, and output buffer.
type SoundParams struct {
	Format   SampleFormat
	Channels int
	Rate     int
}

// Equal reports whether two SoundParams describe the same stream shape.
// Endianness is compared after resolving NativeEndian, so a params value
// built with NativeEndian compares equal to one with the concrete
// endianness of the current host.
func (p SoundParams) Equal(o SoundParams) bool {
	return p.Format.Type == o.Format.Type &&
		p.Format.Endian.Resolve() == o.Format.Endian.Resolve() &&
		p.Channels == o.Channels &&
		p.Rate == o.Rate
}

// BytesPerSample returns the size, in bytes, of one sample of f.
func BytesPerSample(f SampleFormat) int { return f.Type.Width() }

// BytesPerFrame returns the size, in bytes, of one interleaved frame
// (one sample per channel) of p.
func BytesPerFrame(p SoundParams) int {
	return BytesPerSample(p.Format) * p.Channels
}

// BytesPerSecond returns channels * sample_size(format) * rate, the
// glossary's "bytes per second" quantity, used throughout outbuf to
// convert a byte count into playback seconds.
func BytesPerSecond(p SoundParams) int {
	return BytesPerFrame(p) * p.Rate
}

// SampleMax returns the maximum representable value of a fixed-point
// sample type, as a float64 for use in clamping/scaling computations.
// Float formats have no finite max; callers must special-case Float.
func SampleMax(t SampleType) float64 {
	switch t {
	case U8:
		return 255
	case S8:
		return 127
	case U16:
		return 65535
	case S16:
		return 32767
	case U32:
		return 4294967295
	case S32:
		// §4.3 step 6: S32 carries a 24-bit-valued sample, true range ±2^23.
		return 8388607
	default:
		return 0
	}
}
