// SPDX-License-Identifier: EPL-2.0

// Package softmix implements the software mixer stage of the playback
// pipeline: per-sample gain with amplification-and-clipping, and an
// optional stereo/multi-channel-to-mono downmix, applied to the final
// byte stream just before it reaches the output buffer.
package softmix

import (
	"encoding/binary"

	"github.com/ik5/mocaudio/pcm"
)

// Min and Max bound both Value and (indirectly, through the 100
// baseline) the effective gain percentage; Amp may independently run
// up to Max to allow amplification past unity, at the risk of clipping.
const (
	Min = 0
	Max = 200
)

// SoftMixer holds the gain/amplification/mono state applied to every
// buffer that passes through Process. A zero SoftMixer is inert
// (Value/Amp both 0 until set) — callers typically start from New.
type SoftMixer struct {
	Active bool
	Value  int // 0..100
	Amp    int // 0..200
	Mono   bool
}

// New returns a SoftMixer at unity gain (Value=100, Amp=100),
// inactive, stereo passthrough — mirroring softmixer_init's defaults
// in the original implementation.
func New() *SoftMixer {
	return &SoftMixer{Value: 100, Amp: 100}
}

// SetValue sets the user-facing volume percentage, clamped to [0, 100].
func (m *SoftMixer) SetValue(v int) {
	if v < 0 {
		v = 0
	} else if v > 100 {
		v = 100
	}
	m.Value = v
}

// SetAmp sets the amplification percentage, clamped to [Min, Max].
func (m *SoftMixer) SetAmp(a int) {
	if a < Min {
		a = Min
	} else if a > Max {
		a = Max
	}
	m.Amp = a
}

// effectiveGain returns the integer-percent gain ratio, value*amp/100,
// clamped to [Min, Max].
func (m *SoftMixer) effectiveGain() int {
	g := (m.Value * m.Amp) / 100
	if g < Min {
		g = Min
	} else if g > Max {
		g = Max
	}
	return g
}

// Process applies gain then mono downmix to buf (size bytes), in
// place, according to params. If the SoftMixer is inactive, or gain is
// exactly 100% with mono off, Process is a no-op.
func (m *SoftMixer) Process(buf []byte, size int, params pcm.SoundParams) {
	if !m.Active {
		return
	}

	gain := m.effectiveGain()
	doGain := gain != 100
	doMono := m.Mono && params.Channels >= 2

	if !doGain && !doMono {
		return
	}

	buf = buf[:size]
	typ := params.Format.Type
	width := typ.Width()
	if width == 0 {
		return
	}

	endian := params.Format.Endian.Resolve()
	swapped := endian != pcm.HostEndian() && width > 1 && typ != pcm.Float
	if swapped {
		swapEndianness(buf, width)
	}

	if doGain {
		applyGain(buf, typ, gain)
	}
	if doMono {
		mixMono(buf, typ, params.Channels)
	}

	if swapped {
		swapEndianness(buf, width)
	}
}

func swapEndianness(buf []byte, width int) {
	for i := 0; i+width <= len(buf); i += width {
		for a, b := i, i+width-1; a < b; a, b = a+1, b-1 {
			buf[a], buf[b] = buf[b], buf[a]
		}
	}
}

func applyGain(buf []byte, typ pcm.SampleType, gain int) {
	switch typ {
	case pcm.U8:
		for i := range buf {
			tmp := int16(buf[i])
			tmp -= 255 >> 1
			tmp = int16((int32(tmp) * int32(gain)) / 100)
			tmp += 255 >> 1
			buf[i] = byte(clampInt(int(tmp), 0, 255))
		}
	case pcm.S8:
		for i := range buf {
			tmp := int16(int8(buf[i]))
			tmp = int16((int32(tmp) * int32(gain)) / 100)
			buf[i] = byte(int8(clampInt(int(tmp), -128, 127)))
		}
	case pcm.U16:
		for i := 0; i+2 <= len(buf); i += 2 {
			v := binary.NativeEndian.Uint16(buf[i:])
			tmp := int32(v)
			tmp -= 65535 >> 1
			tmp = (tmp * int32(gain)) / 100
			tmp += 65535 >> 1
			binary.NativeEndian.PutUint16(buf[i:], uint16(clampInt(int(tmp), 0, 65535)))
		}
	case pcm.S16:
		for i := 0; i+2 <= len(buf); i += 2 {
			v := int16(binary.NativeEndian.Uint16(buf[i:]))
			tmp := int32(v)
			tmp = (tmp * int32(gain)) / 100
			binary.NativeEndian.PutUint16(buf[i:], uint16(int16(clampInt(int(tmp), -32768, 32767))))
		}
	case pcm.U32:
		for i := 0; i+4 <= len(buf); i += 4 {
			v := binary.NativeEndian.Uint32(buf[i:])
			tmp := int64(v)
			tmp -= 4294967295 >> 1
			tmp = (tmp * int64(gain)) / 100
			tmp += 4294967295 >> 1
			binary.NativeEndian.PutUint32(buf[i:], uint32(clampInt64(tmp, 0, 4294967295)))
		}
	case pcm.S32:
		for i := 0; i+4 <= len(buf); i += 4 {
			v := int32(binary.NativeEndian.Uint32(buf[i:]))
			tmp := int64(v)
			tmp = (tmp * int64(gain)) / 100
			binary.NativeEndian.PutUint32(buf[i:], uint32(int32(clampInt64(tmp, -2147483648, 2147483647))))
		}
	case pcm.Float:
		gf := float32(gain) / 100
		for i := 0; i+4 <= len(buf); i += 4 {
			bits := binary.NativeEndian.Uint32(buf[i:])
			v := float32FromBits(bits) * gf
			if v > 1.0 {
				v = 1.0
			} else if v < -1.0 {
				v = -1.0
			}
			binary.NativeEndian.PutUint32(buf[i:], float32Bits(v))
		}
	}
}

func mixMono(buf []byte, typ pcm.SampleType, channels int) {
	switch typ {
	case pcm.U8:
		frameBytes := channels
		for i := 0; i+frameBytes <= len(buf); i += frameBytes {
			var sum int16
			for c := 0; c < channels; c++ {
				sum += int16(buf[i+c])
			}
			mono := sum / int16(channels)
			if mono > 255 {
				mono = 255
			}
			for c := 0; c < channels; c++ {
				buf[i+c] = byte(mono)
			}
		}
	case pcm.S8:
		frameBytes := channels
		for i := 0; i+frameBytes <= len(buf); i += frameBytes {
			var sum int16
			for c := 0; c < channels; c++ {
				sum += int16(int8(buf[i+c]))
			}
			mono := sum / int16(channels)
			mono = int16(clampInt(int(mono), -128, 127))
			for c := 0; c < channels; c++ {
				buf[i+c] = byte(int8(mono))
			}
		}
	case pcm.U16:
		frameBytes := channels * 2
		for i := 0; i+frameBytes <= len(buf); i += frameBytes {
			var sum int32
			for c := 0; c < channels; c++ {
				sum += int32(binary.NativeEndian.Uint16(buf[i+c*2:]))
			}
			mono := sum / int32(channels)
			if mono > 65535 {
				mono = 65535
			}
			v := uint16(mono)
			for c := 0; c < channels; c++ {
				binary.NativeEndian.PutUint16(buf[i+c*2:], v)
			}
		}
	case pcm.S16:
		frameBytes := channels * 2
		for i := 0; i+frameBytes <= len(buf); i += frameBytes {
			var sum int32
			for c := 0; c < channels; c++ {
				sum += int32(int16(binary.NativeEndian.Uint16(buf[i+c*2:])))
			}
			mono := sum / int32(channels)
			mono = int32(clampInt(int(mono), -32768, 32767))
			v := uint16(int16(mono))
			for c := 0; c < channels; c++ {
				binary.NativeEndian.PutUint16(buf[i+c*2:], v)
			}
		}
	case pcm.U32:
		frameBytes := channels * 4
		for i := 0; i+frameBytes <= len(buf); i += frameBytes {
			var sum int64
			for c := 0; c < channels; c++ {
				sum += int64(binary.NativeEndian.Uint32(buf[i+c*4:]))
			}
			mono := sum / int64(channels)
			mono = clampInt64(mono, 0, 4294967295)
			v := uint32(mono)
			for c := 0; c < channels; c++ {
				binary.NativeEndian.PutUint32(buf[i+c*4:], v)
			}
		}
	case pcm.S32:
		frameBytes := channels * 4
		for i := 0; i+frameBytes <= len(buf); i += frameBytes {
			var sum int64
			for c := 0; c < channels; c++ {
				sum += int64(int32(binary.NativeEndian.Uint32(buf[i+c*4:])))
			}
			mono := sum / int64(channels)
			mono = clampInt64(mono, -2147483648, 2147483647)
			v := uint32(int32(mono))
			for c := 0; c < channels; c++ {
				binary.NativeEndian.PutUint32(buf[i+c*4:], v)
			}
		}
	case pcm.Float:
		frameBytes := channels * 4
		for i := 0; i+frameBytes <= len(buf); i += frameBytes {
			var sum float32
			for c := 0; c < channels; c++ {
				sum += float32FromBits(binary.NativeEndian.Uint32(buf[i+c*4:]))
			}
			mono := sum / float32(channels)
			if mono > 1.0 {
				mono = 1.0
			} else if mono < -1.0 {
				mono = -1.0
			}
			bits := float32Bits(mono)
			for c := 0; c < channels; c++ {
				binary.NativeEndian.PutUint32(buf[i+c*4:], bits)
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
