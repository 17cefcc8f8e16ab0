// SPDX-License-Identifier: EPL-2.0

// Package convert implements the audio converter stage of the playback
// pipeline: a stateful transform from one pcm.SoundParams to another,
// encapsulating resampler state across calls. It is grounded on
// _examples/original_source/audio_conversion.c (the fixed<->float
// rules and the S32 24-bit-with-headroom convention) and on the
// teacher's audio/resampler.go (carried over into package resample).
package convert

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ik5/mocaudio/pcm"
	"github.com/ik5/mocaudio/resample"
)

// AudioConverter transforms PCM buffers from one SoundParams to
// another. Construct one per (from, to) pair via New; it is re-created
// whenever the source params change, per spec §3's lifecycle note.
type AudioConverter struct {
	from, to  pcm.SoundParams
	resampler *resample.Resampler
}

// New constructs an AudioConverter from from to to. At least one of
// format, channels, or rate must differ; otherwise the caller must
// bypass the converter entirely (ErrNoConversionNeeded). Channel
// conversion supports only 1 -> 2 (mono duplicated to stereo); any
// other channel mismatch is a hard error.
func New(from, to pcm.SoundParams, method resample.Method) (*AudioConverter, error) {
	if from.Equal(to) {
		return nil, ErrNoConversionNeeded
	}
	if from.Channels != to.Channels {
		if !(from.Channels == 1 && to.Channels == 2) {
			return nil, fmt.Errorf("%w: %d -> %d channels", ErrUnsupportedChannelConversion, from.Channels, to.Channels)
		}
	}
	if from.Format.Type.Width() == 0 || to.Format.Type.Width() == 0 {
		return nil, ErrUnknownSampleFormat
	}

	c := &AudioConverter{from: from, to: to}
	if from.Rate != to.Rate {
		// The resampler operates before channel expansion (step 4 runs
		// ahead of step 8), so it always sees from.Channels.
		c.resampler = resample.New(from.Channels, from.Rate, to.Rate, method)
	}
	return c, nil
}

// Convert runs the full 8-step pipeline of spec §4.3 on a clone of in,
// returning a freshly-allocated output buffer. in must hold a whole
// number of source frames.
func (c *AudioConverter) Convert(in []byte) ([]byte, error) {
	frameBytes := pcm.BytesPerFrame(c.from)
	if frameBytes == 0 || len(in)%frameBytes != 0 {
		return nil, ErrPartialFrame
	}

	work := append([]byte(nil), in...)
	curType := c.from.Format.Type
	curEndian := c.from.Format.Endian.Resolve()

	// Step 1: endianness normalize.
	if curEndian != pcm.HostEndian() && curType.Width() > 1 && curType != pcm.Float {
		swapEndianness(work, curType.Width())
		curEndian = pcm.HostEndian()
	}

	targetType := c.to.Format.Type

	// Step 2: fast path — 32-bit int source, 16-bit int target of the
	// same signedness, matching rates.
	if is32(curType) && is16(targetType) && sameSignedness(curType, targetType) && c.from.Rate == c.to.Rate {
		work = fastPathShift32To16(work, curType)
		curType = targetType
	} else {
		var floatBuf []float32
		isFloat := curType == pcm.Float

		needFloat := c.from.Rate != c.to.Rate ||
			targetType == pcm.Float ||
			(curType.Width() != targetType.Width() && !isFloat)

		if isFloat {
			floatBuf = bytesToFloat32(work)
		} else if needFloat {
			var err error
			floatBuf, err = fixedToFloat(work, curType)
			if err != nil {
				return nil, err
			}
			curType = pcm.Float
			isFloat = true
		}

		// Step 4: resampling.
		if c.from.Rate != c.to.Rate {
			out, err := c.resampler.Push(floatBuf)
			if err != nil {
				return nil, fmt.Errorf("convert: resampling: %w", err)
			}
			floatBuf = out
		}

		if isFloat {
			if targetType == pcm.Float {
				work = float32ToBytes(floatBuf)
				curType = pcm.Float
			} else {
				// Step 6: float -> fixed.
				work = floatToFixed(floatBuf, targetType)
				curType = targetType
			}
		} else if curType != targetType && curType.Width() == targetType.Width() && !sameSignedness(curType, targetType) {
			// Step 5: sign change only (same width, differs only by sign).
			signChange(work, curType.Width())
			curType = targetType
		}
	}

	// Step 7: endianness denormalize.
	targetEndian := c.to.Format.Endian.Resolve()
	if targetEndian != pcm.HostEndian() && curType.Width() > 1 && curType != pcm.Float {
		swapEndianness(work, curType.Width())
	}

	// Step 8: channel expansion, mono -> stereo.
	if c.from.Channels == 1 && c.to.Channels == 2 {
		work = duplicateChannel(work, curType.Width())
	}

	return work, nil
}

func is32(t pcm.SampleType) bool { return t == pcm.U32 || t == pcm.S32 }
func is16(t pcm.SampleType) bool { return t == pcm.U16 || t == pcm.S16 }

func sameSignedness(a, b pcm.SampleType) bool { return a.Signed() == b.Signed() }

func swapEndianness(buf []byte, width int) {
	for i := 0; i+width <= len(buf); i += width {
		for a, b := i, i+width-1; a < b; a, b = a+1, b-1 {
			buf[a], buf[b] = buf[b], buf[a]
		}
	}
}

// fastPathShift32To16 right-shifts each 32-bit sample by 16 bits,
// producing the corresponding 16-bit sample, per spec §4.3 step 2.
func fastPathShift32To16(buf []byte, srcType pcm.SampleType) []byte {
	n := len(buf) / 4
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		raw := binary.NativeEndian.Uint32(buf[i*4:])
		var v16 uint16
		if srcType.Signed() {
			v16 = uint16(int32(raw) >> 16)
		} else {
			v16 = uint16(raw >> 16)
		}
		binary.NativeEndian.PutUint16(out[i*2:], v16)
	}
	return out
}

// signChange flips the sign bit (position 7/15/31) of every sample of
// the given width, converting signed<->unsigned in place without
// touching magnitude bits — a bit-exact, invertible transform.
func signChange(buf []byte, width int) {
	switch width {
	case 1:
		for i := range buf {
			buf[i] ^= 0x80
		}
	case 2:
		for i := 0; i+2 <= len(buf); i += 2 {
			v := binary.NativeEndian.Uint16(buf[i:])
			binary.NativeEndian.PutUint16(buf[i:], v^0x8000)
		}
	case 4:
		for i := 0; i+4 <= len(buf); i += 4 {
			v := binary.NativeEndian.Uint32(buf[i:])
			binary.NativeEndian.PutUint32(buf[i:], v^0x80000000)
		}
	}
}

func duplicateChannel(buf []byte, width int) []byte {
	if width <= 0 {
		return buf
	}
	n := len(buf) / width
	out := make([]byte, len(buf)*2)
	for i := 0; i < n; i++ {
		copy(out[i*2*width:], buf[i*width:(i+1)*width])
		copy(out[(i*2+1)*width:], buf[i*width:(i+1)*width])
	}
	return out
}

func bytesToFloat32(buf []byte) []float32 {
	n := len(buf) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.NativeEndian.Uint32(buf[i*4:]))
	}
	return out
}

func float32ToBytes(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.NativeEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// fixedToFloat converts a native-endian fixed-point buffer to float32
// samples in [-1.0, 1.0), dividing by SampleMax+1 as spec §4.3 step 3
// requires. Unsigned types are first centered on their midpoint (the
// same convention softmix uses for unsigned gain).
func fixedToFloat(buf []byte, typ pcm.SampleType) ([]float32, error) {
	width := typ.Width()
	if width == 0 {
		return nil, ErrUnknownSampleFormat
	}
	n := len(buf) / width
	out := make([]float32, n)

	switch typ {
	case pcm.U8:
		for i := 0; i < n; i++ {
			centered := int(buf[i]) - 128
			out[i] = float32(centered) / 128
		}
	case pcm.S8:
		for i := 0; i < n; i++ {
			out[i] = float32(int8(buf[i])) / (float32(pcm.SampleMax(pcm.S8)) + 1)
		}
	case pcm.U16:
		for i := 0; i < n; i++ {
			v := binary.NativeEndian.Uint16(buf[i*2:])
			centered := int(v) - 32768
			out[i] = float32(centered) / 32768
		}
	case pcm.S16:
		for i := 0; i < n; i++ {
			v := int16(binary.NativeEndian.Uint16(buf[i*2:]))
			out[i] = float32(v) / (float32(pcm.SampleMax(pcm.S16)) + 1)
		}
	case pcm.U32:
		for i := 0; i < n; i++ {
			v := binary.NativeEndian.Uint32(buf[i*4:])
			centered := int64(v) - 2147483648
			out[i] = float32(float64(centered) / 2147483648)
		}
	case pcm.S32:
		for i := 0; i < n; i++ {
			raw := int32(binary.NativeEndian.Uint32(buf[i*4:]))
			// S32 carries a 24-bit-valued sample left-shifted by 8 at
			// store time; recover it with an arithmetic right shift.
			v := raw >> 8
			out[i] = float32(float64(v) / (pcm.SampleMax(pcm.S32) + 1))
		}
	default:
		return nil, ErrUnknownSampleFormat
	}
	return out, nil
}

// floatToFixed converts float32 samples in [-1.0, 1.0) to a
// native-endian fixed-point buffer of the given type, per spec §4.3
// step 6: scale to the target's range (U8 by 128 around its midpoint,
// other types by their positive max), clamp, and write.
func floatToFixed(data []float32, typ pcm.SampleType) []byte {
	width := typ.Width()
	out := make([]byte, len(data)*width)

	switch typ {
	case pcm.U8:
		for i, v := range data {
			centered := math.Round(float64(v) * 128)
			val := clampF64(centered, -128, 127) + 128
			out[i] = byte(val)
		}
	case pcm.S8:
		for i, v := range data {
			val := clampF64(math.Round(float64(v)*pcm.SampleMax(pcm.S8)), -128, 127)
			out[i] = byte(int8(val))
		}
	case pcm.U16:
		for i, v := range data {
			centered := math.Round(float64(v) * 32768)
			val := clampF64(centered, -32768, 32767) + 32768
			binary.NativeEndian.PutUint16(out[i*2:], uint16(val))
		}
	case pcm.S16:
		for i, v := range data {
			val := clampF64(math.Round(float64(v)*pcm.SampleMax(pcm.S16)), -32768, 32767)
			binary.NativeEndian.PutUint16(out[i*2:], uint16(int16(val)))
		}
	case pcm.U32:
		for i, v := range data {
			centered := math.Round(float64(v) * 2147483648)
			val := clampF64(centered, -2147483648, 2147483647) + 2147483648
			binary.NativeEndian.PutUint32(out[i*4:], uint32(val))
		}
	case pcm.S32:
		for i, v := range data {
			val := clampF64(math.Round(float64(v)*pcm.SampleMax(pcm.S32)), -8388608, 8388607)
			// Store with the 8-bit left shift, carrying the 24-bit value
			// sign-extended into the full 32 bits.
			binary.NativeEndian.PutUint32(out[i*4:], uint32(int32(val)<<8))
		}
	}
	return out
}

func clampF64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
