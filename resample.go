// SPDX-License-Identifier: EPL-2.0

package mocaudio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/mocaudio/audio"
	"github.com/ik5/mocaudio/convert"
	"github.com/ik5/mocaudio/pcm"
	"github.com/ik5/mocaudio/resample"
)

// ResampleToMono16 is a high-level convenience function that downmixes
// audio to mono and resamples it to a target sample rate, returning
// the result as 16-bit PCM. Downmixing is done up front by
// audio.MonoMixer (AudioConverter itself only expands mono to stereo,
// never the reverse); the mono stream is then handed to an
// AudioConverter for the format/rate change, reusing the same
// pipeline stage the device-driving path uses.
//
// Parameters:
//   - src: the audio source to process (implements audio.Source).
//   - targetRate: target sample rate in Hz (e.g. 8000, 16000, 44100).
//   - bufferSize: frames read per ReadSamples call; larger values are
//     more efficient but use more memory.
//
// Returns the collected samples, the output rate (== targetRate), and
// any error other than io.EOF encountered while decoding.
func ResampleToMono16(src audio.Source, targetRate int, bufferSize int) ([]int16, int, error) {
	mono := audio.NewMonoMixer(src)

	monoFrom := pcm.SoundParams{
		Format:   pcm.SampleFormat{Type: pcm.Float, Endian: pcm.NativeEndian},
		Channels: 1,
		Rate:     mono.SampleRate(),
	}
	to := pcm.SoundParams{
		Format:   pcm.SampleFormat{Type: pcm.S16, Endian: pcm.NativeEndian},
		Channels: 1,
		Rate:     targetRate,
	}

	conv, err := convert.New(monoFrom, to, resample.SincMediumQuality)
	if err != nil {
		return nil, targetRate, fmt.Errorf("building converter: %w", err)
	}

	estimatedFrames := targetRate * 2 // assume ~2 seconds initially
	pcm16 := make([]int16, 0, estimatedFrames)
	frameBuf := make([]float32, bufferSize)

	for {
		n, readErr := mono.ReadSamples(frameBuf)
		if n > 0 {
			out, err := conv.Convert(floatSamplesToNativeBytes(frameBuf[:n]))
			if err != nil {
				return nil, targetRate, fmt.Errorf("converting chunk: %w", err)
			}

			pcm16 = append(pcm16, bytesToInt16(out)...)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, targetRate, fmt.Errorf("%w", readErr)
		}
	}

	return pcm16, targetRate, nil
}

func floatSamplesToNativeBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.NativeEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// bytesToInt16 converts S16 native-endian byte output to []int16.
func bytesToInt16(buf []byte) []int16 {
	out := make([]int16, len(buf)/2)
	for i := range out {
		out[i] = int16(binary.NativeEndian.Uint16(buf[i*2:]))
	}
	return out
}
