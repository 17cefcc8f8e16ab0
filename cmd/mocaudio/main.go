// SPDX-License-Identifier: EPL-2.0

// Command mocaudio decodes an audio file and plays it through the
// output buffer pipeline: decoder -> AudioConverter -> SoftMixer ->
// OutputBuffer -> Device. It exists to exercise the pipeline
// end-to-end and to double as a manual listening test harness.
package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/ik5/mocaudio"
	"github.com/ik5/mocaudio/audio"
	"github.com/ik5/mocaudio/config"
	"github.com/ik5/mocaudio/convert"
	"github.com/ik5/mocaudio/device"
	"github.com/ik5/mocaudio/formats/aiff"
	"github.com/ik5/mocaudio/formats/mp3"
	"github.com/ik5/mocaudio/formats/vorbis"
	"github.com/ik5/mocaudio/formats/wav"
	"github.com/ik5/mocaudio/outbuf"
	"github.com/ik5/mocaudio/pcm"
	"github.com/ik5/mocaudio/resample"
	"github.com/ik5/mocaudio/softmix"
)

const decodeChunkFrames = 4096

func main() {
	var (
		configPath   = pflag.String("config", "", "path to a config file (spec §6 options); defaults built-in if absent")
		statePath    = pflag.String("state", "", "path to a softmixer state file to load/save")
		deviceName   = pflag.String("device", "mock", "output device: mock or oto")
		deviceRate   = pflag.Int("rate", 44100, "output device sample rate in Hz")
		mixerValue   = pflag.Int("volume", 100, "softmixer value, 0-100")
		mixerAmp     = pflag.Int("amplification", 100, "softmixer amplification, 0-200")
		mixerMono    = pflag.Bool("mono", false, "downmix to mono before output")
		fastResample = pflag.Bool("fast-resample", false, "pre-resample at decode time with cheap cubic interpolation instead of letting the converter do it")
		exportPCM16  = pflag.String("export-pcm16", "", "write mono 16-bit PCM at the device rate to this path instead of playing")
	)
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mocaudio [flags] <input.{wav|mp3|ogg|aiff}>")
		os.Exit(2)
	}
	inPath := pflag.Arg(0)

	opts := config.Default()
	if *configPath != "" {
		var err error
		opts, err = config.Load(*configPath)
		if err != nil {
			logger.Error("loading config", "error", err)
			os.Exit(1)
		}
	}

	mixer := softmix.New()
	if *statePath != "" {
		loaded, err := softmix.LoadState(*statePath)
		if err != nil {
			logger.Error("loading softmixer state", "error", err)
			os.Exit(1)
		}
		mixer = loaded
	}
	mixer.Active = true
	mixer.SetValue(*mixerValue)
	mixer.SetAmp(*mixerAmp)
	mixer.Mono = *mixerMono

	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})

	ext := strings.TrimPrefix(filepath.Ext(inPath), ".")
	dec, ok := reg.Get(ext)
	if !ok {
		logger.Error("unsupported input format", "ext", ext)
		os.Exit(1)
	}

	inFile, err := os.Open(inPath)
	if err != nil {
		logger.Error("opening input", "error", err)
		os.Exit(1)
	}
	defer inFile.Close()

	src, err := dec.Decode(inFile)
	if err != nil {
		logger.Error("decoding input", "error", err)
		os.Exit(1)
	}
	defer src.Close()

	if *exportPCM16 != "" {
		samples, rate, err := mocaudio.ResampleToMono16(src, *deviceRate, decodeChunkFrames)
		if err != nil {
			logger.Error("resampling for export", "error", err)
			os.Exit(1)
		}
		if err := writePCM16(*exportPCM16, samples); err != nil {
			logger.Error("writing pcm16 export", "error", err)
			os.Exit(1)
		}
		logger.Info("exported pcm16", "path", *exportPCM16, "rate", rate, "samples", len(samples))
		return
	}

	if *fastResample && src.SampleRate() != *deviceRate {
		src = audio.NewResampler(src, *deviceRate)
	}

	targetType := pcm.S16
	if opts.Allow24bitOutput {
		targetType = pcm.S32
	}
	// --mono is applied by the softmixer, which keeps the channel count;
	// the converter only expands mono to stereo.
	targetChannels := src.Channels()
	if targetChannels == 1 && !*mixerMono {
		targetChannels = 2
	}
	outParams := pcm.SoundParams{
		Format:   pcm.SampleFormat{Type: targetType, Endian: pcm.NativeEndian},
		Channels: targetChannels,
		Rate:     *deviceRate,
	}
	inParams := pcm.SoundParams{
		Format:   pcm.SampleFormat{Type: pcm.Float, Endian: pcm.NativeEndian},
		Channels: src.Channels(),
		Rate:     src.SampleRate(),
	}

	var conv *convert.AudioConverter
	if !inParams.Equal(outParams) {
		conv, err = convert.New(inParams, outParams, opts.ResampleMethod)
		if err != nil && err != convert.ErrNoConversionNeeded {
			logger.Error("building converter", "error", err)
			os.Exit(1)
		}
	}

	var dev device.Device
	switch *deviceName {
	case "mock":
		dev = device.NewMock(pcm.Capabilities{})
	case "oto":
		dev = device.NewOto(logger)
	default:
		logger.Error("unknown device", "device", *deviceName)
		os.Exit(1)
	}

	ob := outbuf.New(opts.OutputBufferKiB*1024, dev, outParams, logger)

	if err := stream(src, conv, mixer, outParams, ob); err != nil {
		logger.Error("streaming", "error", err)
	}

	// Put only guarantees bytes reached the fifo, not that the worker
	// has drained them to the device; wait for the fifo to empty
	// before tearing the buffer down so the tail of the file isn't
	// truncated.
	for ob.Fill() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	ob.Destroy()

	if *statePath != "" && opts.SoftmixerSaveState {
		if err := mixer.SaveState(*statePath); err != nil {
			logger.Error("saving softmixer state", "error", err)
		}
	}
}

// stream pulls float32 frames from src, runs them through the
// converter and softmixer, and pushes the resulting bytes into ob
// until src is exhausted.
func stream(src audio.Source, conv *convert.AudioConverter, mixer *softmix.SoftMixer, outParams pcm.SoundParams, ob *outbuf.OutputBuffer) error {
	samples := make([]float32, decodeChunkFrames*src.Channels())

	for {
		n, readErr := src.ReadSamples(samples)
		if n > 0 {
			raw := floatSamplesToBytes(samples[:n])

			out := raw
			if conv != nil {
				var err error
				out, err = conv.Convert(raw)
				if err != nil {
					return fmt.Errorf("converting chunk: %w", err)
				}
			}

			mixer.Process(out, len(out), outParams)
			ob.Put(out)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}

func floatSamplesToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.NativeEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// writePCM16 writes samples as raw little-endian 16-bit PCM, no header.
func writePCM16(path string, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	return nil
}
