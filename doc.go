// SPDX-License-Identifier: EPL-2.0

// Package mocaudio implements the audio playback pipeline of a
// console music player: decoder output flows through an
// AudioConverter, a software mixer, a bounded output buffer, and a
// device adapter, the way MOC's out_buf/softmixer/audio_conversion
// trio does, rewritten here as a small set of composable Go packages.
//
// # Pipeline
//
// A decoder (package formats/wav, formats/mp3, formats/vorbis,
// formats/aiff) produces an audio.Source of interleaved float32
// samples. From there:
//
//	convert.AudioConverter   // rate/format/channel conversion (pcm.Float intermediate)
//	softmix.SoftMixer        // software gain, clipping, mono downmix
//	outbuf.OutputBuffer      // bounded FIFO + dedicated worker goroutine
//	device.Device            // the interface the worker drives (Mock, Oto)
//
// See cmd/mocaudio for a complete wiring of this pipeline against a
// real or mock device.
//
// # Supported Formats
//
// The package supports decoding the following audio formats:
//   - WAV (PCM 16-bit) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF (PCM 16-bit) via formats/aiff
//
// # Quick Start
//
// For simple one-shot mono/16-bit extraction, ResampleToMono16 wraps
// the converter in a single call:
//
//	decoder := wav.Decoder{}
//	file, _ := os.Open("audio.wav")
//	src, _ := decoder.Decode(file)
//
//	samples, rate, err := mocaudio.ResampleToMono16(src, 8000, 4096)
//	// samples is now []int16 at 8kHz mono
//
// # Building a playback pipeline
//
// For full playback (and the concurrency, pause/stop/reset semantics
// a player needs), build the pipeline stages directly:
//
//	conv, _ := convert.New(fromParams, toParams, resample.SincMediumQuality)
//	mixer := softmix.New()
//	dev := device.NewMock(pcm.Capabilities{})
//	ob := outbuf.New(outputBufferBytes, dev, toParams, logger)
//
//	buf, _ := conv.Convert(decodedFloatBytes)
//	mixer.Process(buf, len(buf), toParams)
//	ob.Put(buf)
//
// # Format Decoders
//
// Each format has its own decoder, all returning an audio.Source:
//
//	wavDecoder := wav.Decoder{}
//	src, _ := wavDecoder.Decode(reader)
//
//	mp3Decoder := mp3.Decoder{}
//	src, _ := mp3Decoder.Decode(reader)
//
//	vorbisDecoder := vorbis.Decoder{}
//	src, _ := vorbisDecoder.Decode(reader)
//
//	aiffDecoder := aiff.Decoder{}
//	src, _ := aiffDecoder.Decode(reader)
//
// # Writing WAV Files
//
// The package can write PCM WAV files:
//
//	samples := []int16{100, -100, 200, -200}
//	file, _ := os.Create("output.wav")
//	wav.WriteWAV16(file, 8000, samples)
//
// See the individual subpackages for more detailed documentation.
package mocaudio
