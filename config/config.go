// SPDX-License-Identifier: EPL-2.0

// Package config loads the playback pipeline's options from a
// line-oriented key-value file, in the same style as softmix's
// persisted state: case-insensitive "Key: value" lines, unknown keys
// ignored, malformed lines logged and skipped. Grounded on
// softmix.LoadState (spec §6's "Configuration options consumed" list).
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ik5/mocaudio/resample"
)

const (
	minOutputBufferKiB = 128

	keyOutputBuffer       = "outputbuffer"
	keyPrebuffering       = "prebuffering"
	keyResampleMethod     = "resamplemethod"
	keyUseRealtimePrio    = "userealtimepriority"
	keySoftmixerSaveState = "softmixer_savestate"
	keyAllow24bitOutput   = "allow24bitoutput"
)

// Options holds the configuration values spec §6 lists as consumed by
// the pipeline.
type Options struct {
	// OutputBufferKiB is the FIFO capacity, in KiB; must be >= 128.
	OutputBufferKiB int
	// PrebufferingKiB is how much must accumulate before playback
	// starts; must be <= OutputBufferKiB.
	PrebufferingKiB int
	// ResampleMethod selects the converter's interpolation kernel.
	ResampleMethod resample.Method
	// UseRealtimePriority is read from the config file only; nothing in
	// this module acts on it, and the output buffer's worker goroutine
	// runs at normal scheduling priority.
	UseRealtimePriority bool
	// SoftmixerSaveState enables persisting the softmixer's state
	// between runs.
	SoftmixerSaveState bool
	// Allow24bitOutput gates the S32-with-headroom output path.
	Allow24bitOutput bool
}

// Default returns the built-in defaults, used when no config file is
// present or a key is absent from one.
func Default() Options {
	return Options{
		OutputBufferKiB:     512,
		PrebufferingKiB:     64,
		ResampleMethod:      resample.Linear,
		UseRealtimePriority: false,
		SoftmixerSaveState:  true,
		Allow24bitOutput:    false,
	}
}

// Load reads options from path, overlaying them onto Default(). A
// missing file yields the defaults with no error.
func Load(path string) (Options, error) {
	opts := Default()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("config file absent, using defaults", "path", path)
			return opts, nil
		}
		return opts, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			slog.Warn("config: malformed line, skipping", "line", line)
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		if err := opts.apply(key, val); err != nil {
			slog.Warn("config: skipping invalid value", "key", key, "value", val, "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return opts, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if opts.OutputBufferKiB < minOutputBufferKiB {
		slog.Warn("config: OutputBuffer below minimum, clamping", "value", opts.OutputBufferKiB, "minimum", minOutputBufferKiB)
		opts.OutputBufferKiB = minOutputBufferKiB
	}
	if opts.PrebufferingKiB > opts.OutputBufferKiB {
		slog.Warn("config: Prebuffering exceeds OutputBuffer, clamping", "prebuffering", opts.PrebufferingKiB, "output_buffer", opts.OutputBufferKiB)
		opts.PrebufferingKiB = opts.OutputBufferKiB
	}

	return opts, nil
}

func (o *Options) apply(key, val string) error {
	switch key {
	case keyOutputBuffer:
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		o.OutputBufferKiB = n
	case keyPrebuffering:
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		o.PrebufferingKiB = n
	case keyResampleMethod:
		m, err := parseMethod(val)
		if err != nil {
			return err
		}
		o.ResampleMethod = m
	case keyUseRealtimePrio:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		o.UseRealtimePriority = b
	case keySoftmixerSaveState:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		o.SoftmixerSaveState = b
	case keyAllow24bitOutput:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		o.Allow24bitOutput = b
	default:
		// unknown key, ignored
	}
	return nil
}

func parseMethod(s string) (resample.Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sincbestquality":
		return resample.SincBestQuality, nil
	case "sincmediumquality":
		return resample.SincMediumQuality, nil
	case "sincfastest":
		return resample.SincFastest, nil
	case "zeroorderhold":
		return resample.ZeroOrderHold, nil
	case "linear":
		return resample.Linear, nil
	default:
		return 0, fmt.Errorf("config: unknown ResampleMethod %q", s)
	}
}
