// SPDX-License-Identifier: EPL-2.0

package softmix

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Persisted softmixer state file keys (spec §6), matching the original
// SOFTMIXER_CFG_* names case-insensitively.
const (
	keyActive = "active"
	keyAmp    = "amplification"
	keyValue  = "value"
	keyMono   = "mono"
)

// LoadState reads a softmixer state file in the line-oriented
// "Key: value" format of spec §6. Unknown keys are ignored; malformed
// lines are logged and skipped. A missing file yields New()'s defaults
// and no error, matching the original's "unable to read configuration,
// keep built-in defaults" behavior.
func LoadState(path string) (*SoftMixer, error) {
	m := New()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("softmixer state file absent, using defaults", "path", path)
			return m, nil
		}
		return nil, fmt.Errorf("softmix: opening state file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			slog.Warn("softmixer: malformed state line, skipping", "line", line)
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		n, err := strconv.Atoi(val)
		if err != nil {
			slog.Warn("softmixer: malformed state value, skipping", "line", line)
			continue
		}

		switch key {
		case keyActive:
			m.Active = n != 0
		case keyAmp:
			if n >= Min && n <= Max {
				m.Amp = n
			} else {
				slog.Warn("softmixer: amplification out of range, ignoring", "value", n)
			}
		case keyValue:
			if n >= 0 && n <= 100 {
				m.SetValue(n)
			} else {
				slog.Warn("softmixer: value out of range, ignoring", "value", n)
			}
		case keyMono:
			m.Mono = n != 0
		default:
			// unknown key, ignored per spec
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("softmix: reading state file: %w", err)
	}

	return m, nil
}

// SaveState rewrites the softmixer state file at path atomically (via
// a temp file plus rename), in the same four-key format LoadState
// reads.
func (m *SoftMixer) SaveState(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".softmixer-*.tmp")
	if err != nil {
		return fmt.Errorf("softmix: creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	active := 0
	if m.Active {
		active = 1
	}
	mono := 0
	if m.Mono {
		mono = 1
	}

	_, werr := fmt.Fprintf(tmp,
		"Active: %d\nAmplification: %d\nValue: %d\nMono: %d\n",
		active, m.Amp, m.Value, mono)
	if werr != nil {
		tmp.Close()
		return fmt.Errorf("softmix: writing state file: %w", werr)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("softmix: closing temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("softmix: renaming state file into place: %w", err)
	}
	return nil
}
