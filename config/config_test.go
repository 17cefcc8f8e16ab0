// SPDX-License-Identifier: EPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/mocaudio/resample"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	opts, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts != Default() {
		t.Errorf("got %+v, want defaults %+v", opts, Default())
	}
}

func TestLoadOverlaysValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	content := "OutputBuffer: 1024\nPrebuffering: 256\nResampleMethod: SincFastest\nUseRealtimePriority: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.OutputBufferKiB != 1024 {
		t.Errorf("OutputBufferKiB = %d, want 1024", opts.OutputBufferKiB)
	}
	if opts.PrebufferingKiB != 256 {
		t.Errorf("PrebufferingKiB = %d, want 256", opts.PrebufferingKiB)
	}
	if opts.ResampleMethod != resample.SincFastest {
		t.Errorf("ResampleMethod = %v, want SincFastest", opts.ResampleMethod)
	}
	if !opts.UseRealtimePriority {
		t.Error("UseRealtimePriority = false, want true")
	}
}

func TestLoadClampsOutputBufferMinimum(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	if err := os.WriteFile(path, []byte("OutputBuffer: 16\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.OutputBufferKiB != minOutputBufferKiB {
		t.Errorf("OutputBufferKiB = %d, want clamped to %d", opts.OutputBufferKiB, minOutputBufferKiB)
	}
}

func TestLoadClampsPrebufferingToOutputBuffer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	if err := os.WriteFile(path, []byte("OutputBuffer: 256\nPrebuffering: 4096\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.PrebufferingKiB != opts.OutputBufferKiB {
		t.Errorf("PrebufferingKiB = %d, want clamped to %d", opts.PrebufferingKiB, opts.OutputBufferKiB)
	}
}

func TestLoadSkipsUnknownAndMalformedLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	content := "# a comment\nUnknownKey: foo\nnot a valid line\nOutputBuffer: 2048\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.OutputBufferKiB != 2048 {
		t.Errorf("OutputBufferKiB = %d, want 2048", opts.OutputBufferKiB)
	}
}
