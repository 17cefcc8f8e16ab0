// SPDX-License-Identifier: EPL-2.0

package device

import (
	"sync"

	"github.com/ik5/mocaudio/pcm"
)

// Mock is an in-memory Device recorder for tests: every byte accepted
// by Play is appended to Written, with no simulated hardware latency.
// Grounded on the teacher's internal/audiotest.MockSource, adapted
// here from a read-only source into a write-only sink.
type Mock struct {
	mu sync.Mutex

	caps pcm.Capabilities

	opened     bool
	params     pcm.SoundParams
	rate       int
	mixer      int
	fill       int
	failNext   bool
	failOpen   bool
	maxAccept  int // 0 means accept whole buffer
	Written    []byte
	OpenCount  int
	CloseCount int
	ResetCount int
}

// NewMock returns a Mock advertising caps. If caps is the zero value,
// a permissive default covering every SampleType/Endianness and
// 1-2 channels is used.
func NewMock(caps pcm.Capabilities) *Mock {
	if caps.MaxChannels == 0 {
		caps = pcm.NewCapabilities(1, 2)
		for t := pcm.U8; t <= pcm.Float; t++ {
			caps.Add(t, pcm.LittleEndian)
			caps.Add(t, pcm.BigEndian)
		}
	}
	return &Mock{caps: caps, mixer: 100}
}

func (m *Mock) Init() pcm.Capabilities { return m.caps }

func (m *Mock) Open(params pcm.SoundParams) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.OpenCount++
	if m.failOpen {
		return false
	}
	if !m.caps.Supports(params.Format) || !m.caps.SupportsChannels(params.Channels) {
		return false
	}
	m.opened = true
	m.params = params
	if m.rate == 0 {
		m.rate = params.Rate
	}
	return true
}

func (m *Mock) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCount++
	m.opened = false
}

func (m *Mock) Play(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return 0, ErrMockPlayFailure
	}

	n := len(buf)
	if m.maxAccept > 0 && n > m.maxAccept {
		n = m.maxAccept
	}
	m.Written = append(m.Written, buf[:n]...)
	m.fill += n
	return n, nil
}

func (m *Mock) Reset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCount++
	m.fill = 0
	return true
}

func (m *Mock) BufFill() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fill
}

func (m *Mock) GetRate() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rate == 0 {
		return 44100
	}
	return m.rate
}

func (m *Mock) ReadMixer() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mixer
}

func (m *Mock) SetMixer(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	m.mixer = level
}

// FailNextPlay makes the next single call to Play return
// ErrMockPlayFailure instead of accepting bytes, for exercising the
// worker's device-write-failure recovery path.
func (m *Mock) FailNextPlay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
}

// FailOpen makes every subsequent call to Open return false, for
// exercising the worker's reopen-retry loop.
func (m *Mock) FailOpen(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOpen = fail
}

// SetMaxAccept caps how many bytes a single Play call accepts,
// simulating a short write. 0 removes the cap.
func (m *Mock) SetMaxAccept(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxAccept = n
}
