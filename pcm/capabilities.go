// SPDX-License-Identifier: EPL-2.0

package pcm

// FormatBit is a single bit position in a Capabilities bitset,
// addressing one (SampleType, Endianness) pair. NativeEndian is not a
// bit of its own; it resolves to the host's LE/BE bit at lookup time.
type FormatBit uint

const numSampleTypes = int(Float) + 1

func formatBit(t SampleType, e Endianness) FormatBit {
	e = e.Resolve()
	idx := int(t)
	if e == BigEndian {
		idx += numSampleTypes
	}
	return FormatBit(idx)
}

// Capabilities describes what sample formats and channel counts a
// device (or a decoder's expectations) supports, mirroring the
// caps.formats bitset and min/max_channels of spec §6.
type Capabilities struct {
	Formats     uint64
	MinChannels int
	MaxChannels int
}

// NewCapabilities returns an empty Capabilities with the given channel
// range.
func NewCapabilities(minChannels, maxChannels int) Capabilities {
	return Capabilities{MinChannels: minChannels, MaxChannels: maxChannels}
}

// Add sets the bit for (t, e) in the bitset. e may be NativeEndian.
func (c *Capabilities) Add(t SampleType, e Endianness) {
	c.Formats |= 1 << formatBit(t, e)
}

// Supports reports whether format f is present in the bitset.
func (c Capabilities) Supports(f SampleFormat) bool {
	return c.Formats&(1<<formatBit(f.Type, f.Endian)) != 0
}

// SupportsChannels reports whether ch falls within [MinChannels, MaxChannels].
func (c Capabilities) SupportsChannels(ch int) bool {
	return ch >= c.MinChannels && ch <= c.MaxChannels
}

// Intersect returns the capability intersection of c and o: the
// bitwise AND of their format bitsets and the narrower channel range.
func (c Capabilities) Intersect(o Capabilities) Capabilities {
	min := c.MinChannels
	if o.MinChannels > min {
		min = o.MinChannels
	}
	max := c.MaxChannels
	if o.MaxChannels < max {
		max = o.MaxChannels
	}
	if max < min {
		max = min - 1 // empty range, signals no common channel count
	}
	return Capabilities{
		Formats:     c.Formats & o.Formats,
		MinChannels: min,
		MaxChannels: max,
	}
}
