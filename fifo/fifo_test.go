// SPDX-License-Identifier: EPL-2.0

package fifo

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestFIFOWrap(t *testing.T) {
	t.Parallel()

	f := New(8)

	if n := f.Put([]byte("ABCDE")); n != 5 {
		t.Fatalf("Put(ABCDE) = %d, want 5", n)
	}

	out := make([]byte, 3)
	if n := f.Get(out); n != 3 || string(out) != "ABC" {
		t.Fatalf("Get(3) = %d %q, want 3 ABC", n, out)
	}

	if n := f.Put([]byte("FGHIJ")); n != 5 {
		t.Fatalf("Put(FGHIJ) = %d, want 5", n)
	}

	if got := f.Fill(); got != 7 {
		t.Fatalf("Fill() = %d, want 7", got)
	}

	out = make([]byte, 7)
	if n := f.Get(out); n != 7 || string(out) != "DEFGHIJ" {
		t.Fatalf("Get(7) = %d %q, want 7 DEFGHIJ", n, out)
	}
}

func TestFIFOFillSpaceInvariant(t *testing.T) {
	t.Parallel()

	const capacity = 16
	f := New(capacity)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		if f.Fill()+f.Space() != capacity {
			t.Fatalf("fill+space = %d, want %d", f.Fill()+f.Space(), capacity)
		}

		if rng.Intn(2) == 0 {
			chunk := make([]byte, rng.Intn(10)+1)
			f.Put(chunk)
		} else {
			out := make([]byte, rng.Intn(10)+1)
			f.Get(out)
		}
	}
}

func TestFIFOOrderPreserved(t *testing.T) {
	t.Parallel()

	f := New(32)
	var written, read []byte
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		if rng.Intn(3) != 0 || f.Fill() == 0 {
			chunk := make([]byte, rng.Intn(5)+1)
			rng.Read(chunk)
			n := f.Put(chunk)
			written = append(written, chunk[:n]...)
		} else {
			out := make([]byte, rng.Intn(5)+1)
			n := f.Get(out)
			read = append(read, out[:n]...)
		}
	}
	out := make([]byte, f.Fill())
	f.Get(out)
	read = append(read, out...)

	if !bytes.Equal(written, read) {
		t.Fatalf("byte order not preserved: wrote %v, read %v", written, read)
	}
}

func TestFIFOPeekThenGetIdentical(t *testing.T) {
	t.Parallel()

	f := New(16)
	f.Put([]byte("hello world"))

	peeked := make([]byte, 5)
	if n := f.Peek(peeked); n != 5 {
		t.Fatalf("Peek = %d, want 5", n)
	}

	gotten := make([]byte, 5)
	if n := f.Get(gotten); n != 5 {
		t.Fatalf("Get = %d, want 5", n)
	}

	if !bytes.Equal(peeked, gotten) {
		t.Fatalf("Peek %q != Get %q", peeked, gotten)
	}
}

func TestFIFOShortGetOnUnderfill(t *testing.T) {
	t.Parallel()

	f := New(8)
	f.Put([]byte("ab"))

	out := make([]byte, 8)
	if n := f.Get(out); n != 2 || string(out[:2]) != "ab" {
		t.Fatalf("Get(8) on 2-byte fill = %d %q, want 2 ab", n, out[:n])
	}
}

func TestFIFOPutNeverOverwritesUnread(t *testing.T) {
	t.Parallel()

	f := New(4)
	if n := f.Put([]byte("ABCD")); n != 4 {
		t.Fatalf("Put(ABCD) = %d, want 4", n)
	}
	if n := f.Put([]byte("XYZ")); n != 0 {
		t.Fatalf("Put on full FIFO = %d, want 0", n)
	}

	out := make([]byte, 4)
	f.Get(out)
	if string(out) != "ABCD" {
		t.Fatalf("unread bytes corrupted: got %q, want ABCD", out)
	}
}

func TestFIFOClear(t *testing.T) {
	t.Parallel()

	f := New(8)
	f.Put([]byte("ABCD"))
	f.Clear()

	if f.Fill() != 0 {
		t.Fatalf("Fill() after Clear() = %d, want 0", f.Fill())
	}
	if f.Space() != 8 {
		t.Fatalf("Space() after Clear() = %d, want 8", f.Space())
	}
	if n := f.Put([]byte("WXYZ1234")); n != 8 {
		t.Fatalf("Put after Clear() = %d, want 8", n)
	}
}
