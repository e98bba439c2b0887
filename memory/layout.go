// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

// Layout carves one allocation into consecutive segments whose offsets are
// multiples of the alignment. Reserve every segment first, allocate Size()
// elements, then slice with Segment.
type Layout struct {
	align int
	size  int
}

// NewLayout returns an empty layout. align must be a power of two;
// values below one select unaligned packing.
func NewLayout(align int) *Layout {
	if align < 1 {
		align = 1
	}
	if align&(align-1) != 0 {
		panic("alignment must be a power of two")
	}
	return &Layout{align: align}
}

// Reserve appends a segment of n elements and returns its offset.
// Empty segments do not consume padding.
func (l *Layout) Reserve(n int) (off int) {
	if n < 0 {
		panic("negative segment size")
	}
	if n == 0 {
		return l.size
	}
	off = alignUp(l.size, l.align)
	l.size = off + n
	return
}

// Size returns the number of elements needed to hold every segment.
func (l *Layout) Size() int { return l.size }

// Segment returns buf[off:off+n] with its capacity clipped, so appends never
// spill into the neighbouring segment.
func Segment(buf []float64, off, n int) []float64 {
	if n == 0 {
		return nil
	}
	return buf[off : off+n : off+n]
}
