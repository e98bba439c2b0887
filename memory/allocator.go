// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memory provides allocator-controlled float64 storage and the
// managed dense buffers built on top of it.
//
// Buffers never outlive their allocator: a slice returned by Allocate stays
// valid until it is handed back through Deallocate (or, for an Arena, until
// Reset). Two allocators are the same allocator iff they compare equal as
// interface values.
package memory

import (
	"sync/atomic"
)

// Allocator provides zeroed float64 storage.
type Allocator interface {
	// Allocate returns n zeroed elements with len == cap == n.
	// A zero request returns nil.
	Allocate(n int) []float64
	// Deallocate hands back a slice previously returned by Allocate.
	Deallocate(buf []float64)
}

// Stats summarises the activity of an allocator. Sizes are in elements.
type Stats struct {
	Allocations   uint64
	Deallocations uint64
	InUse         int
	Reserved      int
}

// Reporter is implemented by allocators that keep Stats.
type Reporter interface {
	Stats() Stats
}

// Heap is the garbage-collected allocator. It is safe for concurrent use.
type Heap struct {
	allocs, deallocs atomic.Uint64
	inUse            atomic.Int64
}

var defaultHeap = new(Heap)

// Default returns the process-wide heap allocator.
func Default() Allocator { return defaultHeap }

// OrDefault substitutes Default for a nil allocator.
func OrDefault(a Allocator) Allocator {
	if a == nil {
		return defaultHeap
	}
	return a
}

// Allocate implements Allocator.
func (h *Heap) Allocate(n int) []float64 {
	if n < 0 {
		panic("negative allocation size")
	}
	if n == 0 {
		return nil
	}
	h.allocs.Add(1)
	h.inUse.Add(int64(n))
	return make([]float64, n)
}

// Deallocate implements Allocator.
func (h *Heap) Deallocate(buf []float64) {
	if cap(buf) == 0 {
		return
	}
	h.deallocs.Add(1)
	h.inUse.Add(-int64(cap(buf)))
}

// Stats implements Reporter. The heap reserves exactly what is in use.
func (h *Heap) Stats() Stats {
	n := int(h.inUse.Load())
	return Stats{
		Allocations:   h.allocs.Load(),
		Deallocations: h.deallocs.Load(),
		InUse:         n,
		Reserved:      n,
	}
}
