// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

const (
	defaultChunkSize = 4096 // elements
	defaultAlign     = 8    // elements, 64 bytes
)

var (
	ErrChunkSize = errors.New("chunk size must not less than 0")
	ErrAlign     = errors.New("alignment must be a power of two")
)

// ArenaSpec specifies a monotonic arena.
type ArenaSpec struct {
	// Minimum number of elements requested from the heap per chunk.
	// Zero selects 4096.
	ChunkSize int
	// Offset alignment in elements, relative to the chunk base.
	// Zero selects 8 (64 bytes).
	Align int
	// Logger receives chunk growth and reset events at debug level.
	Logger *zap.Logger
}

// New creates the arena described by the spec.
func (s *ArenaSpec) New() (arena *Arena, err error) {

	chunk, align, logger := s.ChunkSize, s.Align, s.Logger

	switch {
	case chunk < 0:
		err = ErrChunkSize
	case align < 0 || align&(align-1) != 0:
		err = ErrAlign
	}

	if err != nil {
		return
	}

	if chunk == 0 {
		chunk = defaultChunkSize
	}
	if align == 0 {
		align = defaultAlign
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	arena = &Arena{
		chunkSize: chunk,
		align:     align,
		logger:    logger,
	}
	return
}

// Arena is a monotonic allocator: Allocate bumps an offset inside the current
// chunk and Deallocate only updates the accounting. Storage is returned to the
// heap all at once by Reset.
//
// All buffers of one logical problem are meant to come from one arena so that
// building, copying and dropping the problem costs a handful of chunk
// allocations.
type Arena struct {
	mu        sync.Mutex
	chunkSize int
	align     int
	logger    *zap.Logger
	chunks    [][]float64
	off       int // offset of the next free element in the last chunk
	stats     Stats
}

// Align returns the offset alignment in elements.
func (a *Arena) Align() int { return a.align }

// Allocate implements Allocator.
func (a *Arena) Allocate(n int) []float64 {
	if n < 0 {
		panic("negative allocation size")
	}
	if n == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var cur []float64
	if k := len(a.chunks); k > 0 {
		cur = a.chunks[k-1]
	}

	off := alignUp(a.off, a.align)
	if cur == nil || off+n > len(cur) {
		size := max(a.chunkSize, n)
		cur = make([]float64, size)
		a.chunks = append(a.chunks, cur)
		a.stats.Reserved += size
		off = 0
		a.logger.Debug("arena chunk acquired",
			zap.Int("elements", size),
			zap.Int("chunks", len(a.chunks)),
			zap.Int("reserved", a.stats.Reserved))
	}

	a.off = off + n
	a.stats.Allocations++
	a.stats.InUse += n
	return cur[off : off+n : off+n]
}

// Deallocate implements Allocator.
func (a *Arena) Deallocate(buf []float64) {
	if cap(buf) == 0 {
		return
	}
	a.mu.Lock()
	a.stats.Deallocations++
	a.stats.InUse -= cap(buf)
	a.mu.Unlock()
}

// Reset drops every chunk. Buffers obtained before the call must not be used
// afterwards.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Debug("arena reset",
		zap.Int("chunks", len(a.chunks)),
		zap.Int("in_use", a.stats.InUse))
	a.chunks = nil
	a.off = 0
	a.stats.InUse = 0
	a.stats.Reserved = 0
}

// Stats implements Reporter.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
