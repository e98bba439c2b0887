// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const bytesPerElement = 8

// Collector exports the Stats of tracked allocators as Prometheus metrics,
// labelled by the name given to Track.
type Collector struct {
	mu      sync.RWMutex
	tracked map[string]Reporter

	allocs   *prometheus.Desc
	deallocs *prometheus.Desc
	inUse    *prometheus.Desc
	reserved *prometheus.Desc
}

// NewCollector returns a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	labels := []string{"allocator"}
	name := func(s string) string {
		return prometheus.BuildFQName(namespace, "allocator", s)
	}
	return &Collector{
		tracked: make(map[string]Reporter),
		allocs: prometheus.NewDesc(name("allocations_total"),
			"Number of Allocate calls served.", labels, nil),
		deallocs: prometheus.NewDesc(name("deallocations_total"),
			"Number of Deallocate calls served.", labels, nil),
		inUse: prometheus.NewDesc(name("in_use_bytes"),
			"Bytes handed out and not yet deallocated.", labels, nil),
		reserved: prometheus.NewDesc(name("reserved_bytes"),
			"Bytes obtained from the Go heap.", labels, nil),
	}
}

// Track starts reporting r under name, replacing any previous entry.
func (c *Collector) Track(name string, r Reporter) {
	c.mu.Lock()
	c.tracked[name] = r
	c.mu.Unlock()
}

// Untrack stops reporting name.
func (c *Collector) Untrack(name string) {
	c.mu.Lock()
	delete(c.tracked, name)
	c.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.allocs
	ch <- c.deallocs
	ch <- c.inUse
	ch <- c.reserved
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	names := make([]string, 0, len(c.tracked))
	for name := range c.tracked {
		names = append(names, name)
	}
	sort.Strings(names)
	reporters := make([]Reporter, len(names))
	for i, name := range names {
		reporters[i] = c.tracked[name]
	}
	c.mu.RUnlock()

	for i, r := range reporters {
		s, name := r.Stats(), names[i]
		ch <- prometheus.MustNewConstMetric(c.allocs, prometheus.CounterValue, float64(s.Allocations), name)
		ch <- prometheus.MustNewConstMetric(c.deallocs, prometheus.CounterValue, float64(s.Deallocations), name)
		ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(s.InUse*bytesPerElement), name)
		ch <- prometheus.MustNewConstMetric(c.reserved, prometheus.GaugeValue, float64(s.Reserved*bytesPerElement), name)
	}
}
