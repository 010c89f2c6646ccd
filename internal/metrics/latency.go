// Package metrics keeps per-route request latency histograms.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds in microseconds: 1µs to 60s, three significant digits.
const (
	minLatency = 1
	maxLatency = 60_000_000
	sigFigs    = 3
)

type LatencyRecorder struct {
	mu     sync.Mutex
	routes map[string]*hdrhistogram.Histogram
}

func NewLatencyRecorder() *LatencyRecorder {
	return &LatencyRecorder{routes: make(map[string]*hdrhistogram.Histogram)}
}

// Record adds one observation for route. Values outside the histogram range
// are clamped.
func (r *LatencyRecorder) Record(route string, d time.Duration) {
	v := d.Microseconds()
	if v < minLatency {
		v = minLatency
	}
	if v > maxLatency {
		v = maxLatency
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.routes[route]
	if !ok {
		h = hdrhistogram.New(minLatency, maxLatency, sigFigs)
		r.routes[route] = h
	}
	h.RecordValue(v)
}

type RouteLatency struct {
	Route string        `json:"route"`
	Count int64         `json:"count"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

// Snapshot returns a summary for every route seen so far, sorted by route.
func (r *LatencyRecorder) Snapshot() []RouteLatency {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RouteLatency, 0, len(r.routes))
	for route, h := range r.routes {
		out = append(out, RouteLatency{
			Route: route,
			Count: h.TotalCount(),
			Mean:  time.Duration(h.Mean()) * time.Microsecond,
			P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
			P95:   time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
			P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
			Max:   time.Duration(h.Max()) * time.Microsecond,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}
