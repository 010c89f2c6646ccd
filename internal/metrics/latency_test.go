package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecorderSnapshot(t *testing.T) {
	r := NewLatencyRecorder()
	for i := 1; i <= 100; i++ {
		r.Record("GET /api/posts", time.Duration(i)*time.Millisecond)
	}
	r.Record("POST /api/auth/login", 5*time.Millisecond)

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("routes = %d, want 2", len(snap))
	}
	if snap[0].Route != "GET /api/posts" || snap[1].Route != "POST /api/auth/login" {
		t.Fatalf("routes not sorted: %v, %v", snap[0].Route, snap[1].Route)
	}

	posts := snap[0]
	if posts.Count != 100 {
		t.Fatalf("count = %d, want 100", posts.Count)
	}
	within := func(got, want time.Duration) bool {
		diff := got - want
		if diff < 0 {
			diff = -diff
		}
		return diff <= want/100
	}
	if !within(posts.P50, 50*time.Millisecond) {
		t.Fatalf("p50 = %v", posts.P50)
	}
	if !within(posts.P99, 99*time.Millisecond) {
		t.Fatalf("p99 = %v", posts.P99)
	}
	if !within(posts.Max, 100*time.Millisecond) {
		t.Fatalf("max = %v", posts.Max)
	}
}

func TestRecorderClampsOutOfRange(t *testing.T) {
	r := NewLatencyRecorder()
	r.Record("x", 0)
	r.Record("x", 10*time.Minute)

	snap := r.Snapshot()
	if snap[0].Count != 2 {
		t.Fatalf("count = %d, want 2", snap[0].Count)
	}
	if snap[0].Max < 59*time.Second {
		t.Fatalf("max = %v, want clamped to the upper bound", snap[0].Max)
	}
}

func TestRecorderConcurrent(t *testing.T) {
	r := NewLatencyRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Record("route", time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if got := r.Snapshot()[0].Count; got != 1000 {
		t.Fatalf("count = %d, want 1000", got)
	}
}
