package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/vedran77/circle/internal/metrics"
)

// PingFunc checks that the backing store is reachable.
type PingFunc func(ctx context.Context) error

type SystemHandler struct {
	ping     PingFunc
	recorder *metrics.LatencyRecorder
}

// NewSystemHandler accepts a nil ping for stores that cannot be unreachable.
func NewSystemHandler(ping PingFunc, recorder *metrics.LatencyRecorder) *SystemHandler {
	return &SystemHandler{ping: ping, recorder: recorder}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			log.Printf("ERROR health: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *SystemHandler) Latency(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeJSON(w, http.StatusOK, []metrics.RouteLatency{})
		return
	}
	writeJSON(w, http.StatusOK, h.recorder.Snapshot())
}
