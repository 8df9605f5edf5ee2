// Package metrics exposes Prometheus instrumentation for the framing
// core: decoded frames, frame bytes, and discarded input.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counters
	FrameCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbus_frames_total",
		Help: "The total number of complete ADUs decoded from input streams",
	}, []string{"protocol"})

	FrameBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbus_frame_bytes_total",
		Help: "The total number of bytes in decoded ADUs",
	}, []string{"protocol"})

	DiscardCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modbus_discards_total",
		Help: "The total number of destructive buffer resets caused by malformed input",
	}, []string{"protocol", "reason"})
)

// Discard reason constants
const (
	ReasonBadLength        = "bad_length"
	ReasonChecksumMismatch = "checksum_mismatch"
	ReasonBadFunctionCode  = "bad_function_code"
	ReasonBufferOverflow   = "buffer_overflow"
	ReasonOther            = "other"
)

// IncFrame records one decoded ADU of the given size.
func IncFrame(protocol string, bytes int) {
	FrameCount.WithLabelValues(protocol).Inc()
	FrameBytes.WithLabelValues(protocol).Add(float64(bytes))
}

// IncDiscard records one destructive buffer reset.
func IncDiscard(protocol, reason string) {
	DiscardCount.WithLabelValues(protocol, reason).Inc()
}
