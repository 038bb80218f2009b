package host

import "gridfactory.dev/internal/sim/factory"

// Metrics is a thread-safe read-only view of the host. It is updated from
// the host goroutine and read from HTTP handlers/tests.
type Metrics struct {
	Session factory.Metrics `json:"session"`

	Clients   int    `json:"clients"`
	Observers int    `json:"observers"`
	Frames    uint64 `json:"frames"`

	QueueDepths QueueDepths `json:"queue_depths"`

	FrameMS float64 `json:"frame_ms"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

func (h *Host) Metrics() Metrics {
	if h == nil {
		return Metrics{}
	}
	v := h.metrics.Load()
	if v == nil {
		return Metrics{}
	}
	m, ok := v.(Metrics)
	if !ok {
		return Metrics{}
	}
	return m
}
