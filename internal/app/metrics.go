package app

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Metrics tracks engine counters. All fields are updated atomically.
type Metrics struct {
	startTime time.Time

	SessionsCreated atomic.Int64
	SessionsClosed  atomic.Int64
	CreateFailures  atomic.Int64

	JoinsOK      atomic.Int64
	JoinsFull    atomic.Int64
	Leaves       atomic.Int64
	LeaveMisses  atomic.Int64
	CloseDenied  atomic.Int64
	NotFound     atomic.Int64
	BadControls  atomic.Int64
	FormRejected atomic.Int64

	RendersDelivered atomic.Int64
	RendersStale     atomic.Int64
	DeliveryFailures atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// MetricsSnapshot is a point-in-time view of the counters.
type MetricsSnapshot struct {
	UptimeSeconds int64 `json:"uptime_seconds"`
	Sessions      int64 `json:"sessions_active"`

	SessionsCreated int64 `json:"sessions_created"`
	SessionsClosed  int64 `json:"sessions_closed"`
	CreateFailures  int64 `json:"create_failures"`

	JoinsOK      int64 `json:"joins_ok"`
	JoinsFull    int64 `json:"joins_full"`
	Leaves       int64 `json:"leaves"`
	LeaveMisses  int64 `json:"leave_misses"`
	CloseDenied  int64 `json:"close_denied"`
	NotFound     int64 `json:"not_found"`
	BadControls  int64 `json:"bad_controls"`
	FormRejected int64 `json:"form_rejected"`

	RendersDelivered int64 `json:"renders_delivered"`
	RendersStale     int64 `json:"renders_stale"`
	DeliveryFailures int64 `json:"delivery_failures"`
}

// Snapshot reads every counter; active is the live session count.
func (m *Metrics) Snapshot(active int) MetricsSnapshot {
	return MetricsSnapshot{
		UptimeSeconds:    int64(time.Since(m.startTime).Seconds()),
		Sessions:         int64(active),
		SessionsCreated:  m.SessionsCreated.Load(),
		SessionsClosed:   m.SessionsClosed.Load(),
		CreateFailures:   m.CreateFailures.Load(),
		JoinsOK:          m.JoinsOK.Load(),
		JoinsFull:        m.JoinsFull.Load(),
		Leaves:           m.Leaves.Load(),
		LeaveMisses:      m.LeaveMisses.Load(),
		CloseDenied:      m.CloseDenied.Load(),
		NotFound:         m.NotFound.Load(),
		BadControls:      m.BadControls.Load(),
		FormRejected:     m.FormRejected.Load(),
		RendersDelivered: m.RendersDelivered.Load(),
		RendersStale:     m.RendersStale.Load(),
		DeliveryFailures: m.DeliveryFailures.Load(),
	}
}

// WritePrometheus writes the counters in Prometheus text exposition format.
func (m *Metrics) WritePrometheus(w io.Writer, active int) {
	snap := m.Snapshot(active)

	// Write errors to the response are not actionable.
	write := func(name, help, mtype string, value int64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
	}

	write("recruit_uptime_seconds", "Process uptime in seconds.", "gauge", snap.UptimeSeconds)
	write("recruit_sessions_active", "Live recruitment sessions.", "gauge", snap.Sessions)

	write("recruit_sessions_created_total", "Sessions created.", "counter", snap.SessionsCreated)
	write("recruit_sessions_closed_total", "Sessions closed by their host.", "counter", snap.SessionsClosed)
	write("recruit_create_failures_total", "Session creations aborted by a platform error.", "counter", snap.CreateFailures)

	write("recruit_joins_total", "Successful role joins.", "counter", snap.JoinsOK)
	write("recruit_joins_full_total", "Joins rejected because the role was full.", "counter", snap.JoinsFull)
	write("recruit_leaves_total", "Successful leaves.", "counter", snap.Leaves)
	write("recruit_leave_misses_total", "Leaves from users holding no slot.", "counter", snap.LeaveMisses)
	write("recruit_close_denied_total", "Close attempts by non-hosts.", "counter", snap.CloseDenied)
	write("recruit_not_found_total", "Events for sessions that no longer exist.", "counter", snap.NotFound)
	write("recruit_bad_controls_total", "Events with a malformed control id.", "counter", snap.BadControls)
	write("recruit_form_rejected_total", "Creation forms rejected by validation.", "counter", snap.FormRejected)

	write("recruit_renders_delivered_total", "Rendered views delivered.", "counter", snap.RendersDelivered)
	write("recruit_renders_stale_total", "Rendered views dropped as stale.", "counter", snap.RendersStale)
	write("recruit_delivery_failures_total", "Platform calls that failed.", "counter", snap.DeliveryFailures)
}
