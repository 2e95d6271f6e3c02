// Package metrics provides lightweight counters for tracking runtime
// statistics of a print server.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a server instance.
// A nil Collector is safe to use — all methods become no-ops.
type Collector struct {
	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	requestsTotal     atomic.Int64
	printJobs         atomic.Int64
	authFailures      atomic.Int64
	bytesReceived     atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── Request metrics ──────────────────────────────────────────────────

// RequestHandled records one completed request stream.
func (c *Collector) RequestHandled() {
	if c == nil {
		return
	}
	c.requestsTotal.Add(1)
}

// TotalRequests returns the lifetime request count.
func (c *Collector) TotalRequests() int64 {
	if c == nil {
		return 0
	}
	return c.requestsTotal.Load()
}

// PrintJobCompleted records a successful print dispatch.
func (c *Collector) PrintJobCompleted() {
	if c == nil {
		return
	}
	c.printJobs.Add(1)
}

// PrintJobs returns the number of successfully dispatched jobs.
func (c *Collector) PrintJobs() int64 {
	if c == nil {
		return 0
	}
	return c.printJobs.Load()
}

// AuthFailure records a rejected authentication or authorization.
func (c *Collector) AuthFailure() {
	if c == nil {
		return
	}
	c.authFailures.Add(1)
}

// AuthFailures returns the rejected-auth count.
func (c *Collector) AuthFailures() int64 {
	if c == nil {
		return 0
	}
	return c.authFailures.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n body bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesReceived.Add(n)
}

// TotalBytesReceived returns total body bytes received.
func (c *Collector) TotalBytesReceived() int64 {
	if c == nil {
		return 0
	}
	return c.bytesReceived.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	ConnectionsActive int64  `json:"connections_active"`
	ConnectionsTotal  int64  `json:"connections_total"`
	RequestsTotal     int64  `json:"requests_total"`
	PrintJobs         int64  `json:"print_jobs"`
	AuthFailures      int64  `json:"auth_failures"`
	BytesReceived     int64  `json:"bytes_received"`
	ErrorsTotal       int64  `json:"errors_total"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Second).String(),
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		RequestsTotal:     c.requestsTotal.Load(),
		PrintJobs:         c.printJobs.Load(),
		AuthFailures:      c.authFailures.Load(),
		BytesReceived:     c.bytesReceived.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
