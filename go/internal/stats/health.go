package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

// HealthStatus is the daemon's liveness summary.
type HealthStatus struct {
	Healthy         bool
	NATSConnected   bool
	DatabaseEnabled bool
	DatabaseHealthy bool
	SamplesReceived uint64
	LastSampleAt    time.Time
	Errors          []string
}

// ConnectionChecker reports whether the bus connection is up.
type ConnectionChecker interface {
	Connected() bool
}

// HealthChecker inspects the bus, the optional stats database and the
// sync loop. Sample staleness is reported as a diagnostic only; the
// controller deliberately keeps steering toward the last known master
// time when the channel goes silent.
type HealthChecker struct {
	bus   ConnectionChecker
	db    *sql.DB
	src   SnapshotSource
	clock clockwork.Clock

	// staleThreshold flags followers that have not heard from the
	// master in this long. Zero disables the check.
	staleThreshold time.Duration
}

func NewHealthChecker(bus ConnectionChecker, db *sql.DB, src SnapshotSource, clock clockwork.Clock, staleThreshold time.Duration) *HealthChecker {
	return &HealthChecker{bus: bus, db: db, src: src, clock: clock, staleThreshold: staleThreshold}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	if h.bus != nil {
		status.NATSConnected = h.bus.Connected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if h.db != nil {
		status.DatabaseEnabled = true
		if err := h.db.PingContext(ctx); err != nil {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		} else {
			status.DatabaseHealthy = true
		}
	}

	if h.src != nil {
		snap := h.src.Snapshot()
		status.SamplesReceived = snap.SamplesReceived
		status.LastSampleAt = snap.LastSampleAt

		if !snap.Master && h.staleThreshold > 0 && !snap.LastSampleAt.IsZero() {
			if silence := h.clock.Now().Sub(snap.LastSampleAt); silence > h.staleThreshold {
				status.Errors = append(status.Errors, fmt.Sprintf("no clock sample for %s", silence.Round(time.Second)))
			}
		}
	}

	return status
}

// ServeHTTP renders the health status as JSON, 503 when unhealthy.
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	response := map[string]interface{}{
		"healthy":          status.Healthy,
		"nats_connected":   status.NATSConnected,
		"database_enabled": status.DatabaseEnabled,
		"database_healthy": status.DatabaseHealthy,
		"samples_received": status.SamplesReceived,
		"last_sample_at":   status.LastSampleAt,
		"errors":           status.Errors,
	}

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}
