package stats

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mediawall/panosync/go/internal/syncloop"
)

type fakeConnection struct {
	up bool
}

func (f *fakeConnection) Connected() bool { return f.up }

func TestHealthCheckerReportsStaleSamples(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &fakeSource{snap: syncloop.Snapshot{
		SamplesReceived: 5,
		LastSampleAt:    clock.Now(),
	}}
	h := NewHealthChecker(&fakeConnection{up: true}, nil, src, clock, 10*time.Second)

	status := h.Check(context.Background())
	if len(status.Errors) != 0 {
		t.Fatalf("expected no errors with a fresh sample, got %v", status.Errors)
	}

	clock.Advance(11 * time.Second)
	status = h.Check(context.Background())
	if len(status.Errors) != 1 || !strings.Contains(status.Errors[0], "no clock sample") {
		t.Fatalf("expected a staleness warning, got %v", status.Errors)
	}
	// Silence is diagnostic only; the loop keeps steering toward the
	// last known master time, so the node stays healthy.
	if !status.Healthy {
		t.Error("staleness alone must not mark the node unhealthy")
	}
}

func TestHealthCheckerIgnoresStalenessOnMaster(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &fakeSource{snap: syncloop.Snapshot{
		Master:       true,
		LastSampleAt: clock.Now(),
	}}
	h := NewHealthChecker(&fakeConnection{up: true}, nil, src, clock, 10*time.Second)

	clock.Advance(time.Hour)
	status := h.Check(context.Background())
	if len(status.Errors) != 0 {
		t.Errorf("master receives no samples; expected no errors, got %v", status.Errors)
	}
}

func TestHealthCheckerUnhealthyWhenBusDown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := NewHealthChecker(&fakeConnection{up: false}, nil, &fakeSource{}, clock, 0)

	status := h.Check(context.Background())
	if status.Healthy {
		t.Error("expected unhealthy with the bus disconnected")
	}
	if len(status.Errors) != 1 || !strings.Contains(status.Errors[0], "NATS") {
		t.Errorf("expected a NATS error, got %v", status.Errors)
	}
}
