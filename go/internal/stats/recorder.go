package stats

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mediawall/panosync/go/internal/syncloop"
)

// DefaultSampleInterval spaces drift rows far enough apart that a
// long-running wall doesn't flood the table.
const DefaultSampleInterval = 5 * time.Second

// DefaultPruneInterval is how often retention trimming runs once
// enabled.
const DefaultPruneInterval = time.Hour

// SnapshotSource is what the recorder needs from the sync loop.
type SnapshotSource interface {
	Snapshot() syncloop.Snapshot
}

// Sink is the persistence side of the recorder.
type Sink interface {
	InsertDriftSample(ctx context.Context, s DriftSample) error
}

// Pruner is implemented by sinks that support retention trimming.
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Recorder periodically samples the loop and writes drift rows. With a
// nil sink it degrades to logging, so a wall without Postgres still
// reports its drift.
type Recorder struct {
	src      SnapshotSource
	sink     Sink
	clock    clockwork.Clock
	interval time.Duration

	retention time.Duration
	lastPrune time.Time
}

// NewRecorder creates a recorder. A zero interval uses the default.
func NewRecorder(src SnapshotSource, sink Sink, clock clockwork.Clock, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Recorder{src: src, sink: sink, clock: clock, interval: interval}
}

// EnableRetention trims rows older than retention from the sink, at
// most once per DefaultPruneInterval. The sink must implement Pruner.
// Call before Run.
func (r *Recorder) EnableRetention(retention time.Duration) {
	if retention <= 0 {
		return
	}
	r.retention = retention
	r.lastPrune = r.clock.Now()
}

// Run samples until ctx is cancelled. Insert failures are logged and
// skipped; losing a stats row must never disturb playback.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			r.record(ctx)
		}
	}
}

func (r *Recorder) record(ctx context.Context) {
	snap := r.src.Snapshot()

	if r.sink == nil {
		log.Debug().
			Str("node_id", snap.NodeID).
			Bool("master", snap.Master).
			Float64("drift", snap.Drift).
			Float64("rate", snap.Rate).
			Uint64("seeks", snap.Seeks).
			Msg("drift sample (no stats sink configured)")
		return
	}

	sample := DriftSample{
		NodeID:     snap.NodeID,
		Master:     snap.Master,
		Drift:      snap.Drift,
		MasterTime: snap.MasterTime,
		LocalTime:  snap.LocalTime,
		Rate:       snap.Rate,
		Seeks:      snap.Seeks,
		Samples:    snap.SamplesReceived,
		RecordedAt: r.clock.Now(),
	}
	if err := r.sink.InsertDriftSample(ctx, sample); err != nil {
		log.Error().Err(err).Str("node_id", snap.NodeID).Msg("failed to record drift sample")
	}

	r.maybePrune(ctx)
}

func (r *Recorder) maybePrune(ctx context.Context) {
	if r.retention <= 0 {
		return
	}
	pruner, ok := r.sink.(Pruner)
	if !ok {
		return
	}
	now := r.clock.Now()
	if now.Sub(r.lastPrune) < DefaultPruneInterval {
		return
	}
	r.lastPrune = now

	cutoff := now.Add(-r.retention)
	rows, err := pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("failed to prune drift samples")
		return
	}
	log.Info().Int64("rows", rows).Time("cutoff", cutoff).Msg("pruned old drift samples")
}
