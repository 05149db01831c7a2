package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mediawall/panosync/go/internal/syncloop"
)

type fakeSource struct {
	snap syncloop.Snapshot
}

func (f *fakeSource) Snapshot() syncloop.Snapshot { return f.snap }

type fakeSink struct {
	inserted []DriftSample
	err      error
}

func (f *fakeSink) InsertDriftSample(ctx context.Context, s DriftSample) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, s)
	return nil
}

func TestRecorderWritesSample(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &fakeSource{snap: syncloop.Snapshot{
		NodeID:          "ab12cd34",
		Drift:           0.4,
		Rate:            0.5,
		Seeks:           2,
		SamplesReceived: 17,
	}}
	sink := &fakeSink{}
	r := NewRecorder(src, sink, clock, 0)

	r.record(context.Background())

	if len(sink.inserted) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(sink.inserted))
	}
	got := sink.inserted[0]
	if got.NodeID != "ab12cd34" || got.Drift != 0.4 || got.Seeks != 2 || got.Samples != 17 {
		t.Errorf("sample fields not carried over: %+v", got)
	}
	if got.RecordedAt != clock.Now() {
		t.Errorf("expected recorded_at from injected clock")
	}
}

func TestRecorderNilSinkDoesNotPanic(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRecorder(&fakeSource{}, nil, clock, 0)

	r.record(context.Background())
}

func TestRecorderSwallowsInsertErrors(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &fakeSink{err: errors.New("connection refused")}
	r := NewRecorder(&fakeSource{}, sink, clock, 0)

	// Must not panic or propagate; a lost stats row never disturbs playback.
	r.record(context.Background())
}

type fakePruningSink struct {
	fakeSink
	cutoffs []time.Time
}

func (f *fakePruningSink) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, nil
}

func TestRecorderPrunesOnRetention(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &fakePruningSink{}
	r := NewRecorder(&fakeSource{}, sink, clock, 0)
	r.EnableRetention(7 * 24 * time.Hour)

	// Inside the prune interval nothing is trimmed.
	r.record(context.Background())
	if len(sink.cutoffs) != 0 {
		t.Fatalf("expected no prune before the interval elapses, got %d", len(sink.cutoffs))
	}

	clock.Advance(DefaultPruneInterval + time.Minute)
	r.record(context.Background())
	if len(sink.cutoffs) != 1 {
		t.Fatalf("expected 1 prune after the interval, got %d", len(sink.cutoffs))
	}
	want := clock.Now().Add(-7 * 24 * time.Hour)
	if !sink.cutoffs[0].Equal(want) {
		t.Errorf("expected cutoff %v, got %v", want, sink.cutoffs[0])
	}

	// Back-to-back records do not prune again.
	r.record(context.Background())
	if len(sink.cutoffs) != 1 {
		t.Errorf("expected prune cadence of one per interval, got %d", len(sink.cutoffs))
	}
}

func TestRecorderRetentionWithPlainSink(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := &fakeSink{}
	r := NewRecorder(&fakeSource{}, sink, clock, 0)
	r.EnableRetention(24 * time.Hour)

	clock.Advance(2 * DefaultPruneInterval)
	// Sink does not implement Pruner; record must carry on regardless.
	r.record(context.Background())
	if len(sink.inserted) != 1 {
		t.Fatalf("expected the sample to land, got %d", len(sink.inserted))
	}
}
