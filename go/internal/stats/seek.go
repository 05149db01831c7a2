package stats

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// SeekSink persists hard-seek events.
type SeekSink interface {
	InsertSeekEvent(ctx context.Context, nodeID string, target, drift float64, at time.Time) error
}

// SeekRecorder bridges the frame loop's seek notifications to the
// stats database. Each insert runs on its own goroutine; the frame
// loop must never wait on Postgres.
type SeekRecorder struct {
	sink  SeekSink
	clock clockwork.Clock
}

func NewSeekRecorder(sink SeekSink, clock clockwork.Clock) *SeekRecorder {
	return &SeekRecorder{sink: sink, clock: clock}
}

// ObserveSeek records one hard seek. Insert failures are logged and
// dropped, same policy as drift samples.
func (s *SeekRecorder) ObserveSeek(nodeID string, target, drift float64) {
	at := s.clock.Now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.sink.InsertSeekEvent(ctx, nodeID, target, drift, at); err != nil {
			log.Error().Err(err).Str("node_id", nodeID).Msg("failed to record seek event")
		}
	}()
}
