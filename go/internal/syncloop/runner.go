package syncloop

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mediawall/panosync/go/internal/clocksync"
	"github.com/mediawall/panosync/go/internal/playback"
	"github.com/mediawall/panosync/go/internal/transport"
)

// DefaultFrameInterval approximates a 60 Hz render loop. The daemon
// has no real compositor driving it, so the ticker stands in for the
// per-frame callback.
const DefaultFrameInterval = time.Second / 60

// advancer is implemented by simulated players whose position only
// moves when told to. A real player advances on its own.
type advancer interface {
	Advance(dt float64)
}

// SeekObserver is notified whenever the follower hard-seeks, with the
// seek target and the drift that triggered it. Implementations must
// not block; they are called from the frame loop.
type SeekObserver interface {
	ObserveSeek(nodeID string, target, drift float64)
}

// Snapshot is a read-only view of the loop state for the gateway and
// the stats recorder.
type Snapshot struct {
	NodeID          string    `json:"node_id"`
	Master          bool      `json:"master"`
	MasterTime      float64   `json:"master_time"`
	LocalTime       float64   `json:"local_time"`
	Rate            float64   `json:"rate"`
	Drift           float64   `json:"drift"`
	Seeks           uint64    `json:"seeks"`
	SamplesReceived uint64    `json:"samples_received"`
	LastSampleAt    time.Time `json:"last_sample_at"`
}

// Runner drives one node's frame loop: on a master each tick publishes
// the local position to the clock channel; on a follower each tick
// evaluates the controller and applies the resulting action to the
// player. Clock samples arrive asynchronously on the bus goroutine and
// land in the controller's atomic masterTime.
type Runner struct {
	ctrl          *clocksync.Controller
	player        playback.Handle
	bus           transport.Bus
	clock         clockwork.Clock
	epoch         time.Time
	frameInterval time.Duration
	instanceID    string
	observer      SeekObserver

	mu           sync.Mutex
	seeks        uint64
	samples      uint64
	lastSampleAt time.Time
	lastDrift    float64
}

// NewRunner wires a runner. A zero frameInterval uses the default.
func NewRunner(cfg clocksync.Config, player playback.Handle, bus transport.Bus, clock clockwork.Clock, frameInterval time.Duration) *Runner {
	if frameInterval <= 0 {
		frameInterval = DefaultFrameInterval
	}
	r := &Runner{
		player:        player,
		bus:           bus,
		clock:         clock,
		epoch:         clock.Now(),
		frameInterval: frameInterval,
		instanceID:    uuid.New().String()[:8],
	}
	// Controller time starts at zero seconds past the epoch, which
	// backdates the seek cooldown and makes a startup seek eligible.
	r.ctrl = clocksync.NewController(cfg, 0)
	return r
}

// Controller exposes the controller, mainly so the clock subscription
// can be wired before Run starts ticking.
func (r *Runner) Controller() *clocksync.Controller {
	return r.ctrl
}

// SetSeekObserver attaches a seek observer. Call before Run.
func (r *Runner) SetSeekObserver(obs SeekObserver) {
	r.observer = obs
}

// OnClockSample is the bus callback for a follower. Safe to call from
// the transport goroutine at any point relative to ticks.
func (r *Runner) OnClockSample(v float64) {
	r.ctrl.OnMasterTimeSample(v)
	r.mu.Lock()
	r.samples++
	r.lastSampleAt = r.clock.Now()
	r.mu.Unlock()
}

// Run ticks the frame loop until ctx is cancelled. On a follower the
// clock subscription must already be attached (see OnClockSample).
func (r *Runner) Run(ctx context.Context) error {
	cfg := r.ctrl.Config()
	log.Info().
		Str("instance", r.instanceID).
		Bool("master", cfg.Master).
		Float64("soft_sync_min", cfg.SoftSyncMin).
		Float64("soft_sync_max", cfg.SoftSyncMax).
		Dur("frame_interval", r.frameInterval).
		Msg("sync loop started")

	ticker := r.clock.NewTicker(r.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("instance", r.instanceID).Msg("sync loop stopped")
			return nil
		case <-ticker.Chan():
			r.step(r.frameInterval.Seconds())
		}
	}
}

// step runs one frame: advance a simulated player, then either publish
// (master) or steer (follower).
func (r *Runner) step(dt float64) {
	if a, ok := r.player.(advancer); ok {
		a.Advance(dt)
	}

	local := r.player.CurrentTime()

	if r.ctrl.Config().Master {
		action := r.ctrl.OnLocalFrameForMaster(local)
		if err := r.bus.PublishClock(action.Sample); err != nil {
			// Best-effort channel; next tick carries a fresher value.
			log.Warn().Err(err).Str("instance", r.instanceID).Msg("clock publish failed")
		}
		return
	}

	now := r.seconds()
	action := r.ctrl.Evaluate(now, local)
	r.apply(action, local)
}

func (r *Runner) apply(action clocksync.Action, local float64) {
	drift := local - r.ctrl.MasterTime()

	switch action.Kind {
	case clocksync.ActionSeek:
		r.player.SetCurrentTime(action.Target)
		r.player.SetPlaybackRate(clocksync.RateNormal)
		r.mu.Lock()
		r.seeks++
		r.mu.Unlock()
		if r.observer != nil {
			r.observer.ObserveSeek(r.instanceID, action.Target, drift)
		}
		log.Info().
			Str("instance", r.instanceID).
			Float64("drift", drift).
			Float64("target", action.Target).
			Msg("hard seek")
	case clocksync.ActionSetRate:
		r.player.SetPlaybackRate(action.Rate)
	}

	r.mu.Lock()
	r.lastDrift = drift
	r.mu.Unlock()
}

// seconds is wall-clock time for the controller, measured from the
// runner's epoch so fake clocks work in tests.
func (r *Runner) seconds() float64 {
	return r.clock.Now().Sub(r.epoch).Seconds()
}

// Snapshot returns the current loop state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		NodeID:          r.instanceID,
		Master:          r.ctrl.Config().Master,
		MasterTime:      r.ctrl.MasterTime(),
		LocalTime:       r.player.CurrentTime(),
		Rate:            r.player.PlaybackRate(),
		Drift:           r.lastDrift,
		Seeks:           r.seeks,
		SamplesReceived: r.samples,
		LastSampleAt:    r.lastSampleAt,
	}
}
