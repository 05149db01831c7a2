package clocksync

import (
	"math"
	"sync/atomic"
)

// Playback rate policy. These are fixed tuning values, not computed:
// a follower ahead of the master halves its rate, a follower behind
// doubles it, and anything inside the dead band plays at normal speed.
const (
	RateNormal = 1.0
	RateSlow   = 0.5
	RateFast   = 2.0
)

// Default soft-sync thresholds in seconds.
const (
	DefaultSoftSyncMin = 0.025
	DefaultSoftSyncMax = 1.0
)

// Config holds the immutable tuning for a Controller. It is supplied
// once at construction.
type Config struct {
	// Master marks this node as the clock source. A master never
	// rate-adjusts or seeks; it only publishes its own position.
	Master bool

	// SoftSyncMin is the minimum |divergence| in seconds that triggers
	// a rate nudge. Divergence inside this band is left alone.
	SoftSyncMin float64

	// SoftSyncMax is the divergence in seconds beyond which a hard
	// seek is warranted. It also sets the cooldown unit between seeks.
	SoftSyncMax float64
}

func (c Config) withDefaults() Config {
	if c.SoftSyncMin == 0 {
		c.SoftSyncMin = DefaultSoftSyncMin
	}
	if c.SoftSyncMax == 0 {
		c.SoftSyncMax = DefaultSoftSyncMax
	}
	return c
}

// ActionKind discriminates the Action union.
type ActionKind int

const (
	// ActionSetRate adjusts the local player's playback rate.
	ActionSetRate ActionKind = iota
	// ActionSeek hard-seeks the local player to Target and resets the
	// rate to RateNormal in the same step.
	ActionSeek
	// ActionPublish carries the master's current position out to the
	// clock channel. Only a master ever returns it.
	ActionPublish
)

// Action is the single corrective effect computed for one evaluation
// tick. Exactly one action is returned per tick.
type Action struct {
	Kind   ActionKind
	Rate   float64 // valid for ActionSetRate
	Target float64 // valid for ActionSeek
	Sample float64 // valid for ActionPublish
}

// SetRate returns a rate-adjust action.
func SetRate(rate float64) Action {
	return Action{Kind: ActionSetRate, Rate: rate}
}

// Seek returns a hard-seek action. The rate reset to RateNormal is
// part of applying the action, so Rate is populated too.
func Seek(target float64) Action {
	return Action{Kind: ActionSeek, Target: target, Rate: RateNormal}
}

// Publish returns a master clock publication action.
func Publish(sample float64) Action {
	return Action{Kind: ActionPublish, Sample: sample}
}

// Controller owns a follower's belief about the master's playback
// position and decides, once per frame, how to steer the local player
// toward it. On a master it instead mirrors the local position into
// masterTime and emits it for publication.
//
// masterTime is stored as atomic float64 bits because the transport
// delivers samples on its own goroutine while the frame loop reads the
// value. It is the only field the network path writes, so no wider
// locking is needed.
type Controller struct {
	cfg Config

	masterBits atomic.Uint64

	// lastSeekTime is touched only by the frame loop.
	lastSeekTime float64
}

// NewController creates a controller. now is the current wall-clock
// time in seconds; lastSeekTime is backdated by the full cooldown
// window so a hard seek is immediately eligible at startup.
func NewController(cfg Config, now float64) *Controller {
	cfg = cfg.withDefaults()
	return &Controller{
		cfg:          cfg,
		lastSeekTime: now - 2*cfg.SoftSyncMax,
	}
}

// Config returns the controller's tuning.
func (c *Controller) Config() Config {
	return c.cfg
}

// MasterTime returns the last known master position in seconds.
func (c *Controller) MasterTime() float64 {
	return math.Float64frombits(c.masterBits.Load())
}

// OnMasterTimeSample records a clock sample received from the network.
// The value overwrites the previous belief unconditionally: samples
// may arrive out of order or duplicated and no attempt is made to
// sequence them. Last write wins; the next tick's rate/seek logic
// self-corrects regardless of which sample is currently held.
func (c *Controller) OnMasterTimeSample(v float64) {
	c.masterBits.Store(math.Float64bits(v))
}

// Evaluate computes the corrective action for one frame on a follower.
// now is wall-clock seconds, localTime the player's current position.
// The first matching branch wins:
//
//  1. |diff| beyond SoftSyncMax and the seek cooldown expired: hard
//     seek to masterTime. The cooldown window is twice SoftSyncMax, a
//     deliberate hysteresis margin so one large divergence cannot
//     thrash repeated seeks while the player is still settling.
//  2. player ahead of master past the dead band: half speed.
//  3. player behind master past the dead band: double speed.
//  4. inside the dead band: normal speed.
//
// The only state mutated is lastSeekTime, and only when the seek
// branch fires.
func (c *Controller) Evaluate(now, localTime float64) Action {
	diff := localTime - c.MasterTime()
	sinceSeek := now - c.lastSeekTime

	switch {
	case math.Abs(diff) > c.cfg.SoftSyncMax && sinceSeek > 2*c.cfg.SoftSyncMax:
		c.lastSeekTime = now
		return Seek(c.MasterTime())
	case diff > c.cfg.SoftSyncMin:
		return SetRate(RateSlow)
	case diff < -c.cfg.SoftSyncMin:
		return SetRate(RateFast)
	default:
		return SetRate(RateNormal)
	}
}

// OnLocalFrameForMaster is the master's per-tick step: the master is
// by definition in sync with itself, so it records its own position
// as the shared clock and emits it for publication. No rate or seek
// adjustment ever happens on a master.
func (c *Controller) OnLocalFrameForMaster(localTime float64) Action {
	c.masterBits.Store(math.Float64bits(localTime))
	return Publish(localTime)
}
