package playback

import (
	"math"
	"sync"
)

// Handle is the boundary to the actual video element. The sync loop
// only ever reads the position and writes position/rate; load, loop
// and autoplay lifecycle stay with the renderer.
type Handle interface {
	CurrentTime() float64
	SetCurrentTime(float64)
	PlaybackRate() float64
	SetPlaybackRate(float64)
}

// SimPlayer is an in-process stand-in for a video element: a looping
// clip of fixed duration whose position advances at the current
// playback rate. The daemon runs against it when no real player is
// attached, and the loop tests drive it deterministically through
// Advance.
//
// Guarded by a mutex because the gateway reads positions from its own
// goroutine while the frame loop advances and steers the player.
type SimPlayer struct {
	mu       sync.Mutex
	duration float64
	position float64
	rate     float64
}

// NewSimPlayer creates a paused-at-zero player for a clip of the given
// duration in seconds. Rate starts at 1.0, matching an autoplaying
// element.
func NewSimPlayer(duration float64) *SimPlayer {
	return &SimPlayer{duration: duration, rate: 1.0}
}

// Advance moves the position forward by dt seconds of wall time,
// scaled by the playback rate, wrapping at the clip duration the way
// a looping element does. The wrap uses math.Mod so a seek to an
// arbitrarily far position still lands in range in one step; the sync
// loop will seek to whatever finite sample the transport admits.
func (p *SimPlayer) Advance(dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.duration <= 0 {
		return
	}
	p.position = math.Mod(p.position+dt*p.rate, p.duration)
	if p.position < 0 {
		p.position += p.duration
	}
}

func (p *SimPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *SimPlayer) SetCurrentTime(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = t
}

func (p *SimPlayer) PlaybackRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

func (p *SimPlayer) SetPlaybackRate(rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = rate
}

// Duration returns the clip length in seconds.
func (p *SimPlayer) Duration() float64 {
	return p.duration
}
