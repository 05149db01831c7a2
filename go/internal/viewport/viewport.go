package viewport

import (
	"fmt"
	"sync"

	"github.com/mediawall/panosync/go/internal/transport"
)

// Panel is one yaw-offset viewport into the shared panoramic video.
// A wall of N screens composites the panorama by giving each screen
// the same video with a different yaw.
type Panel struct {
	Index     int     `json:"index"`
	YawOffset float64 `json:"yaw_offset"` // degrees relative to the wall center
}

// Layout positions N panels symmetrically around the center heading,
// one field of view apart.
type Layout struct {
	panels []Panel
	fov    float64
}

// NewLayout builds a layout of count panels, each fov degrees wide.
func NewLayout(count int, fov float64) (*Layout, error) {
	if count < 1 {
		return nil, fmt.Errorf("viewport count must be at least 1, got %d", count)
	}
	if fov <= 0 || fov > 360 {
		return nil, fmt.Errorf("field of view must be in (0, 360], got %v", fov)
	}

	panels := make([]Panel, count)
	center := float64(count-1) / 2
	for i := range panels {
		panels[i] = Panel{
			Index:     i,
			YawOffset: NormalizeYaw((float64(i) - center) * fov),
		}
	}
	return &Layout{panels: panels, fov: fov}, nil
}

// Panels returns the panel definitions in wall order.
func (l *Layout) Panels() []Panel {
	out := make([]Panel, len(l.panels))
	copy(out, l.panels)
	return out
}

// FOV returns the per-panel field of view in degrees.
func (l *Layout) FOV() float64 {
	return l.fov
}

// NormalizeYaw wraps a heading into [-180, 180).
func NormalizeYaw(deg float64) float64 {
	for deg >= 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}

// Tracker holds the last pointing direction received from the
// orientation channel and derives per-panel headings from it. The
// renderer reads headings; the transport callback writes orientation.
// Camera math beyond yaw composition stays with the renderer.
type Tracker struct {
	layout *Layout

	mu      sync.Mutex
	current transport.Orientation
}

// NewTracker creates a tracker over a layout.
func NewTracker(layout *Layout) *Tracker {
	return &Tracker{layout: layout}
}

// OnOrientation is the orientation channel callback. Last write wins,
// same as the clock channel.
func (t *Tracker) OnOrientation(o transport.Orientation) {
	t.mu.Lock()
	t.current = o
	t.mu.Unlock()
}

// Orientation returns the last received pointing direction.
func (t *Tracker) Orientation() transport.Orientation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// PanelHeadings returns each panel's absolute yaw: the shared pointing
// direction's Z component plus the panel's offset.
func (t *Tracker) PanelHeadings() []float64 {
	t.mu.Lock()
	base := t.current.Z
	t.mu.Unlock()

	panels := t.layout.Panels()
	headings := make([]float64, len(panels))
	for i, p := range panels {
		headings[i] = NormalizeYaw(base + p.YawOffset)
	}
	return headings
}
