package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mediawall/panosync/go/internal/syncloop"
	"github.com/mediawall/panosync/go/internal/viewport"
)

// DefaultStatusInterval is how often status frames go out to
// dashboards. Much coarser than the frame loop; dashboards don't need
// 60 Hz.
const DefaultStatusInterval = 250 * time.Millisecond

// StatusFrame is the JSON message pushed to dashboard clients.
type StatusFrame struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Status    syncloop.Snapshot `json:"status"`
	Headings  []float64         `json:"headings,omitempty"`
}

// SnapshotSource is what the gateway needs from the sync loop.
type SnapshotSource interface {
	Snapshot() syncloop.Snapshot
}

// Gateway serves the dashboard WebSocket and HTTP surface.
type Gateway struct {
	manager  *ConnectionManager
	src      SnapshotSource
	tracker  *viewport.Tracker
	clock    clockwork.Clock
	interval time.Duration
	health   http.Handler
}

// NewGateway wires the gateway. tracker and health may be nil.
func NewGateway(src SnapshotSource, tracker *viewport.Tracker, clock clockwork.Clock, health http.Handler) *Gateway {
	return &Gateway{
		manager:  NewConnectionManager(DefaultConnectionConfig()),
		src:      src,
		tracker:  tracker,
		clock:    clock,
		interval: DefaultStatusInterval,
		health:   health,
	}
}

// RunBroadcaster pushes status frames to all clients until ctx is
// cancelled.
func (g *Gateway) RunBroadcaster(ctx context.Context) error {
	ticker := g.clock.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("status broadcaster stopped")
			return nil
		case <-ticker.Chan():
			if g.manager.ConnectionCount() == 0 {
				continue
			}
			frame := StatusFrame{
				Type:      "SyncStatus",
				Timestamp: g.clock.Now(),
				Status:    g.src.Snapshot(),
			}
			if g.tracker != nil {
				frame.Headings = g.tracker.PanelHeadings()
			}
			g.manager.Broadcast(frame)
		}
	}
}

// HandleStatusConnection upgrades a dashboard client.
func (g *Gateway) HandleStatusConnection(w http.ResponseWriter, r *http.Request) {
	if err := g.manager.UpgradeConnection(w, r); err != nil {
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

// HandleConnectionStats reports active dashboard connections.
func (g *Gateway) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"total_connections":` + strconv.Itoa(g.manager.ConnectionCount()) + `}`))
}

// HandleSnapshot serves the current snapshot for one-shot polls.
func (g *Gateway) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g.src.Snapshot())
}

// Server builds the HTTP server: CORS-wrapped mux over h2c.
func (g *Gateway) Server(port string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/status", g.HandleStatusConnection)
	mux.HandleFunc("/ws/stats", g.HandleConnectionStats)
	mux.HandleFunc("/snapshot", g.HandleSnapshot)

	if g.health != nil {
		mux.Handle("/health", g.health)
	} else {
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: h2c.NewHandler(c.Handler(mux), &http2.Server{}),
	}
}
