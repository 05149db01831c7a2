package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/mediawall/panosync/go/internal/syncloop"
)

type fakeSource struct {
	snap syncloop.Snapshot
}

func (f *fakeSource) Snapshot() syncloop.Snapshot { return f.snap }

func TestHandleSnapshot(t *testing.T) {
	src := &fakeSource{snap: syncloop.Snapshot{NodeID: "deadbeef", Master: true, MasterTime: 12.5}}
	g := NewGateway(src, nil, clockwork.NewFakeClock(), nil)

	rr := httptest.NewRecorder()
	g.HandleSnapshot(rr, httptest.NewRequest(http.MethodGet, "/snapshot", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var snap syncloop.Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.NodeID != "deadbeef" || !snap.Master || snap.MasterTime != 12.5 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestHandleConnectionStats(t *testing.T) {
	g := NewGateway(&fakeSource{}, nil, clockwork.NewFakeClock(), nil)

	rr := httptest.NewRecorder()
	g.HandleConnectionStats(rr, httptest.NewRequest(http.MethodGet, "/ws/stats", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"total_connections":0`) {
		t.Errorf("unexpected body: %s", rr.Body.String())
	}
}

func TestStatusBroadcastReachesClient(t *testing.T) {
	src := &fakeSource{snap: syncloop.Snapshot{NodeID: "cafe0001", Drift: 0.3}}
	clock := clockwork.NewFakeClock()
	g := NewGateway(src, nil, clock, nil)

	srv := httptest.NewServer(http.HandlerFunc(g.HandleStatusConnection))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/status"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.RunBroadcaster(ctx)

	clock.BlockUntil(1)
	clock.Advance(DefaultStatusInterval)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var frame StatusFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if frame.Type != "SyncStatus" {
		t.Errorf("expected SyncStatus frame, got %q", frame.Type)
	}
	if frame.Status.NodeID != "cafe0001" {
		t.Errorf("expected node cafe0001, got %q", frame.Status.NodeID)
	}
}
