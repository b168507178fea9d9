package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/inkroom-app/inkroom/internal/board"
	"github.com/inkroom-app/inkroom/internal/configs"
	"github.com/inkroom-app/inkroom/internal/ratelimit"
	"github.com/inkroom-app/inkroom/internal/ws"
)

func newTestAPI(t *testing.T) (*API, *board.Store) {
	t.Helper()
	store := board.NewStore()
	limiters := ratelimit.NewRegistry(1000, 1000)
	hub := ws.NewHub(store, nil, limiters, zap.NewNop().Sugar())
	go hub.Run()

	cfg := configs.BoardConfig{Width: 64, Height: 48, Background: "#ffffff"}
	return New(hub, store, nil, cfg, zap.NewNop().Sugar()), store
}

func doRequest(t *testing.T, a *API, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	a.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := doRequest(t, a, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", resp["status"])
	}
}

func TestStatsHandler(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := doRequest(t, a, http.MethodGet, "/api/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if _, ok := resp["active_rooms"]; !ok {
		t.Error("Stats should report active_rooms")
	}
	if _, ok := resp["active_clients"]; !ok {
		t.Error("Stats should report active_clients")
	}
}

func TestCreateAndListRooms(t *testing.T) {
	a, store := newTestAPI(t)

	body, _ := json.Marshal(CreateRoomRequest{ID: "room-1"})
	rec := doRequest(t, a, http.MethodPost, "/api/rooms", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.HasRoom("room-1") {
		t.Fatal("Room should exist in the store")
	}

	store.AddStroke("room-1", board.Stroke{ID: "s1", Points: []board.Point{{X: 0, Y: 0}}})

	rec = doRequest(t, a, http.MethodGet, "/api/rooms", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Rooms []RoomResponse `json:"rooms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if len(resp.Rooms) != 1 {
		t.Fatalf("Expected 1 room, got %d", len(resp.Rooms))
	}
	if resp.Rooms[0].ID != "room-1" || resp.Rooms[0].StrokeCount != 1 {
		t.Errorf("Unexpected room record: %+v", resp.Rooms[0])
	}
}

func TestCreateRoomValidation(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := doRequest(t, a, http.MethodPost, "/api/rooms", []byte(`not json`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", rec.Code)
	}

	body, _ := json.Marshal(CreateRoomRequest{})
	rec = doRequest(t, a, http.MethodPost, "/api/rooms", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing id, got %d", rec.Code)
	}
}

func TestGetRoom(t *testing.T) {
	a, store := newTestAPI(t)
	store.CreateRoom("room-1")
	store.AddStroke("room-1", board.Stroke{ID: "s1", Points: []board.Point{{X: 0, Y: 0}}})
	store.AddStroke("room-1", board.Stroke{ID: "s2", Points: []board.Point{{X: 1, Y: 1}}})
	store.Undo("room-1")

	rec := doRequest(t, a, http.MethodGet, "/api/rooms/room-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if resp["stroke_count"].(float64) != 2 {
		t.Errorf("Expected stroke_count 2, got %v", resp["stroke_count"])
	}
	if resp["visible_count"].(float64) != 1 {
		t.Errorf("Expected visible_count 1, got %v", resp["visible_count"])
	}
}

func TestRoomNotFound(t *testing.T) {
	a, _ := newTestAPI(t)

	for _, path := range []string{
		"/api/rooms/ghost",
		"/api/rooms/ghost/snapshot.png",
		"/api/rooms/ghost/export.pdf",
	} {
		rec := doRequest(t, a, http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}

	rec := doRequest(t, a, http.MethodDelete, "/api/rooms/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for deleting an unknown room, got %d", rec.Code)
	}
}

func TestClearRoomEndpoint(t *testing.T) {
	a, store := newTestAPI(t)
	store.CreateRoom("room-1")
	store.AddStroke("room-1", board.Stroke{ID: "s1", Points: []board.Point{{X: 0, Y: 0}}})

	rec := doRequest(t, a, http.MethodDelete, "/api/rooms/room-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	// The clear routes through the hub's event loop.
	deadline := time.Now().Add(time.Second)
	for store.StrokeCount("room-1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected the room to be cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !store.HasRoom("room-1") {
		t.Error("Clearing should keep the room")
	}
}

func TestSnapshotReturnsPNG(t *testing.T) {
	a, store := newTestAPI(t)
	store.CreateRoom("room-1")
	store.AddStroke("room-1", board.Stroke{
		ID:     "s1",
		Color:  "#ff0000",
		Width:  2,
		Points: []board.Point{{X: 0, Y: 0}, {X: 10, Y: 10}},
	})

	rec := doRequest(t, a, http.MethodGet, "/api/rooms/room-1/snapshot.png", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}

	sig := []byte{0x89, 'P', 'N', 'G'}
	if !bytes.HasPrefix(rec.Body.Bytes(), sig) {
		t.Error("Body should be a PNG")
	}
}

func TestExportReturnsPDF(t *testing.T) {
	a, store := newTestAPI(t)
	store.CreateRoom("room-1")
	store.AddStroke("room-1", board.Stroke{
		ID:     "s1",
		Color:  "#2563eb",
		Width:  2,
		Points: []board.Point{{X: 0, Y: 0}, {X: 10, Y: 10}},
	})

	rec := doRequest(t, a, http.MethodGet, "/api/rooms/room-1/export.pdf", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("Body should be a PDF")
	}
}

func TestCORSPreflight(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := doRequest(t, a, http.MethodOptions, "/api/rooms", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for preflight, got %d", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Expected wildcard origin, got %q", origin)
	}
}
