package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inkroom-app/inkroom/internal/archive"
	"github.com/inkroom-app/inkroom/internal/board"
	"github.com/inkroom-app/inkroom/internal/configs"
	"github.com/inkroom-app/inkroom/internal/render"
	"github.com/inkroom-app/inkroom/internal/ws"
)

// API exposes the operational REST surface: health, stats, room listing,
// clears, and snapshot/PDF exports of a room's visible strokes.
type API struct {
	hub     *ws.Hub
	store   *board.Store
	archive *archive.Archive // may be nil when archiving is disabled
	cfg     configs.BoardConfig
	log     *zap.SugaredLogger
}

func New(hub *ws.Hub, store *board.Store, arc *archive.Archive, cfg configs.BoardConfig, log *zap.SugaredLogger) *API {
	return &API{
		hub:     hub,
		store:   store,
		archive: arc,
		cfg:     cfg,
		log:     log,
	}
}

// Routes mounts every endpoint on a fresh router.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Get("/health", a.HealthHandler)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", a.StatsHandler)
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", a.ListRoomsHandler)
			r.Post("/", a.CreateRoomHandler)
			r.Route("/{roomID}", func(r chi.Router) {
				r.Get("/", a.GetRoomHandler)
				r.Delete("/", a.ClearRoomHandler)
				r.Get("/snapshot.png", a.SnapshotHandler)
				r.Get("/export.pdf", a.ExportPDFHandler)
			})
		})
	})
	return r
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"active_rooms":   a.hub.RoomCount(),
		"active_clients": a.hub.ClientCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}

	if a.archive != nil {
		archived, err := a.archive.Stats()
		if err == nil {
			stats["archived_rooms"] = archived["room_count"]
			stats["archived_strokes"] = archived["stroke_count"]
			stats["archived_clears"] = archived["clear_count"]
		}
	}

	jsonResponse(w, http.StatusOK, stats)
}

type RoomResponse struct {
	ID           string `json:"id"`
	StrokeCount  int    `json:"stroke_count"`
	VisibleCount int    `json:"visible_count"`
	ActiveUsers  int    `json:"active_users"`
}

type CreateRoomRequest struct {
	ID string `json:"id"`
}

func (a *API) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	active := a.hub.ActiveRooms()

	ids := a.store.RoomIDs()
	response := make([]RoomResponse, 0, len(ids))
	for _, id := range ids {
		response = append(response, RoomResponse{
			ID:           id,
			StrokeCount:  a.store.StrokeCount(id),
			VisibleCount: len(a.store.Visible(id)),
			ActiveUsers:  active[id],
		})
	}

	jsonResponse(w, http.StatusOK, map[string]any{"rooms": response})
}

func (a *API) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" {
		errorResponse(w, http.StatusBadRequest, "Room ID is required")
		return
	}

	a.store.CreateRoom(req.ID)

	jsonResponse(w, http.StatusCreated, RoomResponse{ID: req.ID})
}

func (a *API) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if !a.store.HasRoom(roomID) {
		errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	active := a.hub.ActiveRooms()
	jsonResponse(w, http.StatusOK, map[string]any{
		"id":            roomID,
		"stroke_count":  a.store.StrokeCount(roomID),
		"visible_count": len(a.store.Visible(roomID)),
		"active_users":  active[roomID],
		"members":       a.hub.Members(roomID),
	})
}

// ClearRoomHandler wipes a room's history through the hub so connected
// members get the clear notice. Presence and room identity survive.
func (a *API) ClearRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if !a.store.HasRoom(roomID) {
		errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	a.hub.ClearRoom(roomID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Room cleared"})
}

func (a *API) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if !a.store.HasRoom(roomID) {
		errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	canvas := render.Snapshot(a.store.Visible(roomID), a.cfg.Width, a.cfg.Height, a.cfg.Background)

	w.Header().Set("Content-Type", "image/png")
	if err := canvas.EncodePNG(w); err != nil {
		a.log.Errorf("snapshot for room %s: %v", roomID, err)
	}
}

func (a *API) ExportPDFHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if !a.store.HasRoom(roomID) {
		errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+roomID+".pdf\"")
	err := render.WritePDF(w, a.store.Visible(roomID), float64(a.cfg.Width), float64(a.cfg.Height))
	if err != nil {
		a.log.Errorf("pdf export for room %s: %v", roomID, err)
	}
}
