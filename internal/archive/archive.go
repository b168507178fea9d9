package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/inkroom-app/inkroom/internal/board"
)

// Archive is a write-behind sqlite record of finished strokes and board
// clears. It exists for exports and stats; the live engine never reads it
// back into room state, so a restart starts every room empty.
type Archive struct {
	db  *sql.DB
	log *zap.SugaredLogger

	queue chan func()
	wg    sync.WaitGroup
	stop  chan struct{}
}

type Room struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(dbPath string, log *zap.SugaredLogger) (*Archive, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	a := &Archive{
		db:    db,
		log:   log,
		queue: make(chan func(), 1024),
		stop:  make(chan struct{}),
	}
	a.wg.Add(1)
	go a.worker()

	log.Infof("archive initialized at %s", dbPath)
	return a, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS strokes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		stroke_id TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		width REAL NOT NULL DEFAULT 0,
		composite TEXT NOT NULL DEFAULT '',
		point_count INTEGER NOT NULL DEFAULT 0,
		points BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_strokes_room_id ON strokes(room_id);

	CREATE TABLE IF NOT EXISTS clears (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(schema)
	return err
}

func (a *Archive) Close() error {
	close(a.stop)
	a.wg.Wait()
	return a.db.Close()
}

func (a *Archive) worker() {
	defer a.wg.Done()
	for {
		select {
		case job := <-a.queue:
			job()
		case <-a.stop:
			// Drain whatever is already queued before shutting down.
			for {
				select {
				case job := <-a.queue:
					job()
				default:
					return
				}
			}
		}
	}
}

// enqueue never blocks the caller; the hub loop must not wait on disk.
func (a *Archive) enqueue(job func()) {
	select {
	case a.queue <- job:
	default:
		a.log.Warnf("archive queue full, dropping record")
	}
}

// RecordStroke archives a finished stroke. Implements ws.Recorder.
func (a *Archive) RecordStroke(roomID string, stroke board.Stroke) {
	a.enqueue(func() {
		if err := a.saveStroke(roomID, stroke); err != nil {
			a.log.Errorf("archive stroke %s in room %s: %v", stroke.ID, roomID, err)
		}
	})
}

// RecordClear archives a board clear and drops the room's archived strokes,
// mirroring the live board. Implements ws.Recorder.
func (a *Archive) RecordClear(roomID string) {
	a.enqueue(func() {
		if err := a.saveClear(roomID); err != nil {
			a.log.Errorf("archive clear for room %s: %v", roomID, err)
		}
	})
}

func (a *Archive) saveStroke(roomID string, stroke board.Stroke) error {
	if err := a.upsertRoom(roomID); err != nil {
		return err
	}

	points, err := json.Marshal(stroke.Points)
	if err != nil {
		return fmt.Errorf("marshal points: %w", err)
	}

	_, err = a.db.Exec(`
		INSERT INTO strokes (room_id, stroke_id, user_id, color, width, composite, point_count, points)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, roomID, stroke.ID, stroke.UserID, stroke.Color, stroke.Width, string(stroke.Composite), len(stroke.Points), points)
	if err != nil {
		return err
	}

	return a.touchRoom(roomID)
}

func (a *Archive) saveClear(roomID string) error {
	if err := a.upsertRoom(roomID); err != nil {
		return err
	}
	if _, err := a.db.Exec("DELETE FROM strokes WHERE room_id = ?", roomID); err != nil {
		return err
	}
	if _, err := a.db.Exec("INSERT INTO clears (room_id) VALUES (?)", roomID); err != nil {
		return err
	}
	return a.touchRoom(roomID)
}

func (a *Archive) upsertRoom(roomID string) error {
	_, err := a.db.Exec("INSERT OR IGNORE INTO rooms (id) VALUES (?)", roomID)
	return err
}

func (a *Archive) touchRoom(roomID string) error {
	_, err := a.db.Exec("UPDATE rooms SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", roomID)
	return err
}

// Flush waits until all queued records have been written. Test helper and
// shutdown aid.
func (a *Archive) Flush() {
	done := make(chan struct{})
	a.queue <- func() { close(done) }
	<-done
}

// Read-side queries, used by the API and the pruner.

func (a *Archive) ListRooms(limit, offset int) ([]Room, error) {
	rows, err := a.db.Query(
		"SELECT id, created_at, updated_at FROM rooms ORDER BY updated_at DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (a *Archive) StrokeCount(roomID string) (int, error) {
	var count int
	err := a.db.QueryRow(
		"SELECT COUNT(*) FROM strokes WHERE room_id = ?",
		roomID,
	).Scan(&count)
	return count, err
}

// PruneStrokes deletes a room's archived strokes beyond the most recent
// keepCount.
func (a *Archive) PruneStrokes(roomID string, keepCount int) error {
	_, err := a.db.Exec(`
		DELETE FROM strokes
		WHERE room_id = ? AND id NOT IN (
			SELECT id FROM strokes
			WHERE room_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
	`, roomID, roomID, keepCount)
	return err
}

// Stats reports archive-wide totals.
func (a *Archive) Stats() (map[string]any, error) {
	stats := make(map[string]any)

	var roomCount int
	if err := a.db.QueryRow("SELECT COUNT(*) FROM rooms").Scan(&roomCount); err != nil {
		return nil, err
	}
	stats["room_count"] = roomCount

	var strokeCount int
	if err := a.db.QueryRow("SELECT COUNT(*) FROM strokes").Scan(&strokeCount); err != nil {
		return nil, err
	}
	stats["stroke_count"] = strokeCount

	var clearCount int
	if err := a.db.QueryRow("SELECT COUNT(*) FROM clears").Scan(&clearCount); err != nil {
		return nil, err
	}
	stats["clear_count"] = clearCount

	return stats, nil
}
