package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/inkroom-app/inkroom/internal/api"
	"github.com/inkroom-app/inkroom/internal/archive"
	"github.com/inkroom-app/inkroom/internal/board"
	"github.com/inkroom-app/inkroom/internal/configs"
	"github.com/inkroom-app/inkroom/internal/ratelimit"
	"github.com/inkroom-app/inkroom/internal/ws"
)

func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	cfg, err := configs.Load(configs.DetermineConfigPath())
	if err != nil {
		logger.Fatal(err)
	}

	store := board.NewStore()
	limiters := ratelimit.NewRegistry(cfg.RateLimit.MessagesPerSecond, cfg.RateLimit.Burst)

	var recorder ws.Recorder
	var arc *archive.Archive
	var pruner *archive.Pruner
	if cfg.Archive.Path != "" {
		arc, err = archive.New(cfg.Archive.Path, logger)
		if err != nil {
			logger.Fatalf("failed to initialize archive: %v", err)
		}
		recorder = arc

		pruner = archive.NewPruner(arc, archive.PrunerConfig{
			Interval:        cfg.Archive.PruneInterval,
			StrokeThreshold: cfg.Archive.StrokeThreshold,
			KeepRecent:      cfg.Archive.KeepRecent,
		}, logger)
		pruner.Start()
	}

	hub := ws.NewHub(store, recorder, limiters, logger)
	go hub.Run()

	router := api.New(hub, store, arc, cfg.Board, logger).Routes()
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Infof("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)

		if pruner != nil {
			pruner.Stop()
		}
		if arc != nil {
			arc.Close()
		}
		limiters.Stop()
	}()

	logger.Infof("inkroom server starting on %s", cfg.Server.Addr)
	logger.Infof("endpoints:")
	logger.Infof("  - WebSocket: /ws")
	logger.Infof("  - Health:    GET /health")
	logger.Infof("  - Stats:     GET /api/stats")
	logger.Infof("  - Rooms:     GET/POST /api/rooms")
	logger.Infof("  - Room:      GET/DELETE /api/rooms/{id}")
	logger.Infof("  - Snapshot:  GET /api/rooms/{id}/snapshot.png")
	logger.Infof("  - Export:    GET /api/rooms/{id}/export.pdf")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}
