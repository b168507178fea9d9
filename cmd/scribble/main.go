package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/inkroom-app/inkroom/internal/board"
	"github.com/inkroom-app/inkroom/internal/client"
)

// scribble is a headless drawing client. It joins a room, draws a scripted
// stroke or two, optionally undoes the last one, and saves what the board
// looks like as a PNG. Handy for smoke-testing a server and for generating
// room activity during development.
func main() {
	var (
		addr    = flag.String("addr", "ws://localhost:8080/ws", "server websocket URL")
		room    = flag.String("room", "demo", "room to join")
		name    = flag.String("name", "scribble", "user name")
		color   = flag.String("color", "#2563eb", "stroke color")
		width   = flag.Float64("width", 4, "stroke width")
		undo    = flag.Bool("undo", false, "undo the last stroke before saving")
		out     = flag.String("out", "board.png", "output PNG path")
		linger  = flag.Duration("linger", 500*time.Millisecond, "how long to wait for server echoes")
		timeout = flag.Duration("timeout", 10*time.Second, "overall deadline")
	)
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	if err := run(logger, *addr, *room, *name, *color, *width, *undo, *out, *linger, *timeout); err != nil {
		logger.Fatalf("scribble: %v", err)
	}
}

func run(logger *zap.SugaredLogger, addr, room, name, color string, width float64, undo bool, out string, linger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sock, err := client.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer sock.Close()

	b := client.NewBoard(sock, client.Config{
		Width:      1920,
		Height:     1080,
		Background: "#ffffff",
		UserName:   name,
	}, logger)

	listenDone := make(chan error, 1)
	go func() {
		listenDone <- b.Join(ctx, room, name)
	}()
	logger.Infof("joined room %s as %s", room, name)

	// Give the join sync a moment to land before drawing over it.
	time.Sleep(linger)

	b.SetColor(color)
	b.SetWidth(width)

	drawWave(b, 200, 540, 1500, 80)
	logger.Infof("drew a stroke")

	if undo {
		time.Sleep(linger)
		if err := b.Undo(); err != nil {
			return fmt.Errorf("undo: %w", err)
		}
		logger.Infof("undid the last stroke")
	}

	// Let any resync or remote traffic arrive before capturing.
	select {
	case err := <-listenDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-time.After(linger):
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := b.SavePNG(f); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	logger.Infof("saved board to %s", out)
	return nil
}

// drawWave feeds the board a sine wave as pointer events, roughly the cadence
// a trackpad would produce.
func drawWave(b *client.Board, x0, y0, length, amplitude float64) {
	const samples = 60

	now := time.Now().UnixMilli()
	point := func(i int) board.Point {
		t := float64(i) / samples
		return board.Point{
			X: x0 + t*length,
			Y: y0 + amplitude*math.Sin(t*4*math.Pi),
			T: now + int64(i)*4,
		}
	}

	b.PointerDown(point(0))
	for i := 1; i < samples; i++ {
		b.PointerMove(point(i))
	}
	b.PointerUp()
}
