package archive

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type PrunerConfig struct {
	Interval        time.Duration
	StrokeThreshold int
	KeepRecent      int
}

func DefaultPrunerConfig() PrunerConfig {
	return PrunerConfig{
		Interval:        5 * time.Minute,
		StrokeThreshold: 1000,
		KeepRecent:      500,
	}
}

// Pruner periodically trims each room's archived strokes down to a retention
// bound so the archive does not grow without limit.
type Pruner struct {
	archive *Archive
	config  PrunerConfig
	log     *zap.SugaredLogger
	stop    chan struct{}
	wg      sync.WaitGroup
}

func NewPruner(archive *Archive, config PrunerConfig, log *zap.SugaredLogger) *Pruner {
	return &Pruner{
		archive: archive,
		config:  config,
		log:     log,
		stop:    make(chan struct{}),
	}
}

func (p *Pruner) Start() {
	p.wg.Add(1)
	go p.run()
	p.log.Infof("archive pruner started (interval: %v, threshold: %d strokes)",
		p.config.Interval, p.config.StrokeThreshold)
}

func (p *Pruner) Stop() {
	close(p.stop)
	p.wg.Wait()
	p.log.Infof("archive pruner stopped")
}

func (p *Pruner) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.pruneAll()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.pruneAll()
		}
	}
}

func (p *Pruner) pruneAll() {
	rooms, err := p.archive.ListRooms(1000, 0)
	if err != nil {
		p.log.Errorf("pruner: list rooms: %v", err)
		return
	}

	pruned := 0
	for _, room := range rooms {
		count, err := p.archive.StrokeCount(room.ID)
		if err != nil || count < p.config.StrokeThreshold {
			continue
		}
		if err := p.archive.PruneStrokes(room.ID, p.config.KeepRecent); err != nil {
			p.log.Errorf("pruner: room %s: %v", room.ID, err)
			continue
		}
		pruned++
		p.log.Infof("pruned room %s: %d strokes kept of %d", room.ID, p.config.KeepRecent, count)
	}

	if pruned > 0 {
		p.log.Infof("pruned %d rooms", pruned)
	}
}
