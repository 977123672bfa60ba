package enrich

import (
	"context"
	"log/slog"
	"sync"

	"zxmeta/internal/logging"
	"zxmeta/internal/record"
	"zxmeta/internal/scan"
)

type job struct {
	game     scan.Game
	existing record.Record
}

// Outcome is the final state of one game.
type Outcome struct {
	Game     scan.Game
	State    State
	Record   record.Record
	CacheHit bool
	Err      error
}

// pool is a fixed set of workers reading jobs from one channel and writing
// outcomes to another.
type pool struct {
	workers int
	jobs    chan job
	results chan Outcome
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	process func(context.Context, job) Outcome
}

func newPool(ctx context.Context, workers int, logger *slog.Logger, process func(context.Context, job) Outcome) *pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &pool{
		workers: workers,
		jobs:    make(chan job, workers*2),
		results: make(chan Outcome, workers*2),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		process: process,
	}
}

func (p *pool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// submit blocks while the job buffer is full. It returns false once the pool
// context is done.
func (p *pool) submit(j job) bool {
	select {
	case p.jobs <- j:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// shutdown stops accepting jobs, waits for the workers, and closes results.
func (p *pool) shutdown() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
	p.cancel()
}

func (p *pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			p.results <- p.process(p.ctx, j)
		case <-p.ctx.Done():
			p.logger.Debug("worker cancelled", logging.Int("worker_id", id))
			for range p.jobs {
			}
			return
		}
	}
}
