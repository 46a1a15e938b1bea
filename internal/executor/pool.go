package executor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Job итерация, которую выполняет воркер.
type Job func(ctx context.Context)

// Pool фиксированный набор воркеров. Задача принимается, только если есть свободный воркер:
// очереди ожидания нет.
type Pool struct {
	numWorkers int
	jobs       chan Job
	idle       chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	active     atomic.Int64

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewPool создаёт пул из numWorkers воркеров.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	idle := make(chan struct{}, numWorkers)
	for range numWorkers {
		idle <- struct{}{}
	}
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numWorkers),
		idle:       idle,
	}
}

// Start запускает воркеров. ctx передаётся в каждую задачу.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.ctx = ctx
	p.started = true

	for range p.numWorkers {
		p.wg.Add(1)
		go p.worker()
	}
	slog.Debug("worker pool started", "workers", p.numWorkers)
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.active.Add(1)
		job(p.ctx)
		p.active.Add(-1)
		p.idle <- struct{}{}
	}
}

// TrySubmit отдаёт задачу свободному воркеру. Возвращает false, если все заняты или пул остановлен.
func (p *Pool) TrySubmit(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started || p.stopped {
		return false
	}
	select {
	case <-p.idle:
		// Свободный слот гарантирует, что буфер jobs не переполнен.
		p.jobs <- job
		return true
	default:
		return false
	}
}

// Stop перестаёт принимать задачи и ждёт завершения уже выполняющихся.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	slog.Debug("worker pool stopped")
}

// NumWorkers возвращает число воркеров.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Active возвращает число воркеров, выполняющих задачу прямо сейчас.
func (p *Pool) Active() int {
	return int(p.active.Load())
}
