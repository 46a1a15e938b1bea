// Package executor запускает итерации с постоянной частотой прибытия (constant arrival rate).
//
// Каждые TimeUnit/Rate исполнитель пытается отдать итерацию свободному воркеру.
// Если свободных нет, итерация отбрасывается и учитывается как dropped, а не ставится в очередь.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/AlekseyZapadovnikov/pr-loadgen/conf"
)

// Config параметры нагрузки.
type Config struct {
	Rate     float64
	TimeUnit time.Duration
	Duration time.Duration
	Workers  int
}

// ConfigFromLoad переносит секцию load конфигурации.
func ConfigFromLoad(c conf.LoadConf) Config {
	return Config{
		Rate:     c.Rate,
		TimeUnit: c.TimeUnit.Std(),
		Duration: c.Duration.Std(),
		Workers:  c.Workers,
	}
}

// Interval промежуток между запусками итераций.
func (c Config) Interval() time.Duration {
	return time.Duration(float64(c.TimeUnit) / c.Rate)
}

func (c Config) validate() error {
	var errs []error
	if c.Rate <= 0 {
		errs = append(errs, fmt.Errorf("rate must be positive, got %v", c.Rate))
	}
	if c.TimeUnit <= 0 {
		errs = append(errs, fmt.Errorf("time unit must be positive, got %s", c.TimeUnit))
	}
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %s", c.Duration))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if c.Interval() <= 0 {
		return fmt.Errorf("rate %v per %s is too high", c.Rate, c.TimeUnit)
	}
	return nil
}

// DropRecorder получает уведомления об отброшенных итерациях.
type DropRecorder interface {
	RecordDropped()
}

// Result итог прогона.
type Result struct {
	Started     uint64
	Dropped     uint64
	Elapsed     time.Duration
	Interrupted bool
}

// Executor исполнитель с постоянной частотой прибытия.
type Executor struct {
	cfg   Config
	drops DropRecorder
	pool  *Pool

	started atomic.Uint64
	dropped atomic.Uint64
}

// New проверяет конфигурацию и создаёт исполнителя. drops может быть nil.
func New(cfg Config, drops DropRecorder) (*Executor, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid executor config: %w", err)
	}
	return &Executor{
		cfg:   cfg,
		drops: drops,
		pool:  NewPool(cfg.Workers),
	}, nil
}

// Run запускает итерации до истечения Duration или отмены ctx, затем ждёт завершения начатых.
// Начатые итерации получают ctx и прерываются вместе с ним.
func (e *Executor) Run(ctx context.Context, iteration Job) Result {
	interval := e.cfg.Interval()
	slog.Info("executor started",
		"rate", e.cfg.Rate,
		"time_unit", e.cfg.TimeUnit,
		"duration", e.cfg.Duration,
		"workers", e.cfg.Workers,
		"interval", interval,
	)

	start := time.Now()
	e.pool.Start(ctx)

	deadline := time.NewTimer(e.cfg.Duration)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	interrupted := false
	e.emit(iteration)
loop:
	for {
		select {
		case <-ctx.Done():
			interrupted = true
			break loop
		case <-deadline.C:
			break loop
		case <-ticker.C:
			e.emit(iteration)
		}
	}

	e.pool.Stop()
	res := Result{
		Started:     e.started.Load(),
		Dropped:     e.dropped.Load(),
		Elapsed:     time.Since(start),
		Interrupted: interrupted,
	}
	slog.Info("executor finished",
		"started", res.Started,
		"dropped", res.Dropped,
		"elapsed", res.Elapsed,
		"interrupted", res.Interrupted,
	)
	return res
}

func (e *Executor) emit(iteration Job) {
	if e.pool.TrySubmit(iteration) {
		e.started.Add(1)
		return
	}
	e.dropped.Add(1)
	if e.drops != nil {
		e.drops.RecordDropped()
	}
}

// ActiveWorkers число воркеров, занятых итерацией.
func (e *Executor) ActiveWorkers() int {
	return e.pool.Active()
}
