package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/transcribe-worker/component"
	"github.com/kbukum/transcribe-worker/errors"
	"github.com/kbukum/transcribe-worker/job"
	"github.com/kbukum/transcribe-worker/logger"
	"github.com/kbukum/transcribe-worker/resilience"
)

// Processor runs one job. *Worker implements it.
type Processor interface {
	Process(ctx context.Context, a job.Assignment) error
}

// Pool runs jobs in the background, at most MaxConcurrent at a time.
type Pool struct {
	proc     Processor
	bulkhead *resilience.Bulkhead
	log      *logger.Logger

	// base is canceled only when Stop gives up waiting.
	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a Pool around proc.
func NewPool(proc Processor, cfg PoolConfig, log *logger.Logger) *Pool {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("worker-pool")
	base, cancel := context.WithCancel(context.Background())
	return &Pool{
		proc: proc,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "jobs",
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.MaxWait,
			OnReject: func(string) {
				log.Warn("job rejected, pool is full", logger.Fields("max_concurrent", cfg.MaxConcurrent))
			},
		}),
		log:    log,
		base:   base,
		cancel: cancel,
	}
}

// Submit starts a on a free slot and returns without waiting for it. When
// no slot frees up in time the job is failed with a service-unavailable
// problem and the same error is returned.
func (p *Pool) Submit(ctx context.Context, a job.Assignment) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return p.reject(ctx, a, fmt.Errorf("pool is shutting down"))
	}
	p.wg.Add(1)
	p.mu.Unlock()

	release, err := p.bulkhead.Acquire(ctx)
	if err != nil {
		p.wg.Done()
		return p.reject(ctx, a, err)
	}

	// The job keeps the caller's values but not its cancellation; only
	// the pool may cancel it.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(p.base, cancel)

	go func() {
		defer p.wg.Done()
		defer release()
		defer cancel()
		defer stop()
		_ = p.proc.Process(jobCtx, a)
	}()
	return nil
}

func (p *Pool) reject(ctx context.Context, a job.Assignment, cause error) error {
	appErr := errors.ServiceUnavailable("worker pool").WithCause(cause)
	if err := a.Fail(context.WithoutCancel(ctx), ProblemFor(appErr)); err != nil {
		p.log.WithContext(ctx).Error("failed to report rejected job", logger.ErrorFields("fail", err))
	}
	return appErr
}

// InUse returns the number of running jobs.
func (p *Pool) InUse() int { return p.bulkhead.InUse() }

// Name implements component.Component.
func (p *Pool) Name() string { return "worker-pool" }

// Start implements component.Component.
func (p *Pool) Start(_ context.Context) error { return nil }

// Stop refuses new jobs and waits for running ones. If ctx ends first the
// running jobs are canceled, which still lets them clean up and report.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
	}

	p.log.Warn("canceling running jobs", logger.Fields("in_use", p.bulkhead.InUse()))
	p.cancel()
	<-done
	return nil
}

// Health implements component.Component.
func (p *Pool) Health(_ context.Context) component.Health {
	h := component.Health{
		Name:    p.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d/%d jobs running", p.bulkhead.InUse(), p.bulkhead.MaxConcurrent()),
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	switch {
	case closed:
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	case p.bulkhead.Available() == 0:
		h.Status = component.StatusDegraded
	}
	return h
}

// Describe implements component.Describable.
func (p *Pool) Describe() component.Description {
	return component.Description{
		Name:    "Worker Pool",
		Type:    "workers",
		Details: fmt.Sprintf("max_concurrent=%d", p.bulkhead.MaxConcurrent()),
	}
}

var (
	_ component.Component   = (*Pool)(nil)
	_ component.Describable = (*Pool)(nil)
)
