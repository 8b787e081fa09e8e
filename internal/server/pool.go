package server

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hardstucks/podium/pkg/errors"
)

// Pool bounds the number of concurrently running solves so a burst of large
// requests cannot monopolize the process. Each job additionally runs under a
// deadline; jobs that outlive it are cancelled and surface as TIMEOUT errors.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewPool creates a pool admitting at most workers concurrent jobs, each
// bounded by timeout.
func NewPool(workers int, timeout time.Duration) *Pool {
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
	}
}

// Do runs fn once a worker slot is free. Waiting for a slot counts against
// the job's deadline: slow admission and slow solving are the same failure
// from the caller's point of view.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return p.mapErr(err)
	}
	defer p.sem.Release(1)

	return p.mapErr(fn(ctx))
}

// mapErr converts a deadline expiry, wrapped or not, into the domain timeout
// error and leaves everything else untouched.
func (p *Pool) mapErr(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.New(errors.ErrCodeTimeout,
			"assignment computation exceeded the %s limit", p.timeout)
	}
	return err
}
