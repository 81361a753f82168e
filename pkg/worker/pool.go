package worker

import (
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

// Submitter runs fire-and-forget side effects off the request path.
type Submitter interface {
	Submit(task func()) error
}

type Pool struct {
	pool   *ants.Pool
	logger logger.ZapLogger
}

// NewPool creates a bounded, non-blocking goroutine pool. Panics inside tasks are logged
// and never reach the caller.
func NewPool(size int, log logger.ZapLogger) (*Pool, error) {
	if size <= 0 {
		size = ants.DefaultAntsPoolSize
	}
	p, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(v interface{}) {
			log.Error("worker task panicked", zap.Any("panic", v))
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}
	return &Pool{pool: p, logger: log}, nil
}

func (p *Pool) Submit(task func()) error {
	return errors.Wrap(p.pool.Submit(task), "submit task")
}

// Go submits task and logs when the pool is saturated instead of returning the error.
func Go(s Submitter, log logger.ZapLogger, name string, task func()) {
	if err := s.Submit(task); err != nil {
		log.Warn("dropped background task", zap.String("task", name), zap.Error(err))
	}
}

func (p *Pool) Running() int { return p.pool.Running() }

func (p *Pool) Release() {
	p.pool.Release()
}

// Inline runs tasks synchronously on the caller's goroutine.
type Inline struct{}

func (Inline) Submit(task func()) error {
	task()
	return nil
}
