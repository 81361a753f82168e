package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/config"
	"github.com/fekuna/omnipos-storefront-service/internal/inventory"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

// MovementRetention is how long inventory ledger rows are kept.
const MovementRetention = 365 * 24 * time.Hour

const reportPageSize = 100

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type Scheduler struct {
	sched     *cron.Cron
	inventory inventory.UseCase
	threshold int
	logger    logger.ZapLogger
	timeout   time.Duration
}

func NewScheduler(cfg config.SchedulerConfig, inv inventory.UseCase, log logger.ZapLogger) (*Scheduler, error) {
	s := &Scheduler{
		inventory: inv,
		threshold: cfg.LowStockThreshold,
		logger:    log,
		timeout:   5 * time.Minute,
	}
	cl := cronLogger{log: log}
	s.sched = cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := s.sched.AddFunc(cfg.LowStockSpec, s.run("low-stock-report", s.LowStockReport)); err != nil {
		return nil, errors.Wrapf(err, "schedule low stock report %q", cfg.LowStockSpec)
	}
	if _, err := s.sched.AddFunc(cfg.MovementRetention, s.run("movement-retention", s.PurgeMovements)); err != nil {
		return nil, errors.Wrapf(err, "schedule movement retention %q", cfg.MovementRetention)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop prevents new runs and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.sched.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) run(name string, job func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Debug("scheduled job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	}
}

// LowStockReport logs every product at or below the low stock threshold.
func (s *Scheduler) LowStockReport(ctx context.Context) error {
	reported := 0
	for page := 1; ; page++ {
		items, total, err := s.inventory.ListLowStock(ctx, s.threshold, page, reportPageSize)
		if err != nil {
			return err
		}
		for _, p := range items {
			s.logger.Warn("low stock",
				zap.String("product_id", p.ID),
				zap.String("name", p.Name),
				zap.Int("stock", p.Stock),
			)
		}
		reported += len(items)
		if len(items) == 0 || reported >= total {
			break
		}
	}
	s.logger.Info("low stock report", zap.Int("products", reported), zap.Int("threshold", s.threshold))
	return nil
}

func (s *Scheduler) PurgeMovements(ctx context.Context) error {
	n, err := s.inventory.PurgeMovements(ctx, MovementRetention)
	if err != nil {
		return err
	}
	s.logger.Info("purged inventory movements", zap.Int64("rows", n))
	return nil
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	log logger.ZapLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, zap.Any("kv", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, zap.Error(err), zap.Any("kv", keysAndValues))
}
