package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/metrics"
	"github.com/Freeeeeet/lesson_market/internal/observability"
	"github.com/Freeeeeet/lesson_market/internal/service"
	"go.uber.org/zap"
)

const unusedSubscriptionsJob = "unused_subscriptions"

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	inactivityService *service.InactivityService
	interval          time.Duration
	logger            *zap.Logger
	stopChan          chan struct{}
	done              chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(inactivityService *service.InactivityService, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		inactivityService: inactivityService,
		interval:          interval,
		logger:            logger,
		stopChan:          make(chan struct{}),
		done:              make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runUnusedSubscriptionsTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт текущий прогон
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

// runUnusedSubscriptionsTask периодически ищет простаивающие абонементы
func (s *Scheduler) runUnusedSubscriptionsTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.runJob(ctx, unusedSubscriptionsJob, s.notifyUnused)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runJob(ctx, unusedSubscriptionsJob, s.notifyUnused)
		case <-s.stopChan:
			s.logger.Info("Unused subscriptions task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Unused subscriptions task cancelled")
			return
		}
	}
}

func (s *Scheduler) notifyUnused(ctx context.Context) error {
	sent, err := s.inactivityService.NotifyUnused(ctx, time.Now())
	if sent > 0 {
		s.logger.Info("Unused subscription reminders sent", zap.Int("count", sent))
	}
	return err
}

// runJob выполняет задачу с метриками, паника не роняет планировщик
func (s *Scheduler) runJob(ctx context.Context, name string, fn func(ctx context.Context) error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in job %s: %v", name, r)
			metrics.JobErrors.WithLabelValues(name).Inc()
			observability.CaptureErr(err)
			s.logger.Error("Background job panicked", zap.String("job", name), zap.Error(err))
		}
		metrics.JobRuns.WithLabelValues(name).Inc()
		metrics.JobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	if err := fn(ctx); err != nil {
		metrics.JobErrors.WithLabelValues(name).Inc()
		observability.CaptureErr(err)
		s.logger.Error("Background job failed", zap.String("job", name), zap.Error(err))
	}
}
