package expiry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"
)

// TemporalScheduler starts one SeatHoldExpiryWorkflow per pending booking.
type TemporalScheduler struct {
	client    client.Client
	taskQueue string
	log       *zap.Logger
}

func NewTemporalScheduler(c client.Client, taskQueue string, log *zap.Logger) *TemporalScheduler {
	return &TemporalScheduler{
		client:    c,
		taskQueue: taskQueue,
		log:       log.With(zap.String("component", "expiry")),
	}
}

func (s *TemporalScheduler) ScheduleExpiry(ctx context.Context, bookingID uuid.UUID, at time.Time) error {
	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(bookingID),
		TaskQueue: s.taskQueue,
	}
	run, err := s.client.ExecuteWorkflow(ctx, opts, WorkflowName, HoldInput{
		BookingID: bookingID.String(),
		ExpiresAt: at,
	})
	if err != nil {
		return fmt.Errorf("start hold workflow for %s: %w", bookingID, err)
	}

	s.log.Debug("Hold expiry scheduled",
		zap.String("booking_id", bookingID.String()),
		zap.String("run_id", run.GetRunID()),
		zap.Time("expires_at", at),
	)
	return nil
}

func (s *TemporalScheduler) Settled(ctx context.Context, bookingID uuid.UUID) error {
	err := s.client.SignalWorkflow(ctx, WorkflowID(bookingID), "", SignalSettled, SettledSignal{BookingID: bookingID.String()})
	if err != nil {
		return fmt.Errorf("signal hold workflow for %s: %w", bookingID, err)
	}
	return nil
}

// NewWorker registers the hold workflow and its activity on taskQueue.
func NewWorker(c client.Client, taskQueue string, expirer Expirer, log *zap.Logger) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(SeatHoldExpiryWorkflow, workflow.RegisterOptions{Name: WorkflowName})

	acts := NewActivities(expirer, log)
	w.RegisterActivityWithOptions(acts.ExpireHold, activity.RegisterOptions{Name: ActivityName})
	return w
}

// Dial connects to Temporal, logging through zap.
func Dial(cfg utils.TemporalConfig, log *zap.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Host,
		Namespace: cfg.Namespace,
		Logger:    zapAdapter{log.Sugar().With("component", "temporal")},
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal %s: %w", cfg.Host, err)
	}
	return c, nil
}

type zapAdapter struct {
	s *zap.SugaredLogger
}

func (z zapAdapter) Debug(msg string, keyvals ...interface{}) { z.s.Debugw(msg, keyvals...) }
func (z zapAdapter) Info(msg string, keyvals ...interface{})  { z.s.Infow(msg, keyvals...) }
func (z zapAdapter) Warn(msg string, keyvals ...interface{})  { z.s.Warnw(msg, keyvals...) }
func (z zapAdapter) Error(msg string, keyvals ...interface{}) { z.s.Errorw(msg, keyvals...) }

// LocalScheduler keeps hold timers in process memory. Holds scheduled
// before a restart are not recovered.
type LocalScheduler struct {
	mu      sync.Mutex
	timers  map[uuid.UUID]*time.Timer
	expirer Expirer
	timeout time.Duration
	log     *zap.Logger
}

func NewLocalScheduler(expirer Expirer, log *zap.Logger) *LocalScheduler {
	return &LocalScheduler{
		timers:  make(map[uuid.UUID]*time.Timer),
		expirer: expirer,
		timeout: 30 * time.Second,
		log:     log.With(zap.String("component", "expiry")),
	}
}

func (s *LocalScheduler) ScheduleExpiry(_ context.Context, bookingID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[bookingID]; ok {
		t.Stop()
	}
	s.timers[bookingID] = time.AfterFunc(time.Until(at), func() { s.fire(bookingID) })
	return nil
}

func (s *LocalScheduler) Settled(_ context.Context, bookingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[bookingID]; ok {
		t.Stop()
		delete(s.timers, bookingID)
	}
	return nil
}

func (s *LocalScheduler) fire(bookingID uuid.UUID) {
	s.mu.Lock()
	delete(s.timers, bookingID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	expired, err := s.expirer.ExpireBooking(ctx, bookingID)
	if err != nil {
		s.log.Error("Failed to expire seat hold", zap.String("booking_id", bookingID.String()), zap.Error(err))
		return
	}
	s.log.Debug("Hold deadline reached", zap.String("booking_id", bookingID.String()), zap.Bool("expired", expired))
}

// Pending is the number of armed timers.
func (s *LocalScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every timer.
func (s *LocalScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
