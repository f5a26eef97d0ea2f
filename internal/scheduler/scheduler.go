// internal/scheduler/scheduler.go

// Package scheduler drives the reminder engine on a clock: a daily sweep, a
// coarse backup sweep, and the daily digest run.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"opportune-notifier/internal/common/config"
	apperrors "opportune-notifier/internal/common/errors"
	"opportune-notifier/internal/common/logger"
	"opportune-notifier/internal/notify"
)

// Scheduler owns the background goroutines that trigger sweeps and digests.
// With a SweepLock configured, only one instance in a deployment runs each
// scheduled sweep; without one, the coordinator's in-process guard is the
// only protection.
type Scheduler struct {
	coordinator *notify.Coordinator
	lock        *SweepLock
	cfg         config.NotificationConfig
	log         logger.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
	clock  func() time.Time
}

func New(coordinator *notify.Coordinator, lock *SweepLock, cfg config.NotificationConfig, log logger.Logger) *Scheduler {
	return &Scheduler{
		coordinator: coordinator,
		lock:        lock,
		cfg:         cfg,
		log:         log,
		stopCh:      make(chan struct{}),
		clock:       time.Now,
	}
}

// Start launches the schedule goroutines and returns immediately.
func (s *Scheduler) Start() {
	s.log.Info("Scheduler started", map[string]interface{}{
		"sweepTime":      s.cfg.SweepTime,
		"backupInterval": s.cfg.BackupInterval().String(),
		"digestTime":     s.cfg.DigestTime,
	})

	s.wg.Add(3)
	go s.runDaily(s.cfg.SweepTime, func(ctx context.Context) { s.sweep(ctx, "scheduled") })
	go s.runEvery(s.cfg.BackupInterval(), func(ctx context.Context) { s.sweep(ctx, "backup") })
	go s.runDaily(s.cfg.DigestTime, s.digest)
}

// Stop halts the schedule and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.log.Info("Scheduler stopped", nil)
}

// runDaily fires at the given HH:MM wall-clock time, every day.
func (s *Scheduler) runDaily(at string, fn func(ctx context.Context)) {
	defer s.wg.Done()

	for {
		now := s.clock()
		next, err := nextRun(now, at)
		if err != nil {
			s.log.WithError(err).Error("Invalid schedule time, daily job disabled", map[string]interface{}{"at": at})
			return
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			fn(context.Background())
		}
	}
}

func (s *Scheduler) runEvery(interval time.Duration, fn func(ctx context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			fn(context.Background())
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context, trigger string) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx)
		if err != nil {
			s.log.WithError(err).Error("Failed to acquire sweep lease", map[string]interface{}{"trigger": trigger})
			return
		}
		if !acquired {
			s.log.Info("Sweep lease held elsewhere, skipping", map[string]interface{}{"trigger": trigger})
			return
		}
		defer func() {
			if err := s.lock.Release(ctx); err != nil {
				s.log.WithError(err).Warn("Failed to release sweep lease", nil)
			}
		}()
	}

	if _, err := s.coordinator.RunSweep(ctx, trigger); err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeSweepInProgress) {
			s.log.Info("Sweep already in progress, skipping", map[string]interface{}{"trigger": trigger})
			return
		}
		s.log.WithError(err).Error("Scheduled sweep failed", map[string]interface{}{"trigger": trigger})
	}
}

func (s *Scheduler) digest(ctx context.Context) {
	if _, err := s.coordinator.RunDigest(ctx); err != nil {
		s.log.WithError(err).Error("Scheduled digest failed", nil)
	}
}

// nextRun returns the next instant the HH:MM wall-clock time occurs strictly
// after now.
func nextRun(now time.Time, at string) (time.Time, error) {
	parts := strings.SplitN(at, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("schedule time must be HH:MM, got %q", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("schedule time must be HH:MM, got %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("schedule time must be HH:MM, got %q", at)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
