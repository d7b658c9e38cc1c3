// Copyright 2021 Compass Systems
// SPDX-License-Identifier: LGPL-3.0-only

package core

import (
	"context"
	"sync"
	"time"

	"github.com/ChainSafe/log15"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/mapprotocol/checkin/internal/constant"
)

// ErrStopped is returned by Scheduler.Run after an attempt reported a fatal outcome.
var ErrStopped = errors.New("scheduler stopped")

type State int

const (
	StateIdle State = iota
	StateRunning
	StateWaiting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Clock is the time source of the scheduler.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type SchedulerOption func(*Scheduler)

func WithWindow(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.window = d }
}

func WithSafetyWait(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.safetyWait = d }
}

// WithProgressInterval sets how often the countdown line is logged while waiting.
func WithProgressInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.progress = d }
}

// WithAttemptTimeout bounds each attempt. Zero disables the bound.
func WithAttemptTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.attemptTimeout = d }
}

func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// ScheduleFunc builds the schedule that places the next attempt after one with the given last check-in.
type ScheduleFunc func(lastCheckin *time.Time) cron.Schedule

// WithSchedule replaces the default CheckinSchedule.
func WithSchedule(fn ScheduleFunc) SchedulerOption {
	return func(s *Scheduler) { s.schedule = fn }
}

// WithStateHook registers fn to be called on every state transition.
func WithStateHook(fn func(State)) SchedulerOption {
	return func(s *Scheduler) { s.hooks = append(s.hooks, fn) }
}

// Scheduler runs attempts back to back, waiting between them until the next check-in is eligible.
type Scheduler struct {
	attempt        Attempt
	window         time.Duration
	safetyWait     time.Duration
	progress       time.Duration
	attemptTimeout time.Duration
	clock          Clock
	schedule       ScheduleFunc
	hooks          []func(State)
	log            log15.Logger

	mu    sync.RWMutex
	state State
	next  time.Time
}

func NewScheduler(attempt Attempt, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		attempt:        attempt,
		window:         constant.CheckinWindow,
		safetyWait:     constant.SafetyWait,
		progress:       constant.CountdownInterval,
		attemptTimeout: constant.AttemptTimeout,
		clock:          realClock{},
		log:            log15.New("system", "scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.progress <= 0 {
		s.progress = constant.CountdownInterval
	}
	if s.schedule == nil {
		s.schedule = s.checkinSchedule
	}
	return s
}

func (s *Scheduler) checkinSchedule(lastCheckin *time.Time) cron.Schedule {
	return CheckinSchedule{Window: s.window, SafetyWait: s.safetyWait, LastCheckin: lastCheckin}
}

func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// NextEligibleAt is the time the next attempt starts. Zero before Run.
func (s *Scheduler) NextEligibleAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.next
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	for _, fn := range s.hooks {
		fn(state)
	}
}

func (s *Scheduler) setNext(t time.Time) {
	s.mu.Lock()
	s.next = t
	s.mu.Unlock()
}

// Run attempts immediately, then keeps attempting after each computed wait.
// It returns ctx.Err() when ctx is done and wraps ErrStopped after a fatal outcome.
func (s *Scheduler) Run(ctx context.Context) error {
	s.setNext(s.clock.Now())
	for {
		s.setState(StateRunning)
		out := s.runAttempt(ctx)
		if err := ctx.Err(); err != nil {
			s.setState(StateStopped)
			return err
		}
		if out.Fatal {
			s.log.Error("Attempt failed fatally, stopping", "err", out.Err)
			s.setState(StateStopped)
			if out.Err != nil {
				return errors.Wrap(ErrStopped, out.Err.Error())
			}
			return ErrStopped
		}

		now := s.clock.Now()
		next := s.schedule(out.LastCheckin).Next(now)
		if !next.After(now) {
			next = now.Add(s.safetyWait)
		}
		s.setNext(next)
		if out.Succeeded {
			s.log.Info("Check-in done", "next", next.Format(time.RFC3339))
		} else {
			s.log.Warn("Check-in not completed this cycle", "next", next.Format(time.RFC3339), "err", out.Err)
		}

		s.setState(StateWaiting)
		if err := s.wait(ctx, next); err != nil {
			s.setState(StateStopped)
			return err
		}
	}
}

func (s *Scheduler) runAttempt(ctx context.Context) Outcome {
	if s.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.attemptTimeout)
		defer cancel()
	}
	return s.attempt.Attempt(ctx)
}

// wait blocks until the clock reaches until, logging the remaining time every progress interval.
func (s *Scheduler) wait(ctx context.Context, until time.Time) error {
	s.log.Info("Waiting for next check-in", "at", until.Format(time.RFC3339), "remaining", Countdown(until.Sub(s.clock.Now())))
	for {
		remaining := until.Sub(s.clock.Now())
		if remaining <= 0 {
			return nil
		}
		s.log.Debug("Next check-in countdown", "remaining", Countdown(remaining))
		step := s.progress
		if remaining < step {
			step = remaining
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(step):
		}
	}
}
