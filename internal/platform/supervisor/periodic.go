// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package supervisor

import (
	"context"
	"log/slog"
	"time"
)

// Task is one cycle of periodic work.
type Task func(ctx context.Context) error

// Periodic runs a [Task] on a fixed interval as a suture service.
//
// A failing cycle is logged and the next one runs on schedule. The first
// cycle runs one interval after Serve starts, since startup already did the
// synchronous work.
type Periodic struct {
	name     string
	interval time.Duration
	task     Task
	logger   *slog.Logger
}

// NewPeriodic creates a periodic service.
func NewPeriodic(name string, interval time.Duration, task Task, logger *slog.Logger) *Periodic {
	return &Periodic{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.With(slog.String("task", name)),
	}
}

// Serve implements suture.Service.
func (periodic *Periodic) Serve(ctx context.Context) error {
	ticker := time.NewTicker(periodic.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := periodic.task(ctx); err != nil && ctx.Err() == nil {
				periodic.logger.Error("periodic_task_failed", slog.Any("error", err))
			}
		}
	}
}

// String names the service in supervisor events.
func (periodic *Periodic) String() string {
	return periodic.name
}
