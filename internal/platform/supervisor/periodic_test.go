// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package supervisor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/mediavault/internal/platform/supervisor"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestPeriodic_FailureDoesNotStopSchedule keeps running after failing cycles.
*/
func TestPeriodic_FailureDoesNotStopSchedule(t *testing.T) {
	var runs atomic.Int32
	periodic := supervisor.NewPeriodic("flaky", 5*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("disk unplugged")
	}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- periodic.Serve(ctx) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("periodic service did not stop")
	}
	assert.Equal(t, "flaky", periodic.String())
}

/*
TestTree_RunsServicesUntilCancelled starts both layers and stops cleanly.
*/
func TestTree_RunsServicesUntilCancelled(t *testing.T) {
	tree := supervisor.NewTree(discard(), supervisor.TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})

	var indexRuns, gateRuns atomic.Int32
	tree.AddIndexService(supervisor.NewPeriodic("index", 5*time.Millisecond, func(context.Context) error {
		indexRuns.Add(1)
		return nil
	}, discard()))
	tree.AddGateService(supervisor.NewPeriodic("gate", 5*time.Millisecond, func(context.Context) error {
		gateRuns.Add(1)
		return nil
	}, discard()))

	ctx, cancel := context.WithCancel(context.Background())
	errs := tree.ServeBackground(ctx)

	assert.Eventually(t, func() bool {
		return indexRuns.Load() > 0 && gateRuns.Load() > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-errs:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	require.NoError(t, err)
	assert.Empty(t, report)
}
