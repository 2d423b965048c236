// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package supervisor runs the server's background work under a suture tree.

Layout:

  - index: one periodic rebuild per media kind.
  - gate: blacklist refresh and reputation sweep.

A panicking or failing service is restarted with backoff; its siblings keep
running. Supervisor events are logged through sutureslog.
*/
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/taibuivan/mediavault/internal/platform/constants"
)

// TreeConfig holds supervisor restart parameters.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// Tree is the root supervisor and its two layers.
type Tree struct {
	root  *suture.Supervisor
	index *suture.Supervisor
	gate  *suture.Supervisor
}

// NewTree creates the supervisor tree, applying defaults for zero values.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	// MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}

	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New(constants.AppName, rootSpec)
	index := suture.New("index-layer", childSpec)
	gate := suture.New("gate-layer", childSpec)

	root.Add(index)
	root.Add(gate)

	return &Tree{root: root, index: index, gate: gate}
}

// AddIndexService adds a service to the index layer.
func (tree *Tree) AddIndexService(service suture.Service) suture.ServiceToken {
	return tree.index.Add(service)
}

// AddGateService adds a service to the gate layer.
func (tree *Tree) AddGateService(service suture.Service) suture.ServiceToken {
	return tree.gate.Add(service)
}

// ServeBackground starts the tree and returns a channel that receives its
// final error once ctx is cancelled.
func (tree *Tree) ServeBackground(ctx context.Context) <-chan error {
	return tree.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that ignored the shutdown timeout.
func (tree *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return tree.root.UnstoppedServiceReport()
}
