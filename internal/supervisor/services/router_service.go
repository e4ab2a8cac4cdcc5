// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package services

import (
	"context"
	"errors"
	"fmt"
)

// MessageRouter is the lifecycle of eventprocessor.Router.
type MessageRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterFactory builds a fresh router. A Watermill router cannot be run
// twice, so every restart needs a new one.
type RouterFactory func(ctx context.Context) (MessageRouter, error)

// RouterService runs the trigger router under supervision.
type RouterService struct {
	factory RouterFactory
	name    string
}

// NewRouterService creates the service.
func NewRouterService(factory RouterFactory) *RouterService {
	return &RouterService{factory: factory, name: "trigger-router"}
}

// Serve builds a router, runs it until ctx ends, and closes it.
func (s *RouterService) Serve(ctx context.Context) error {
	router, err := s.factory(ctx)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	runErr := router.Run(ctx)
	closeErr := router.Close()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr == nil {
		runErr = errors.New("router stopped unexpectedly")
	}
	return errors.Join(runErr, closeErr)
}

// String implements fmt.Stringer for suture logs.
func (s *RouterService) String() string {
	return s.name
}
