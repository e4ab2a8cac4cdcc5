// Warden - Media Server Rule Enforcement Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/warden

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/warden/internal/config"
	"github.com/tomtom215/warden/internal/enforcement"
	"github.com/tomtom215/warden/internal/eventprocessor"
	"github.com/tomtom215/warden/internal/logging"
	"github.com/tomtom215/warden/internal/supervisor/services"
)

// triggerTransport owns the NATS side of warden: the JetStream stream, the
// result publisher, and a router factory for the supervisor.
type triggerTransport struct {
	cfg       config.NATSConfig
	handler   *enforcement.TriggerHandler
	conn      *natsgo.Conn
	publisher *eventprocessor.Publisher
	logger    watermill.LoggerAdapter
}

// initNATS connects to NATS, ensures the stream exists and creates the
// result publisher.
func initNATS(ctx context.Context, cfg config.NATSConfig, handler *enforcement.TriggerHandler) (*triggerTransport, error) {
	logging.Info().Str("url", cfg.URL).Msg("Initializing NATS trigger transport")

	nc, err := natsgo.Connect(cfg.URL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	t := &triggerTransport{
		cfg:     cfg,
		handler: handler,
		conn:    nc,
		logger:  watermill.NewSlogLogger(logging.NewSlogLogger()),
	}

	js, err := jetstream.New(nc)
	if err != nil {
		t.Close() //nolint:errcheck
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := eventprocessor.DefaultStreamConfig()
	if cfg.StreamName != "" {
		streamCfg.Name = cfg.StreamName
	}
	if err := eventprocessor.EnsureStream(ctx, js, streamCfg); err != nil {
		t.Close() //nolint:errcheck
		return nil, err
	}
	logging.Info().
		Str("name", streamCfg.Name).
		Strs("subjects", streamCfg.Subjects).
		Dur("max_age", streamCfg.MaxAge).
		Msg("JetStream stream ready")

	publisher, err := eventprocessor.NewPublisher(eventprocessor.DefaultPublisherConfig(cfg.URL), t.logger)
	if err != nil {
		t.Close() //nolint:errcheck
		return nil, err
	}
	t.publisher = publisher
	return t, nil
}

// NewRouter builds a router with a fresh subscriber. It is the
// services.RouterFactory of the trigger router service.
func (t *triggerTransport) NewRouter(_ context.Context) (services.MessageRouter, error) {
	subCfg := eventprocessor.DefaultSubscriberConfig(t.cfg.URL)
	subCfg.StreamName = t.cfg.StreamName
	if t.cfg.DurableName != "" {
		subCfg.DurableName = t.cfg.DurableName
	}
	if t.cfg.QueueGroup != "" {
		subCfg.QueueGroup = t.cfg.QueueGroup
	}
	if t.cfg.Subscribers > 0 {
		subCfg.SubscribersCount = t.cfg.Subscribers
	}

	subscriber, err := eventprocessor.NewSubscriber(subCfg, t.logger)
	if err != nil {
		return nil, err
	}

	router, err := eventprocessor.NewRouter(eventprocessor.DefaultRouterConfig(), t.publisher, t.logger)
	if err != nil {
		subscriber.Close() //nolint:errcheck
		return nil, err
	}
	router.AddHandler("rule-trigger-handler", t.cfg.TriggerTopic, subscriber, t.cfg.ResultTopic, t.publisher, t.handler.Handle)

	return &subscribedRouter{Router: router, subscriber: subscriber}, nil
}

// Close releases the publisher and the connection.
func (t *triggerTransport) Close() error {
	var errs []error
	if t.publisher != nil {
		errs = append(errs, t.publisher.Close())
	}
	if t.conn != nil {
		t.conn.Close()
	}
	return errors.Join(errs...)
}

// subscribedRouter closes its subscriber along with the router.
type subscribedRouter struct {
	*eventprocessor.Router
	subscriber message.Subscriber
}

func (r *subscribedRouter) Close() error {
	return errors.Join(r.Router.Close(), r.subscriber.Close())
}
