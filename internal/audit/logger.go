// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

// Package audit records security-relevant actions to the audit_events
// table without blocking the request that caused them.
package audit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smokewatch/internal/auth"
	"github.com/tomtom215/smokewatch/internal/logging"
	"github.com/tomtom215/smokewatch/internal/models"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	maxUserAgentLength = 256
)

// Store persists and lists audit events.
type Store interface {
	InsertAuditEvent(ctx context.Context, e *models.AuditEvent) error
	ListAuditEvents(ctx context.Context, f models.AuditFilter) ([]models.AuditEvent, error)
}

// Config holds configuration for the audit logger.
type Config struct {
	// BufferSize is the size of the async write buffer.
	BufferSize int

	// WriteTimeout bounds each insert.
	WriteTimeout time.Duration

	// LogToStdout also writes events to the application log.
	LogToStdout bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BufferSize:   1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Logger writes audit events asynchronously.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *models.AuditEvent
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewLogger creates a Logger and starts its writer goroutine. Close stops
// it after draining buffered events.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *models.AuditEvent, config.BufferSize),
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// asyncWriter processes events from the buffer.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

func (l *Logger) writeEvent(event *models.AuditEvent) {
	if l.config.LogToStdout {
		if data, err := json.Marshal(event); err == nil {
			logging.Info().RawJSON("event", data).Msg("Audit event")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.config.WriteTimeout)
	defer cancel()

	if err := l.store.InsertAuditEvent(ctx, event); err != nil {
		logging.Error().Err(err).Str("action", event.Action).Msg("Failed to save audit event")
	}
}

// Record queues event for writing. The request id of ctx is added to the
// event details. When the buffer is full the event is dropped.
func (l *Logger) Record(ctx context.Context, event *models.AuditEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = l.now().UTC()
	}
	if event.Outcome == "" {
		event.Outcome = OutcomeSuccess
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		if event.Details == nil {
			event.Details = models.JSONMap{}
		}
		event.Details["requestId"] = id
	}

	select {
	case <-l.stopChan:
		logging.Warn().Str("action", event.Action).Msg("Audit logger closed, dropping event")
		return
	default:
	}

	select {
	case l.eventChan <- event:
	default:
		logging.Warn().Str("action", event.Action).Msg("Audit event buffer full, dropping event")
	}
}

// List returns stored events matching f, newest first.
func (l *Logger) List(ctx context.Context, f models.AuditFilter) ([]models.AuditEvent, error) {
	return l.store.ListAuditEvents(ctx, f)
}

// Close shuts down the logger gracefully.
func (l *Logger) Close() error {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
	return nil
}

// FromRequest builds an event with actor and client details taken from
// r. The actor is empty for unauthenticated requests such as a failed
// login.
func FromRequest(r *http.Request, action, resourceType, resourceID, outcome string) *models.AuditEvent {
	e := &models.AuditEvent{
		Action:       action,
		ResourceType: resourceType,
		Outcome:      outcome,
		IP:           auth.ClientIP(r),
		UserAgent:    truncate(r.UserAgent(), maxUserAgentLength),
	}
	if resourceID != "" {
		e.ResourceID = &resourceID
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		id := claims.UserID
		role := string(claims.Role)
		e.ActorID = &id
		e.ActorRole = &role
	}
	return e
}

// WithActor sets the actor explicitly, for actions such as login where the
// principal is only known after the handler ran.
func WithActor(e *models.AuditEvent, userID string, role models.Role) *models.AuditEvent {
	e.ActorID = &userID
	r := string(role)
	e.ActorRole = &r
	return e
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
