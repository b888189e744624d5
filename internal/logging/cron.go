// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package logging

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CronLogger adapts zerolog to cron.Logger. Scheduler bookkeeping is
// logged at debug level, job failures at error level.
type CronLogger struct {
	logger zerolog.Logger
}

// NewCronLogger returns a cron.Logger tagged with component.
func NewCronLogger(component string) cron.Logger {
	return &CronLogger{logger: Logger().With().Str("component", component).Logger()}
}

func (l *CronLogger) Info(msg string, keysAndValues ...interface{}) {
	withFields(l.logger.Debug(), keysAndValues).Msg(msg)
}

func (l *CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	withFields(l.logger.Error().Err(err), keysAndValues).Msg(msg)
}

func withFields(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}
