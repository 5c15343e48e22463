package audit

import (
	"context"
	stderrors "errors"

	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/pkg/logger"
)

// LogSink writes audit events to the structured log.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log.WithComponent("Audit")}
}

// LogEvent implements service.AuditService.
func (s *LogSink) LogEvent(ctx context.Context, event *models.AuditEvent) error {
	s.logger.Info(ctx, "Audit event",
		logger.String("audit_id", event.ID),
		logger.String("event_type", string(event.Type)),
		logger.String("subject", event.Subject),
		logger.String("method", event.Method),
		logger.String("path", event.Path),
		logger.String("client_ip", event.ClientIP),
		logger.String("reason", event.Reason),
	)
	return nil
}

// Fanout delivers every event to all sinks. A failing sink does not stop the others.
type Fanout []service.AuditService

// LogEvent implements service.AuditService.
func (f Fanout) LogEvent(ctx context.Context, event *models.AuditEvent) error {
	var errs []error
	for _, sink := range f {
		if err := sink.LogEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
