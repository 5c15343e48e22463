package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/backupgw/internal/application/dto"
	"github.com/turtacn/backupgw/internal/infrastructure/monitoring"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/errors"
	"github.com/turtacn/backupgw/pkg/logger"
)

// RequestID assigns a request id, echoes it in X-Request-ID and stores it, with a
// request-scoped logger, in the request context.
func RequestID(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}
		c.Header(constants.HeaderRequestID, requestID)
		c.Set(string(constants.ContextKeyRequestID), requestID)

		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, constants.ContextKeyLogger, log.WithFields(logger.String("request_id", requestID)))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Logging logs every request once it has been handled.
func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Int64("latency_ms", latency.Milliseconds()),
			logger.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= 500 {
			log.Warn(c.Request.Context(), "Request failed", fields...)
			return
		}
		log.Info(c.Request.Context(), "Request processed", fields...)
	}
}

// Recovery turns a panic into a 500 INTERNAL_ERROR envelope. The panic value is
// logged, never sent to the client.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "Panic recovered", fmt.Errorf("panic: %v", r),
					logger.String("method", c.Request.Method),
					logger.String("path", c.Request.URL.Path),
				)
				dto.SendError(c, errors.ErrInternal("panic recovered"))
			}
		}()
		c.Next()
	}
}

// Tracing starts a server span per request, continuing any W3C trace context sent
// by the caller, and exposes the trace id to the logger.
func Tracing(tm *monitoring.TracingManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := tm.ExtractTraceContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tm.StartSpan(ctx, "HTTP "+c.Request.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.target", c.Request.URL.Path),
			),
		)
		defer span.End()

		if traceID := tm.TraceID(ctx); traceID != "" {
			ctx = context.WithValue(ctx, constants.ContextKeyTraceID, traceID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		span.SetAttributes(
			attribute.Int("http.status_code", c.Writer.Status()),
			attribute.String("http.client_ip", c.ClientIP()),
		)
		if c.Writer.Status() >= 500 {
			tm.RecordError(ctx, fmt.Errorf("status %d", c.Writer.Status()))
		}
	}
}
