// Package service defines the interfaces for domain services.
package service

import (
	"time"
)

// Metrics defines the interface for collecting gateway metrics.
// This abstraction keeps the HTTP layer independent of the monitoring backend (e.g., Prometheus).
// Metrics 定义了收集网关指标的接口。
// 这种抽象使 HTTP 层能够独立于具体的监控实现（例如 Prometheus）。
type Metrics interface {
	// RecordAuthFailure counts a rejected credential by reason.
	// RecordAuthFailure 按原因统计被拒绝的凭证。
	RecordAuthFailure(reason string)

	// RecordAuthorizationDenied counts a role check failure on a route.
	// RecordAuthorizationDenied 统计路由上的角色校验失败。
	RecordAuthorizationDenied(route string)

	// RecordDispatch records the status and latency of a dispatched request.
	// RecordDispatch 记录已分发请求的状态码和延迟。
	RecordDispatch(method, route string, status int, duration time.Duration)

	// RecordCredentialOperation counts a credential protection call.
	// RecordCredentialOperation 统计凭证保护操作。
	RecordCredentialOperation(operation string, success bool)
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) RecordAuthFailure(string) {}
func (NoopMetrics) RecordAuthorizationDenied(string) {}
func (NoopMetrics) RecordDispatch(string, string, int, time.Duration) {}
func (NoopMetrics) RecordCredentialOperation(string, bool) {}
