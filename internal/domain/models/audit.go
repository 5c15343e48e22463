package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/backupgw/pkg/constants"
)

// AuditEvent represents a single security-relevant event.
type AuditEvent struct {
	ID        string                   `gorm:"primaryKey;size:36" json:"id"`
	Type      constants.AuditEventType `gorm:"size:64;index;not null" json:"type"`
	Subject   string                   `gorm:"size:180;index" json:"subject,omitempty"` // user id or username, empty when unknown
	Method    string                   `gorm:"size:16" json:"method,omitempty"`
	Path      string                   `gorm:"size:512" json:"path,omitempty"`
	ClientIP  string                   `gorm:"size:64" json:"client_ip,omitempty"`
	RequestID string                   `gorm:"size:64" json:"request_id,omitempty"`
	Reason    string                   `gorm:"size:512" json:"reason,omitempty"`
	Timestamp time.Time                `gorm:"index;not null" json:"timestamp"`
}

// TableName pins the table name regardless of gorm naming strategy.
func (AuditEvent) TableName() string {
	return "audit_events"
}

// NewAuditEvent creates a new audit event stamped with the current time.
func NewAuditEvent(eventType constants.AuditEventType, subject, reason string) *AuditEvent {
	return &AuditEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Subject:   subject,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// WithRequest sets request-related information.
func (a *AuditEvent) WithRequest(method, path, clientIP, requestID string) *AuditEvent {
	a.Method = method
	a.Path = path
	a.ClientIP = clientIP
	a.RequestID = requestID
	return a
}
