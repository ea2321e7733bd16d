// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventLoginFailure is logged when credential verification fails.
	EventLoginFailure SecurityEventType = "login_failure"
	// EventSignup is logged when a new account is created.
	EventSignup SecurityEventType = "signup"
	// EventPasswordResetRequested is logged when a reset token is issued.
	EventPasswordResetRequested SecurityEventType = "password_reset_requested"
	// EventPasswordResetCompleted is logged when a reset token is redeemed.
	EventPasswordResetCompleted SecurityEventType = "password_reset_completed"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	Email     string            `json:"email,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// SecurityAuditor logs security events for SIEM consumption.
// Events are logged in structured JSON format with appropriate severity levels.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
// The logger is automatically configured with "security_audit" namespace for easy
// filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	securityLogger := logger.Named("security_audit")
	return &SecurityAuditor{logger: securityLogger}
}

// LogLoginFailure records a failed credential check. Logged at WARN level;
// repeated failures for one email or IP are an alerting signal, a single one
// is usually a typo.
func (a *SecurityAuditor) LogLoginFailure(email, clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventLoginFailure,
		Email:     email,
		ClientIP:  clientIP,
		Severity:  "warning",
	}

	// Serialize event to JSON for SIEM ingestion
	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Login failed",
		zap.String("event_json", string(eventJSON)),
		zap.String("email", email),
		zap.String("client_ip", clientIP),
		zap.String("severity", "warning"),
	)
}

// LogSignup records a successful account creation for audit trail.
func (a *SecurityAuditor) LogSignup(userID uuid.UUID, email, clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSignup,
		Email:     email,
		UserID:    userID.String(),
		ClientIP:  clientIP,
		Severity:  "info",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Info("Account created",
		zap.String("event_json", string(eventJSON)),
		zap.String("email", email),
		zap.String("user_id", userID.String()),
		zap.String("client_ip", clientIP),
		zap.String("severity", "info"),
	)
}

// LogPasswordResetRequested records that a reset token was issued for an
// account. Requests for unknown emails are not logged here since no token
// exists for them.
func (a *SecurityAuditor) LogPasswordResetRequested(email, clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventPasswordResetRequested,
		Email:     email,
		ClientIP:  clientIP,
		Severity:  "info",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Info("Password reset requested",
		zap.String("event_json", string(eventJSON)),
		zap.String("email", email),
		zap.String("client_ip", clientIP),
		zap.String("severity", "info"),
	)
}

// LogPasswordResetCompleted records a redeemed reset token. Logged at WARN
// level since a password change is worth surfacing in monitoring even when
// legitimate.
func (a *SecurityAuditor) LogPasswordResetCompleted(clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventPasswordResetCompleted,
		ClientIP:  clientIP,
		Severity:  "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Password reset completed",
		zap.String("event_json", string(eventJSON)),
		zap.String("client_ip", clientIP),
		zap.String("severity", "warning"),
	)
}
