package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Connection / actor
	FieldConnectionID = "connection_id"
	FieldNickname     = "nickname"
	FieldEvent        = "event"

	// History
	FieldMessageID = "message_id"
	FieldBackend   = "backend"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
