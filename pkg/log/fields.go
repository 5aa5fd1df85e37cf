package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"
	FieldRoute     = "route"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID   = "user_id"
	FieldTenantID = "tenant_id"

	// Service
	FieldService = "service"

	// Directory search
	FieldTerm         = "term"
	FieldCategory     = "category_code"
	FieldPage         = "page"
	FieldResultCount  = "result_count"
	FieldTotalFound   = "total_found"
	FieldTimedOutSubs = "timed_out_sub_queries"

	// Outgoing messages
	FieldMessageKind  = "message_kind"
	FieldMessageBytes = "message_bytes"
	FieldTarget       = "target"

	// Chat channel events
	FieldEventID   = "webhook_event_id"
	FieldEventType = "event_type"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
