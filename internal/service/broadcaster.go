package service

// Broadcaster pushes submission updates to websocket subscribers (avoids import cycle)
type Broadcaster interface {
	BroadcastSubmission(submissionID string, msgType string, payload interface{})
	CloseSubmission(submissionID string)
}

// Websocket message types
const (
	MsgAuditReady  = "audit_ready"
	MsgAuditFailed = "audit_failed"
)
