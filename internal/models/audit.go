package models

import "time"

// ActivityAction enumerates the entries written to the activity log.
type ActivityAction string

const (
	ActionCreate        ActivityAction = "CREATE"
	ActionUpdate        ActivityAction = "UPDATE"
	ActionDelete        ActivityAction = "DELETE"
	ActionApprove       ActivityAction = "APPROVE"
	ActionReject        ActivityAction = "REJECT"
	ActionReset         ActivityAction = "RESET"
	ActionAuditStart    ActivityAction = "AUDIT_START"
	ActionAuditScan     ActivityAction = "AUDIT_SCAN"
	ActionAuditComplete ActivityAction = "AUDIT_COMPLETE"
)

// ActorSystem is recorded when no authenticated user triggered the entry.
const ActorSystem = "System"

// ActivityLog is an append-only audit trail record stored in audit_logs.
type ActivityLog struct {
	ID        string         `db:"id" json:"id"`
	Action    ActivityAction `db:"action" json:"action"`
	Target    string         `db:"target" json:"target"`
	Details   string         `db:"details" json:"details"`
	User      string         `db:"user" json:"user"`
	Timestamp time.Time      `db:"created_at" json:"timestamp"`
}

// ActivityLogFilter narrows and paginates the activity log listing.
type ActivityLogFilter struct {
	Action   *ActivityAction
	Page     int
	PageSize int
}
