package models

import "time"

// AuditAction names what happened to an item.
type AuditAction string

const (
	AuditActionCreated  AuditAction = "Created"
	AuditActionUpdated  AuditAction = "Updated"
	AuditActionDeleted  AuditAction = "Deleted"
	AuditActionViewed   AuditAction = "Viewed"
	AuditActionApproved AuditAction = "Approved"
	AuditActionRejected AuditAction = "Rejected"
)

// ValidAuditAction reports whether a is a known action.
func ValidAuditAction(a AuditAction) bool {
	switch a {
	case AuditActionCreated, AuditActionUpdated, AuditActionDeleted,
		AuditActionViewed, AuditActionApproved, AuditActionRejected:
		return true
	}
	return false
}

// AuditActionFor maps a reached status to its audit action.
func AuditActionFor(status ItemStatus) AuditAction {
	if status == ItemStatusRejected {
		return AuditActionRejected
	}
	return AuditActionApproved
}

// Audit sentinels.
const (
	AuditSystemPartition = "system"
	AuditDefaultActor    = "System"
)

// AuditLogEntry is one append-only record in the audit trail.
type AuditLogEntry struct {
	ID              string                 `bson:"_id" json:"id"`
	ItemID          string                 `bson:"itemId" json:"itemId"`
	Action          AuditAction            `bson:"action" json:"action"`
	ItemName        string                 `bson:"itemName" json:"itemName"`
	ItemDescription string                 `bson:"itemDescription,omitempty" json:"itemDescription,omitempty"`
	ChangedBy       string                 `bson:"changedBy" json:"changedBy"`
	Timestamp       time.Time              `bson:"timestamp" json:"timestamp"`
	Details         map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	IPAddress       string                 `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent       string                 `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	Partition       string                 `bson:"partition" json:"partition"`
}

// AuditFilter constrains audit queries. Zero values mean "no constraint".
type AuditFilter struct {
	ItemID string
	Action AuditAction
	From   *time.Time
	To     *time.Time
	Limit  int
}
