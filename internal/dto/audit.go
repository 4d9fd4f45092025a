package dto

// CreateAuditRequest records a manual audit entry.
type CreateAuditRequest struct {
	ItemID          string                 `json:"itemId"`
	Action          string                 `json:"action" validate:"required,oneof=Created Updated Deleted Viewed Approved Rejected"`
	ItemName        string                 `json:"itemName" validate:"max=200"`
	ItemDescription string                 `json:"itemDescription" validate:"max=1000"`
	ChangedBy       string                 `json:"changedBy" validate:"max=200"`
	Details         map[string]interface{} `json:"details"`
}

// AuditQuery mirrors the filters of GET /audit. Times are RFC 3339.
type AuditQuery struct {
	Action string `form:"action"`
	From   string `form:"from"`
	To     string `form:"to"`
	Limit  int    `form:"limit"`
}
