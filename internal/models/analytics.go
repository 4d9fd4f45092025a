package models

import "time"

// ItemSummary is the live aggregate over all items.
type ItemSummary struct {
	TotalItems    int     `json:"totalItems"`
	ApprovedItems int     `json:"approvedItems"`
	RejectedItems int     `json:"rejectedItems"`
	PendingItems  int     `json:"pendingItems"`
	SuccessRate   float64 `json:"successRate"`
}

// AnalyticsReport extends the summary with operational figures shown on the
// dashboard. Every extra figure is best-effort and zero when unavailable.
type AnalyticsReport struct {
	ItemSummary
	AuditCount      int64   `json:"auditCount"`
	QueueDepth      int     `json:"queueDepth"`
	APIResponseTime float64 `json:"apiResponseTime"`
}

// AnalyticsOverview is the compact headline view.
type AnalyticsOverview struct {
	TotalItems        int     `json:"totalItems"`
	PendingApprovals  int     `json:"pendingApprovals"`
	ApprovedThisMonth int     `json:"approvedThisMonth"`
	SuccessRate       float64 `json:"successRate"`
}

// SystemMetrics is a point-in-time view of process instrumentation.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
