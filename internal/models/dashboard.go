package models

import "time"

// AssetSummary aggregates the asset collection. It is the cached part of the dashboard.
type AssetSummary struct {
	TotalActive      int            `json:"total_active"`
	TotalBookValue   float64        `json:"total_book_value"`
	PendingApprovals int            `json:"pending_approvals"`
	NeedsAttention   int            `json:"needs_attention"`
	ByStatus         map[string]int `json:"by_status"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// DashboardStats summarises the asset collection for the landing page. TotalBookValue is
// omitted for roles that may not view prices.
type DashboardStats struct {
	TotalActive      int            `json:"total_active"`
	TotalBookValue   *float64       `json:"total_book_value,omitempty"`
	PendingApprovals int            `json:"pending_approvals"`
	NeedsAttention   int            `json:"needs_attention"`
	ByStatus         map[string]int `json:"by_status"`
	ActiveAudit      *AuditProgress `json:"active_audit,omitempty"`
	RecentActivity   []ActivityLog  `json:"recent_activity"`
	GeneratedAt      time.Time      `json:"generated_at"`
	Cached           bool           `json:"cached"`
}

// AuditProgress reports derived progress values for a session.
type AuditProgress struct {
	SessionID   string  `json:"session_id"`
	Scanned     int     `json:"scanned"`
	Total       int     `json:"total"`
	Progress    float64 `json:"progress"`
	Accuracy    float64 `json:"accuracy"`
	AuditorName string  `json:"auditor_name"`
}
