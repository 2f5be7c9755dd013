package models

import (
	"time"

	"github.com/lib/pq"
)

// AuditSessionStatus is the lifecycle state of a stock opname session.
type AuditSessionStatus string

const (
	AuditStatusInProgress AuditSessionStatus = "In Progress"
	AuditStatusCompleted  AuditSessionStatus = "Completed"
	// AuditStatusCancelled is declared by the data model but no transition produces it.
	AuditStatusCancelled AuditSessionStatus = "Cancelled"
)

// AuditSession is one physical verification pass over the asset collection.
type AuditSession struct {
	ID                 string             `db:"id" json:"id"`
	Name               string             `db:"name" json:"name"`
	StartDate          time.Time          `db:"start_date" json:"start_date"`
	EndDate            *time.Time         `db:"end_date" json:"end_date"`
	Status             AuditSessionStatus `db:"status" json:"status"`
	TotalAssetsToCheck int                `db:"total_assets_to_check" json:"total_assets_to_check"`
	ScannedAssets      pq.StringArray     `db:"scanned_assets" json:"scanned_assets"`
	MissingAssets      pq.StringArray     `db:"missing_assets" json:"missing_assets"`
	AuditorName        string             `db:"auditor_name" json:"auditor_name"`
}

// Clone returns a deep copy so callers cannot mutate shared slices.
func (s AuditSession) Clone() AuditSession {
	out := s
	out.ScannedAssets = append(pq.StringArray{}, s.ScannedAssets...)
	out.MissingAssets = append(pq.StringArray{}, s.MissingAssets...)
	if s.EndDate != nil {
		end := *s.EndDate
		out.EndDate = &end
	}
	return out
}

// AuditItem is the price-free asset summary shown while auditing.
type AuditItem struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	LocationID string  `json:"location_id"`
	Barcode    *string `json:"barcode"`
}

// AuditSessionView decorates a session with derived progress values.
type AuditSessionView struct {
	AuditSession
	Progress  float64     `json:"progress"`
	Accuracy  float64     `json:"accuracy"`
	Remaining []AuditItem `json:"remaining,omitempty"`
}

// ScanOutcome is the result of one barcode scan against the current session.
type ScanOutcome struct {
	Found     bool              `json:"found"`
	Duplicate bool              `json:"duplicate"`
	Asset     *AuditItem        `json:"asset,omitempty"`
	Session   *AuditSessionView `json:"session,omitempty"`
}

// AuditReport summarises a session with the details of the assets it did not find.
type AuditReport struct {
	Session      AuditSessionView `json:"session"`
	ScannedCount int              `json:"scanned_count"`
	MissingCount int              `json:"missing_count"`
	Missing      []AuditItem      `json:"missing"`
}
