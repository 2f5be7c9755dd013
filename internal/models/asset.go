package models

import "time"

// AssetStatus is the physical condition of an asset.
type AssetStatus string

const (
	AssetStatusGood        AssetStatus = "Baik"
	AssetStatusUnderRepair AssetStatus = "Perbaikan"
	AssetStatusDamaged     AssetStatus = "Rusak"
	AssetStatusLost        AssetStatus = "Hilang"
)

// DeletionStatusPending marks an asset awaiting deletion approval.
const DeletionStatusPending = "pending"

// Asset represents a tracked physical item stored in the assets table.
type Asset struct {
	ID                  string      `db:"id" json:"id"`
	Name                string      `db:"name" json:"name"`
	Category            string      `db:"category" json:"category"`
	LocationID          string      `db:"location_id" json:"location_id"`
	Price               float64     `db:"price" json:"price"`
	PurchaseDate        string      `db:"purchase_date" json:"purchase_date"`
	UsefulLife          int         `db:"useful_life" json:"useful_life"`
	Status              AssetStatus `db:"status" json:"status"`
	Barcode             *string     `db:"barcode" json:"barcode"`
	Image               *string     `db:"image" json:"image"`
	DeletionStatus      *string     `db:"deletion_status" json:"deletion_status"`
	DeletionRequestDate *time.Time  `db:"deletion_request_date" json:"deletion_request_date"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
}

// PendingDeletion reports whether the asset is waiting for deletion approval.
func (a Asset) PendingDeletion() bool {
	return a.DeletionStatus != nil && *a.DeletionStatus == DeletionStatusPending
}

// AssetFilter captures filtering criteria for listing assets.
type AssetFilter struct {
	Search         string
	Category       string
	LocationID     string
	Status         *AssetStatus
	IncludePending bool
}

// AssetRequest is the create and full-replace payload. Restricted fields are pointers so an
// omitted value can be told apart from a zero one.
type AssetRequest struct {
	Name         string      `json:"name" validate:"required"`
	Category     string      `json:"category" validate:"required"`
	LocationID   string      `json:"location_id" validate:"required"`
	Price        *float64    `json:"price" validate:"omitempty,gte=0"`
	PurchaseDate *string     `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	UsefulLife   *int        `json:"useful_life" validate:"omitempty,gt=0"`
	Status       AssetStatus `json:"status" validate:"required,oneof=Baik Perbaikan Rusak Hilang"`
	Barcode      *string     `json:"barcode"`
	Image        *string     `json:"image"`
}

// Valuation is the straight-line book value of an asset at a point in time.
type Valuation struct {
	CurrentValue        float64 `json:"current_value"`
	DepreciationPerYear float64 `json:"depreciation_per_year"`
	AgeYears            float64 `json:"age_years"`
}

// AssetView is an asset as presented to a role; fields the role may not view are omitted.
type AssetView struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Category            string      `json:"category"`
	LocationID          string      `json:"location_id"`
	Price               *float64    `json:"price,omitempty"`
	PurchaseDate        *string     `json:"purchase_date,omitempty"`
	UsefulLife          *int        `json:"useful_life,omitempty"`
	Status              AssetStatus `json:"status"`
	Barcode             *string     `json:"barcode"`
	Image               *string     `json:"image,omitempty"`
	DeletionStatus      *string     `json:"deletion_status"`
	DeletionRequestDate *time.Time  `json:"deletion_request_date"`
	CreatedAt           time.Time   `json:"created_at"`
	Valuation           *Valuation  `json:"valuation,omitempty"`
}
