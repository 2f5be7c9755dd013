package service

import (
	"math"
	"time"

	"github.com/noah-isme/proasset-api/internal/models"
)

const (
	purchaseDateLayout = "2006-01-02"
	daysPerYear        = 365.25
)

// Depreciate computes the straight-line valuation of an asset at now. Age is the absolute
// distance from the purchase date, so a future date depreciates like a past one. A non-positive
// useful life leaves the price undepreciated.
func Depreciate(price float64, purchaseDate string, usefulLife int, now time.Time) models.Valuation {
	if usefulLife <= 0 {
		return models.Valuation{CurrentValue: price}
	}

	age := 0.0
	if purchased, err := time.Parse(purchaseDateLayout, purchaseDate); err == nil {
		age = math.Abs(now.Sub(purchased).Hours()) / 24 / daysPerYear
	}

	perYear := price / float64(usefulLife)
	current := price - perYear*age
	if current < 0 {
		current = 0
	}

	return models.Valuation{
		CurrentValue:        math.Round(current),
		DepreciationPerYear: math.Round(perYear),
		AgeYears:            math.Round(age*10) / 10,
	}
}

// BookValue sums the current value of every asset that is not pending deletion.
func BookValue(assets []models.Asset, now time.Time) float64 {
	total := 0.0
	for _, asset := range assets {
		if asset.PendingDeletion() {
			continue
		}
		total += Depreciate(asset.Price, asset.PurchaseDate, asset.UsefulLife, now).CurrentValue
	}
	return total
}
