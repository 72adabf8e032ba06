package models

import (
	"fmt"
	"time"
)

// Crop plan statuses.
const (
	PlanStatusPlanned   = "planned"
	PlanStatusActive    = "active"
	PlanStatusCompleted = "completed"
	PlanStatusCancelled = "cancelled"
)

// Workflow stages tracked on a plan's progress flags.
var PlanStages = []string{"planted", "fertilized", "irrigated", "pestControl", "harvested"}

// IsPlanStage reports whether s names a known workflow stage.
func IsPlanStage(s string) bool {
	for _, st := range PlanStages {
		if st == s {
			return true
		}
	}
	return false
}

type PlanProgress struct {
	Planted     bool `bson:"planted" json:"planted"`
	Fertilized  bool `bson:"fertilized" json:"fertilized"`
	Irrigated   bool `bson:"irrigated" json:"irrigated"`
	PestControl bool `bson:"pestControl" json:"pestControl"`
	Harvested   bool `bson:"harvested" json:"harvested"`
}

// PlanCosts accumulate additively over the plan's lifetime. Updates are
// field-level increments, never wholesale overwrites, so concurrent updates
// from different workflow stages cannot clobber each other.
type PlanCosts struct {
	Seeds       float64 `bson:"seeds" json:"seeds"`
	Fertilizers float64 `bson:"fertilizers" json:"fertilizers"`
	Irrigation  float64 `bson:"irrigation" json:"irrigation"`
	PestControl float64 `bson:"pestControl" json:"pestControl"`
	Labor       float64 `bson:"labor" json:"labor"`
	Total       float64 `bson:"total" json:"total"`
}

type PlanYields struct {
	Expected float64 `bson:"expected" json:"expected"`
	Actual   float64 `bson:"actual" json:"actual"`
	Quality  string  `bson:"quality" json:"quality"`
}

// CropPlan is a document in the "cropPlans" collection.
type CropPlan struct {
	ID                  string       `bson:"_id" json:"id"`
	FarmID              string       `bson:"farmId" json:"farmId"`
	CropID              string       `bson:"cropId" json:"cropId"`
	CropName            string       `bson:"cropName" json:"cropName"`
	UserID              string       `bson:"userId" json:"userId"`
	Area                float64      `bson:"area" json:"area"`
	PlantingDate        time.Time    `bson:"plantingDate" json:"plantingDate"`
	ExpectedHarvestDate time.Time    `bson:"expectedHarvestDate" json:"expectedHarvestDate"`
	SeedQuantity        float64      `bson:"seedQuantity" json:"seedQuantity"`
	Budget              float64      `bson:"budget" json:"budget"`
	Notes               string       `bson:"notes" json:"notes"`
	Status              string       `bson:"status" json:"status"`
	Progress            PlanProgress `bson:"progress" json:"progress"`
	Costs               PlanCosts    `bson:"costs" json:"costs"`
	Yields              PlanYields   `bson:"yields" json:"yields"`
	CreatedAt           time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// PlanID builds the composite plan key.
func PlanID(farmID, cropID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", farmID, cropID, at.UnixMilli())
}
