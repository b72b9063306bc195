package common

import "time"

// PlanType is the subscription tier a gym purchases from the platform. It is
// distinct from the membership plans a gym sells to its own members.
type PlanType string

const (
	PlanMonthly    PlanType = "monthly"
	PlanQuarterly  PlanType = "quarterly"
	PlanHalfYearly PlanType = "half_yearly"
	PlanYearly     PlanType = "yearly"
)

// Plan describes one platform subscription tier.
type Plan struct {
	Type  PlanType `json:"type"`
	Label string   `json:"label"`
	Price float64  `json:"price"`
}

// PlatformPlans is the catalog of tiers offered at registration.
var PlatformPlans = []Plan{
	{Type: PlanMonthly, Label: "Monthly", Price: 2999},
	{Type: PlanQuarterly, Label: "Quarterly", Price: 7999},
	{Type: PlanHalfYearly, Label: "Half Yearly", Price: 14999},
	{Type: PlanYearly, Label: "Yearly", Price: 27999},
}

func (p PlanType) Valid() bool {
	switch p {
	case PlanMonthly, PlanQuarterly, PlanHalfYearly, PlanYearly:
		return true
	}
	return false
}

func GetPlan(planType PlanType) *Plan {
	for _, plan := range PlatformPlans {
		if plan.Type == planType {
			return &plan
		}
	}
	return nil
}

// PlanWindow computes the subscription window for a tier starting at from.
// Calendar-month arithmetic with Go's AddDate normalization: a monthly plan
// starting 2025-01-31 ends 2025-03-03, and a yearly plan starting 2024-02-29
// ends 2025-03-01. An unknown tier falls back to one month.
func PlanWindow(planType PlanType, from time.Time) (start, end time.Time) {
	start = from
	switch planType {
	case PlanMonthly:
		end = from.AddDate(0, 1, 0)
	case PlanQuarterly:
		end = from.AddDate(0, 3, 0)
	case PlanHalfYearly:
		end = from.AddDate(0, 6, 0)
	case PlanYearly:
		end = from.AddDate(1, 0, 0)
	default:
		end = from.AddDate(0, 1, 0)
	}
	return start, end
}

// PlanSeed describes one of the default membership plans seeded into every
// newly provisioned gym.
type PlanSeed struct {
	Name         string
	Description  string
	DurationDays int
	Price        float64
}

// DefaultPlanSeeds are the four membership plans every new gym starts with.
func DefaultPlanSeeds() []PlanSeed {
	return []PlanSeed{
		{Name: "Monthly Plan", Description: "Access to all gym facilities for 1 month", DurationDays: 30, Price: 1500},
		{Name: "Quarterly Plan", Description: "Access to all gym facilities for 3 months", DurationDays: 90, Price: 4000},
		{Name: "Half Yearly Plan", Description: "Access to all gym facilities for 6 months", DurationDays: 180, Price: 7500},
		{Name: "Yearly Plan", Description: "Access to all gym facilities for 1 year", DurationDays: 365, Price: 14000},
	}
}
