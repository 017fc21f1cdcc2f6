// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Subscription plans
const (
	PlanFree   = "FREE"
	PlanGrowth = "GROWTH"
	PlanScale  = "SCALE"
	PlanCustom = "CUSTOM"
)

// PlanLimits holds the static quota set for a subscription plan.
// Limits are read-only configuration, never persisted per tenant.
type PlanLimits struct {
	Posts         int64
	Members       int64
	ViewsPerMonth int64
	Categories    int64
	TagsPerPost   int64
}

// planLimits maps plan tag -> quota set.
var planLimits = map[string]PlanLimits{
	PlanFree:   {Posts: 25, Members: 2, ViewsPerMonth: 2500, Categories: 5, TagsPerPost: 3},
	PlanGrowth: {Posts: 250, Members: 10, ViewsPerMonth: 50000, Categories: 25, TagsPerPost: 10},
	PlanScale:  {Posts: 2500, Members: 50, ViewsPerMonth: 500000, Categories: 100, TagsPerPost: 20},
	PlanCustom: {Posts: -1, Members: -1, ViewsPerMonth: 5000000, Categories: -1, TagsPerPost: 50},
}

// LimitsForPlan returns the quota set for a plan tag.
// Unknown plans fall back to FREE limits.
func LimitsForPlan(plan string) PlanLimits {
	if limits, ok := planLimits[plan]; ok {
		return limits
	}
	return planLimits[PlanFree]
}

// IsValidPlan reports whether the plan tag is one of the known plans.
func IsValidPlan(plan string) bool {
	_, ok := planLimits[plan]
	return ok
}
