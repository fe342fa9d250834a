package loyalty

import (
	"fmt"
	"math"

	"healthloop/internal/domain"
)

// maxPurchaseProduct bounds amount x rate so the cent arithmetic below stays in int64.
const maxPurchaseProduct = math.MaxInt64 / 100

// ResolvePoints returns the points an action is worth. Purchases earn
// PurchasePointsPerUnit per currency unit spent, rounded down; every other
// public action has a fixed value. Zero is a valid result.
//
// The amount is a currency value and is rounded to whole cents first, so
// 2.3 earns 23 rather than falling to 22 on float representation error.
func (r Rules) ResolvePoints(action domain.Action, amountSpent float64) (int64, error) {
	if action == domain.ActionPurchase {
		if math.IsNaN(amountSpent) || amountSpent <= 0 {
			return 0, nil
		}
		product := amountSpent * float64(r.PurchasePointsPerUnit)
		if math.IsInf(product, 0) || product >= maxPurchaseProduct {
			return 0, fmt.Errorf("%w: amount_spent %g", ErrInvalidAmount, amountSpent)
		}
		cents := int64(math.Round(amountSpent * 100))
		return cents * r.PurchasePointsPerUnit / 100, nil
	}

	pts, ok := r.ActionPoints[action]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return pts, nil
}

// DefaultDescription is recorded on the ledger when the caller gives none.
func DefaultDescription(action domain.Action) string {
	switch action {
	case domain.ActionRegistration:
		return "Welcome bonus for joining"
	case domain.ActionFirstPurchase:
		return "First purchase bonus"
	case domain.ActionPurchase:
		return "Points earned on purchase"
	case domain.ActionScheduleConsultation:
		return "Consultation scheduled"
	case domain.ActionCompleteProfile:
		return "Profile completed"
	case domain.ActionReferFriend:
		return "Friend referral"
	case domain.ActionCompleteConsultation:
		return "Consultation completed"
	case domain.ActionVideoCompletion:
		return "Video watched"
	case domain.ActionMembershipUpgrade:
		return "Membership upgrade bonus"
	case domain.ActionMonthlyMembershipPoints:
		return "Monthly membership points"
	}
	return string(action)
}
