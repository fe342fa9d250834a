package loyalty

import (
	"slices"

	"healthloop/internal/domain"
)

// PlanRegistry is the read-only membership plan catalog.
type PlanRegistry struct {
	plans      map[domain.MembershipLevel]domain.MembershipPlan
	ordered    []domain.MembershipPlan
	promotions []string
}

func NewPlanRegistry(r Rules) *PlanRegistry {
	reg := &PlanRegistry{
		plans:      make(map[domain.MembershipLevel]domain.MembershipPlan, len(r.Plans)),
		promotions: slices.Clone(r.Promotions),
	}
	for _, p := range r.Plans {
		reg.plans[p.Name] = p
	}
	for _, p := range reg.plans {
		reg.ordered = append(reg.ordered, p)
	}
	slices.SortFunc(reg.ordered, func(a, b domain.MembershipPlan) int {
		return a.Name.Rank() - b.Name.Rank()
	})
	return reg
}

// Plans returns a copy of the catalog keyed by tier.
func (r *PlanRegistry) Plans() map[domain.MembershipLevel]domain.MembershipPlan {
	out := make(map[domain.MembershipLevel]domain.MembershipPlan, len(r.plans))
	for k, v := range r.plans {
		out[k] = v
	}
	return out
}

// Ordered returns plans from the lowest tier to the highest.
func (r *PlanRegistry) Ordered() []domain.MembershipPlan {
	return slices.Clone(r.ordered)
}

func (r *PlanRegistry) Plan(level domain.MembershipLevel) (domain.MembershipPlan, bool) {
	p, ok := r.plans[level]
	return p, ok
}

func (r *PlanRegistry) Promotions() []string {
	return slices.Clone(r.promotions)
}
