// Package loyalty holds the static catalogs of the points program: the point
// value of each action, the level tiers, membership plans and upgrade bonuses.
// Everything here is pure and side-effect free; a Rules value is built once at
// startup and handed to the services that need it.
package loyalty

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"healthloop/internal/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRules  = errors.New("invalid loyalty rules")
)

// Tier is a points level and the lifetime points needed to enter it.
type Tier struct {
	Level     domain.PointsLevel `json:"level" yaml:"level" validate:"required"`
	MinPoints int64              `json:"min_points" yaml:"min_points" validate:"gte=0"`
}

// Rules is the complete loyalty configuration. Treat it as read-only once built.
type Rules struct {
	ActionPoints          map[domain.Action]int64
	PurchasePointsPerUnit int64
	Tiers                 []Tier
	EliteCeiling          int64
	UpgradeBonus          map[domain.MembershipLevel]int64
	Plans                 []domain.MembershipPlan
	Promotions            []string
}

// DefaultRules returns the built-in program.
func DefaultRules() Rules {
	return Rules{
		ActionPoints: map[domain.Action]int64{
			domain.ActionRegistration:         100,
			domain.ActionFirstPurchase:        200,
			domain.ActionScheduleConsultation: 150,
			domain.ActionCompleteProfile:      50,
			domain.ActionReferFriend:          300,
			domain.ActionCompleteConsultation: 200,
			domain.ActionVideoCompletion:      50,
		},
		PurchasePointsPerUnit: 10,
		Tiers: []Tier{
			{Level: domain.LevelBeginner, MinPoints: 0},
			{Level: domain.LevelActive, MinPoints: 500},
			{Level: domain.LevelPremium, MinPoints: 1500},
			{Level: domain.LevelElite, MinPoints: 5000},
		},
		EliteCeiling: 10000,
		UpgradeBonus: map[domain.MembershipLevel]int64{
			domain.MembershipPremium: 500,
			domain.MembershipElite:   1000,
		},
		Plans: []domain.MembershipPlan{
			{Name: domain.MembershipBasic, Price: 0, DurationDays: 30, ConsultationsPerMonth: 1, MonthlyPoints: 0},
			{Name: domain.MembershipPremium, Price: 29.99, DurationDays: 30, ConsultationsPerMonth: 2, MonthlyPoints: 200},
			{Name: domain.MembershipElite, Price: 59.99, DurationDays: 30, ConsultationsPerMonth: 4, MonthlyPoints: 500},
		},
		Promotions: []string{
			"Upgrade to Premium and receive 500 bonus points",
			"Go Elite: 1000 bonus points and 4 consultations every month",
		},
	}
}

// Validate checks the cross-field constraints the rest of the package relies on.
func (r Rules) Validate() error {
	if len(r.Tiers) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidRules)
	}
	if r.Tiers[0].MinPoints != 0 {
		return fmt.Errorf("%w: first tier must start at 0", ErrInvalidRules)
	}
	for i := 1; i < len(r.Tiers); i++ {
		if r.Tiers[i].MinPoints <= r.Tiers[i-1].MinPoints {
			return fmt.Errorf("%w: tier %s must start above %s", ErrInvalidRules, r.Tiers[i].Level, r.Tiers[i-1].Level)
		}
	}
	if last := r.Tiers[len(r.Tiers)-1]; r.EliteCeiling <= last.MinPoints {
		return fmt.Errorf("%w: ceiling %d must exceed %d", ErrInvalidRules, r.EliteCeiling, last.MinPoints)
	}
	if r.PurchasePointsPerUnit <= 0 {
		return fmt.Errorf("%w: purchase points per unit must be positive", ErrInvalidRules)
	}
	for action, pts := range r.ActionPoints {
		if pts < 0 {
			return fmt.Errorf("%w: negative points for %s", ErrInvalidRules, action)
		}
	}
	if len(r.Plans) == 0 {
		return fmt.Errorf("%w: no membership plans", ErrInvalidRules)
	}
	for _, p := range r.Plans {
		if p.Name.Rank() == 0 {
			return fmt.Errorf("%w: unknown plan %q", ErrInvalidRules, p.Name)
		}
	}
	return nil
}

// UpgradeBonusFor returns the one-time bonus for moving to the given tier.
func (r Rules) UpgradeBonusFor(level domain.MembershipLevel) int64 {
	return r.UpgradeBonus[level]
}

// rulesFile is the YAML override document. Absent fields keep their defaults.
type rulesFile struct {
	ActionPoints          map[string]int64        `yaml:"action_points" validate:"omitempty,dive,gte=0"`
	PurchasePointsPerUnit *int64                  `yaml:"purchase_points_per_unit" validate:"omitempty,gt=0"`
	Tiers                 []Tier                  `yaml:"tiers" validate:"omitempty,dive"`
	EliteCeiling          *int64                  `yaml:"elite_ceiling" validate:"omitempty,gt=0"`
	UpgradeBonus          map[string]int64        `yaml:"upgrade_bonus" validate:"omitempty,dive,gte=0"`
	Plans                 []domain.MembershipPlan `yaml:"plans"`
	Promotions            []string                `yaml:"promotions"`
}

// LoadRules builds Rules from DefaultRules, overlaying the YAML file at path
// when path is non-empty.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(b)
}

// ParseRules overlays a YAML document on DefaultRules.
func ParseRules(doc []byte) (Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(doc, &f); err != nil {
		return Rules{}, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if err := validator.New().Struct(f); err != nil {
		return Rules{}, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	rules := DefaultRules()
	for name, pts := range f.ActionPoints {
		action := domain.Action(name)
		if !slices.Contains(domain.PublicActions, action) {
			return Rules{}, fmt.Errorf("%w: %s", ErrUnknownAction, name)
		}
		rules.ActionPoints[action] = pts
	}
	if f.PurchasePointsPerUnit != nil {
		rules.PurchasePointsPerUnit = *f.PurchasePointsPerUnit
	}
	if len(f.Tiers) > 0 {
		rules.Tiers = f.Tiers
	}
	if f.EliteCeiling != nil {
		rules.EliteCeiling = *f.EliteCeiling
	}
	for name, bonus := range f.UpgradeBonus {
		level := domain.MembershipLevel(name)
		if level.Rank() == 0 {
			return Rules{}, fmt.Errorf("%w: unknown plan %q in upgrade_bonus", ErrInvalidRules, name)
		}
		rules.UpgradeBonus[level] = bonus
	}
	if len(f.Plans) > 0 {
		rules.Plans = f.Plans
	}
	if f.Promotions != nil {
		rules.Promotions = f.Promotions
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}
