package service

import (
	"context"
	"testing"

	"healthloop/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgrade_BasicToPremium(t *testing.T) {
	e := newTestEnv(t)
	u := e.newUser(t, "ana@example.com")

	res, err := e.membership.Upgrade(context.Background(), u.ID, domain.MembershipPremium)
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipPremium, res.MembershipLevel)
	assert.Equal(t, int64(500), res.BonusPoints)
	assert.Equal(t, 2, res.Benefits.ConsultationsPerMonth)

	got := e.user(t, u.ID)
	assert.Equal(t, domain.MembershipPremium, got.MembershipLevel)
	assert.Equal(t, int64(500), got.Points)
	assert.Equal(t, domain.LevelActive, got.Level)

	txs := e.ledger(t, u.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.ActionMembershipUpgrade, txs[0].Action)

	assert.Contains(t, e.events.types(), EventMembershipUpgraded)

	logs, err := e.audit.UserActivity(context.Background(), u.ID, 10)
	require.NoError(t, err)
	var actions []string
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Contains(t, actions, domain.AuditActionMembershipUpgrade)
	assert.Contains(t, actions, domain.AuditActionLevelUp)
}

func TestUpgrade_SameLevelLeavesBalancesUnchanged(t *testing.T) {
	e := newTestEnv(t)
	u := e.newUser(t, "ana@example.com")
	ctx := context.Background()

	_, err := e.membership.Upgrade(ctx, u.ID, domain.MembershipElite)
	require.NoError(t, err)
	before := e.user(t, u.ID)
	require.Equal(t, int64(1000), before.TotalPointsEarned)

	_, err = e.membership.Upgrade(ctx, u.ID, domain.MembershipElite)
	assert.ErrorIs(t, err, ErrSameLevel)

	after := e.user(t, u.ID)
	assert.Equal(t, before.Points, after.Points)
	assert.Equal(t, before.TotalPointsEarned, after.TotalPointsEarned)
	assert.Len(t, e.ledger(t, u.ID), 1)
}

func TestUpgrade_Rejections(t *testing.T) {
	e := newTestEnv(t)
	u := e.newUser(t, "ana@example.com")
	ctx := context.Background()

	_, err := e.membership.Upgrade(ctx, u.ID, "platinum")
	assert.ErrorIs(t, err, ErrUnknownPlan)

	_, err = e.membership.Upgrade(ctx, 404, domain.MembershipPremium)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = e.membership.Upgrade(ctx, u.ID, domain.MembershipElite)
	require.NoError(t, err)

	_, err = e.membership.Upgrade(ctx, u.ID, domain.MembershipPremium)
	assert.ErrorIs(t, err, ErrDowngradeNotSupported)
	assert.Equal(t, domain.MembershipElite, e.user(t, u.ID).MembershipLevel)
}

func TestUpgrade_BasicUserToBasic(t *testing.T) {
	e := newTestEnv(t)
	u := e.newUser(t, "ana@example.com")

	_, err := e.membership.Upgrade(context.Background(), u.ID, domain.MembershipBasic)
	assert.ErrorIs(t, err, ErrSameLevel)
	assert.Empty(t, e.ledger(t, u.ID))
}

func TestMembershipCatalog(t *testing.T) {
	e := newTestEnv(t)

	plans := e.membership.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, domain.MembershipBasic, plans[0].Name)
	assert.InDelta(t, 59.99, plans[2].Price, 1e-9)
	assert.NotEmpty(t, e.membership.Promotions())
}
