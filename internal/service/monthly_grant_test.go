package service

import (
	"context"
	"testing"
	"time"

	"healthloop/internal/domain"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyGrant_OncePerPeriod(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.grants.now = func() time.Time { return time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC) }

	basic := e.newUser(t, "basic@example.com")
	premium := e.newUser(t, "premium@example.com")
	elite := e.newUser(t, "elite@example.com")
	_, err := e.membership.Upgrade(ctx, premium.ID, domain.MembershipPremium)
	require.NoError(t, err)
	_, err = e.membership.Upgrade(ctx, elite.ID, domain.MembershipElite)
	require.NoError(t, err)

	summary, err := e.grants.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, GrantSummary{Period: "2026-03", Granted: 2}, summary)

	assert.Equal(t, int64(500+200), e.user(t, premium.ID).TotalPointsEarned)
	assert.Equal(t, int64(1000+500), e.user(t, elite.ID).TotalPointsEarned)
	assert.Zero(t, e.user(t, basic.ID).TotalPointsEarned)

	summary, err = e.grants.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, GrantSummary{Period: "2026-03", Skipped: 2}, summary)
	assert.Equal(t, int64(700), e.user(t, premium.ID).TotalPointsEarned)

	e.grants.now = func() time.Time { return time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC) }
	summary, err = e.grants.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Granted)
	assert.Equal(t, int64(900), e.user(t, premium.ID).TotalPointsEarned)

	txs := e.ledger(t, premium.ID)
	assert.Equal(t, domain.ActionMonthlyMembershipPoints, txs[0].Action)
	assert.Contains(t, txs[0].Description, "2026-04")
}

func TestMonthlyGrant_GrantUserOnBasicPlan(t *testing.T) {
	e := newTestEnv(t)
	u := e.newUser(t, "basic@example.com")

	granted, err := e.grants.GrantUser(context.Background(), u.ID, "2026-03")
	require.NoError(t, err)
	assert.False(t, granted)
	assert.Empty(t, e.ledger(t, u.ID))

	_, err = e.grants.GrantUser(context.Background(), 404, "2026-03")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMonthlyGrant_Schedule(t *testing.T) {
	e := newTestEnv(t)
	c := cron.New()

	_, err := e.grants.Schedule(c, "0 3 1 * *")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = e.grants.Schedule(c, "not a schedule")
	assert.Error(t, err)
}

func TestPeriod(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	assert.Equal(t, "2026-02", Period(time.Date(2026, 3, 1, 5, 0, 0, 0, loc)))
}
