package service

import (
	"context"
	"testing"
	"time"

	"healthloop/internal/domain"
	"healthloop/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsService_Professional(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clock := now.Add(-10 * 24 * time.Hour)
	e := newTestEnvWithStore(t, memory.New(memory.WithClock(func() time.Time { return clock })))
	ctx := context.Background()

	old := e.newUser(t, "old@example.com")
	e.award(t, old.ID, domain.ActionReferFriend) // 300, ten days ago

	clock = now
	fresh := e.newUser(t, "fresh@example.com")
	e.award(t, fresh.ID, domain.ActionReferFriend)
	e.award(t, fresh.ID, domain.ActionReferFriend) // 600 -> Active

	_, err := e.auth.Register(ctx, RegisterRequest{
		Email: "doc@example.com", Name: "Doc", Password: "demo123", Role: domain.RoleProfessional,
	}, RequestMeta{})
	require.NoError(t, err)

	svc := NewStatsService(e.store)
	svc.now = func() time.Time { return now }

	d, err := svc.Professional(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), d.Stats.TotalMembers)
	assert.Equal(t, int64(1), d.Stats.ActiveMembersWeek)
	assert.Equal(t, int64(1), d.Stats.MembersByLevel[domain.LevelActive])
	assert.Equal(t, int64(1), d.Stats.MembersByLevel[domain.LevelBeginner])
	assert.Equal(t, int64(2), d.Stats.MembersByMembership[domain.MembershipBasic])
	assert.Equal(t, int64(300+600+100), d.Stats.PointsAwardedTotal)
	assert.Equal(t, int64(600+100), d.Stats.PointsAwardedToday)

	require.Len(t, d.TopEarners, 2)
	assert.Equal(t, fresh.ID, d.TopEarners[0].UserID)
	assert.Equal(t, 1, d.TopEarners[0].Rank)
	assert.Equal(t, old.ID, d.TopEarners[1].UserID)
}
