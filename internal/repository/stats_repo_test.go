package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestStatsRepository_Program_PropagatesErrors(t *testing.T) {
	db := new(mockDBTX)
	repo := NewStatsRepository(db)
	ctx := context.Background()
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any(nil)).Return(&mockRow{scanErr: boom})

	_, err := repo.Program(ctx, today, today.AddDate(0, 0, -7))
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "count members")
}

func TestStatsRepository_Program_GroupQueryFails(t *testing.T) {
	db := new(mockDBTX)
	repo := NewStatsRepository(db)
	ctx := context.Background()
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	weekAgo := today.AddDate(0, 0, -7)

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any(nil)).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 3
			return nil
		}})
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{weekAgo}).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 2
			return nil
		}})
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{today, weekAgo}).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 10
			*dest[1].(*int64) = 20
			*dest[2].(*int64) = 30
			return nil
		}})
	db.On("Query", ctx, mock.AnythingOfType("string"), []any(nil)).Return(nil, errors.New("relation missing"))

	_, err := repo.Program(ctx, today, weekAgo)
	assert.ErrorContains(t, err, "count by level")
	db.AssertExpectations(t)
}
