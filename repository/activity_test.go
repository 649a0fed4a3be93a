package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portal "github.com/goliatone/go-auth-portal"
)

func setupActivityRepo(t *testing.T) *ActivityRepository {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewActivityRepository(db)
	require.NoError(t, repo.CreateTable(context.Background()))
	return repo
}

func TestActivityRepositoryRecordAndList(t *testing.T) {
	repo := setupActivityRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(ctx, portal.ActivityEvent{
		Type:       portal.ActivityEventSignIn,
		UserID:     "user-1",
		Email:      "ada@example.com",
		Screen:     "signin",
		Outcome:    portal.OutcomeSuccess,
		OccurredAt: base,
	}))
	require.NoError(t, repo.Record(ctx, portal.ActivityEvent{
		Type:       portal.ActivityEventTwoFactorEnabled,
		UserID:     "user-1",
		Outcome:    portal.OutcomeSuccess,
		Metadata:   map[string]any{"backup_codes": float64(10)},
		OccurredAt: base.Add(time.Minute),
	}))
	require.NoError(t, repo.Record(ctx, portal.ActivityEvent{
		Type:    portal.ActivityEventSignIn,
		UserID:  "user-2",
		Outcome: portal.OutcomeFailure,
	}))

	events, err := repo.ListByUser(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, portal.ActivityEventTwoFactorEnabled, events[0].Type)
	assert.Equal(t, float64(10), events[0].Metadata["backup_codes"])
	assert.Equal(t, portal.ActivityEventSignIn, events[1].Type)
	assert.Equal(t, "ada@example.com", events[1].Email)
	assert.NotEmpty(t, events[1].ID)
}

func TestActivityRepositoryListEmpty(t *testing.T) {
	repo := setupActivityRepo(t)

	events, err := repo.ListByUser(context.Background(), "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}
