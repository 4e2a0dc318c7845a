package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organizador/platform/internal/domain"
	"github.com/organizador/platform/internal/domain/categories"
	"github.com/organizador/platform/internal/domain/rewards"
	"github.com/organizador/platform/internal/domain/users"
	"github.com/organizador/platform/internal/storage/memory"
)

func TestPurge(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	c, err := domain.New(memory.NewStore().Options(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	defaults, err := c.Users.EnsureDefaults(ctx)
	require.NoError(t, err)
	ana, bia := defaults[0].ID, defaults[1].ID

	for _, id := range []int64{ana, bia} {
		_, err = c.Categories.Create(ctx, id, categories.CreateInput{Name: "Leitura"})
		require.NoError(t, err)
		_, err = c.Rewards.Create(ctx, id, rewards.CreateInput{Name: "Cinema", PointsRequired: 5})
		require.NoError(t, err)
		_, err = c.Points.Add(ctx, id, 20, "")
		require.NoError(t, err)
	}

	require.NoError(t, c.Accounts.Purge(ctx, ana))

	cats, err := c.Categories.List(ctx, ana)
	require.NoError(t, err)
	assert.Empty(t, cats)
	list, err := c.Rewards.List(ctx, ana)
	require.NoError(t, err)
	assert.Empty(t, list)
	balance, err := c.Points.Balance(ctx, ana)
	require.NoError(t, err)
	assert.Zero(t, balance.Points)

	balance, err = c.Points.Balance(ctx, bia)
	require.NoError(t, err)
	assert.Equal(t, 20, balance.Points)

	_, err = c.Users.Get(ctx, ana)
	assert.NoError(t, err)

	assert.ErrorIs(t, c.Accounts.Purge(ctx, 42), users.ErrNotFound)
}
