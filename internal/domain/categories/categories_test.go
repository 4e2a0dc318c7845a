package categories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organizador/platform/internal/apperr"
	"github.com/organizador/platform/internal/domain/categories"
	"github.com/organizador/platform/internal/storage/memory"
)

func newService() categories.Service {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	return categories.NewService(memory.NewStore().Options(nil).CategoryRepo, func() time.Time { return now })
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	cat, err := svc.Create(ctx, 1, categories.CreateInput{Name: " Leitura "})
	require.NoError(t, err)
	assert.Equal(t, "Leitura", cat.Name)
	assert.Equal(t, categories.DefaultColor, cat.Color)
	assert.Equal(t, categories.DefaultIcon, cat.Icon)

	_, err = svc.Create(ctx, 1, categories.CreateInput{Name: ""})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.Create(ctx, 1, categories.CreateInput{Name: "Leitura"})
	assert.ErrorIs(t, err, categories.ErrDuplicateName)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUpdate(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a, err := svc.Create(ctx, 1, categories.CreateInput{Name: "Leitura", Color: "#111111"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, categories.CreateInput{Name: "Estudo"})
	require.NoError(t, err)

	name := "Estudo"
	_, err = svc.Update(ctx, 1, a.ID, categories.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, categories.ErrDuplicateName)

	blank := ""
	got, err := svc.Update(ctx, 1, a.ID, categories.UpdateInput{Color: &blank})
	require.NoError(t, err)
	assert.Equal(t, categories.DefaultColor, got.Color, "an empty colour falls back to the default")

	_, err = svc.Update(ctx, 1, a.ID, categories.UpdateInput{Name: &blank})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.Update(ctx, 2, a.ID, categories.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, categories.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	cat, err := svc.Create(ctx, 1, categories.CreateInput{Name: "Leitura"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, 2, cat.ID), categories.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, 1, cat.ID))

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}
