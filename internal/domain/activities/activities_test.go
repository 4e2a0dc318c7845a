package activities_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organizador/platform/internal/apperr"
	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/categories"
	"github.com/organizador/platform/internal/storage/memory"
)

var now = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (activities.Service, int64) {
	t.Helper()
	opts := memory.NewStore().Options(func() time.Time { return now })
	cat, err := opts.CategoryRepo.Create(context.Background(), categories.Category{UserID: 1, Name: "Leitura", CreatedAt: now})
	require.NoError(t, err)
	return activities.NewService(opts.ActivityRepo, opts.CategoryRepo, opts.Now), cat.ID
}

func float(v float64) *float64 { return &v }

func TestCreateDerivesMeasurementType(t *testing.T) {
	svc, catID := setup(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input activities.CreateInput
		want  activities.MeasurementType
	}{
		{"target and unit", activities.CreateInput{TargetValue: float(300), TargetUnit: "páginas"}, activities.MeasurementUnits},
		{"target without unit", activities.CreateInput{TargetValue: float(300), ManualPercentage: float(10)}, activities.MeasurementPercentage},
		{"manual percentage", activities.CreateInput{ManualPercentage: float(0)}, activities.MeasurementPercentage},
		{"nothing", activities.CreateInput{}, activities.MeasurementBoolean},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.input.CategoryID = catID
			tc.input.Name = tc.name
			a, err := svc.Create(ctx, 1, tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, a.MeasurementType)
			assert.Equal(t, activities.StatusWantToDo, a.Status)
		})
	}
}

func TestCreateValidates(t *testing.T) {
	svc, catID := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, activities.CreateInput{CategoryID: catID})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.Create(ctx, 2, activities.CreateInput{CategoryID: catID, Name: "Outro dono"})
	assert.ErrorIs(t, err, activities.ErrInvalidCategory)

	_, err = svc.Create(ctx, 1, activities.CreateInput{CategoryID: catID, Name: "x", Status: "paused"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.Create(ctx, 1, activities.CreateInput{CategoryID: catID, Name: "x", ManualPercentage: float(120)})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.Create(ctx, 1, activities.CreateInput{CategoryID: catID, Name: "x", ParentID: new(int64)})
	assert.ErrorIs(t, err, activities.ErrInvalidParent)
}

func TestUpdateResetsOtherMeasurementFields(t *testing.T) {
	svc, catID := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, 1, activities.CreateInput{CategoryID: catID, Name: "Ler", TargetValue: float(300), TargetUnit: "páginas"})
	require.NoError(t, err)

	pct := activities.MeasurementPercentage
	updated, err := svc.Update(ctx, 1, a.ID, activities.UpdateInput{MeasurementType: &pct})
	require.NoError(t, err)
	assert.Nil(t, updated.TargetValue)
	assert.Empty(t, updated.TargetUnit)
	require.NotNil(t, updated.ManualPercentage)
	assert.Zero(t, *updated.ManualPercentage)

	boolean := activities.MeasurementBoolean
	updated, err = svc.Update(ctx, 1, a.ID, activities.UpdateInput{MeasurementType: &boolean})
	require.NoError(t, err)
	assert.Nil(t, updated.ManualPercentage)
}

func TestUpdateRejectsCycles(t *testing.T) {
	svc, catID := setup(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, 1, activities.CreateInput{CategoryID: catID, Name: "Livro"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, 1, activities.CreateInput{CategoryID: catID, Name: "Parte", ParentID: &root.ID})
	require.NoError(t, err)
	grandchild, err := svc.Create(ctx, 1, activities.CreateInput{CategoryID: catID, Name: "Capítulo", ParentID: &child.ID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, root.ID, activities.UpdateInput{ParentID: &root.ID})
	assert.ErrorIs(t, err, activities.ErrCycle)

	_, err = svc.Update(ctx, 1, root.ID, activities.UpdateInput{ParentID: &grandchild.ID})
	assert.ErrorIs(t, err, activities.ErrCycle)

	moved, err := svc.Update(ctx, 1, grandchild.ID, activities.UpdateInput{ParentID: &root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *moved.ParentID)

	cleared, err := svc.Update(ctx, 1, grandchild.ID, activities.UpdateInput{ClearParent: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.ParentID)

	tree, err := svc.Hierarchy(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, tree, 2)
}

func TestGetIncludesFamily(t *testing.T) {
	svc, catID := setup(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, 1, activities.CreateInput{CategoryID: catID, Name: "Livro"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, 1, activities.CreateInput{CategoryID: catID, Name: "Capítulo", ParentID: &root.ID})
	require.NoError(t, err)

	detail, err := svc.Get(ctx, 1, root.ID)
	require.NoError(t, err)
	require.Len(t, detail.Children, 1)
	assert.Equal(t, "Capítulo", detail.Children[0].Name)

	detail, err = svc.Get(ctx, 1, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "Livro", detail.ParentName)
	assert.Empty(t, detail.Children)

	_, err = svc.Get(ctx, 2, child.ID)
	assert.ErrorIs(t, err, activities.ErrNotFound)
}
