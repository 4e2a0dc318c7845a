package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/categories"
	"github.com/organizador/platform/internal/domain/points"
	"github.com/organizador/platform/internal/domain/progress"
	"github.com/organizador/platform/internal/domain/schedules"
	"github.com/organizador/platform/internal/domain/users"
	"github.com/organizador/platform/internal/storage/memory"
)

var created = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func seedActivity(t *testing.T, store *memory.Store) (categories.Category, activities.Activity) {
	t.Helper()
	ctx := context.Background()
	opts := store.Options(nil)

	user, err := opts.UserRepo.Create(ctx, users.User{Username: "ana", Email: "ana@exemplo.com", CreatedAt: created})
	require.NoError(t, err)

	cat, err := opts.CategoryRepo.Create(ctx, categories.Category{UserID: user.ID, Name: "Leitura", Color: "#3498db", CreatedAt: created})
	require.NoError(t, err)

	act, err := opts.ActivityRepo.Create(ctx, activities.Activity{
		UserID:          user.ID,
		CategoryID:      cat.ID,
		Name:            "Ler",
		MeasurementType: activities.MeasurementBoolean,
		Status:          activities.StatusWantToDo,
		CreatedAt:       created,
	})
	require.NoError(t, err)
	return cat, act
}

func TestCategoryNamesAreUniquePerUser(t *testing.T) {
	store := memory.NewStore()
	cat, _ := seedActivity(t, store)
	repo := store.Options(nil).CategoryRepo
	ctx := context.Background()

	_, err := repo.Create(ctx, categories.Category{UserID: cat.UserID, Name: "Leitura"})
	assert.ErrorIs(t, err, categories.ErrDuplicateName)

	_, err = repo.Create(ctx, categories.Category{UserID: cat.UserID + 1, Name: "Leitura"})
	assert.NoError(t, err)
}

func TestActivityReadsAreEnriched(t *testing.T) {
	store := memory.NewStore()
	cat, parent := seedActivity(t, store)
	repo := store.Options(nil).ActivityRepo
	ctx := context.Background()

	_, err := repo.Create(ctx, activities.Activity{
		UserID:     parent.UserID,
		CategoryID: cat.ID,
		Name:       "Capitulo 1",
		ParentID:   &parent.ID,
		CreatedAt:  created.Add(time.Minute),
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, parent.UserID, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leitura", got.CategoryName)
	assert.Equal(t, "#3498db", got.CategoryColor)
	assert.Equal(t, 1, got.ChildrenCount)

	list, err := repo.List(ctx, parent.UserID, activities.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Capitulo 1", list[0].Name, "newest first")

	_, err = repo.Get(ctx, parent.UserID+1, parent.ID)
	assert.ErrorIs(t, err, activities.ErrNotFound)
}

func TestDeleteCategoryCascades(t *testing.T) {
	store := memory.NewStore()
	cat, act := seedActivity(t, store)
	opts := store.Options(nil)
	ctx := context.Background()
	day := civil.Date{Year: 2024, Month: 3, Day: 4}

	_, err := opts.ProgressRepo.Create(ctx, progress.Entry{ActivityID: act.ID, UserID: act.UserID, Date: day, Value: 1})
	require.NoError(t, err)
	_, err = opts.ScheduleRepo.Create(ctx, schedules.Schedule{ActivityID: act.ID, UserID: act.UserID, Date: day})
	require.NoError(t, err)

	require.NoError(t, opts.CategoryRepo.Delete(ctx, act.UserID, cat.ID))

	n, err := opts.ActivityRepo.Count(ctx, act.UserID)
	require.NoError(t, err)
	assert.Zero(t, n)

	entries, err := opts.ProgressRepo.ListByUser(ctx, act.UserID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	list, err := opts.ScheduleRepo.ListByUser(ctx, act.UserID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteActivityDetachesChildrenAndLedger(t *testing.T) {
	store := memory.NewStore()
	cat, parent := seedActivity(t, store)
	opts := store.Options(nil)
	ctx := context.Background()

	child, err := opts.ActivityRepo.Create(ctx, activities.Activity{
		UserID: parent.UserID, CategoryID: cat.ID, Name: "Filho", ParentID: &parent.ID,
	})
	require.NoError(t, err)

	_, err = opts.PointsRepo.Apply(ctx, parent.UserID, 10, &points.Transaction{
		Points: 10, Description: "Progress on Ler", ActivityID: &parent.ID, CreatedAt: created,
	}, created)
	require.NoError(t, err)

	require.NoError(t, opts.ActivityRepo.Delete(ctx, parent.UserID, parent.ID))

	got, err := opts.ActivityRepo.Get(ctx, parent.UserID, child.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)

	txs, err := opts.PointsRepo.Transactions(ctx, parent.UserID, 50)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Nil(t, txs[0].ActivityID)
}

func TestProgressIsUniquePerDay(t *testing.T) {
	store := memory.NewStore()
	_, act := seedActivity(t, store)
	repo := store.Options(nil).ProgressRepo
	ctx := context.Background()
	day := civil.Date{Year: 2024, Month: 3, Day: 4}

	entry, err := repo.Create(ctx, progress.Entry{ActivityID: act.ID, UserID: act.UserID, Date: day})
	require.NoError(t, err)
	assert.Equal(t, "Ler", entry.ActivityName)

	_, err = repo.Create(ctx, progress.Entry{ActivityID: act.ID, UserID: act.UserID, Date: day})
	assert.ErrorIs(t, err, progress.ErrDuplicateEntry)

	_, err = repo.Create(ctx, progress.Entry{ActivityID: act.ID, UserID: act.UserID, Date: day.AddDays(1)})
	assert.NoError(t, err)
}

func TestApplyNeverGoesNegative(t *testing.T) {
	repo := memory.NewStore().Options(nil).PointsRepo
	ctx := context.Background()

	b, err := repo.Apply(ctx, 1, 20, &points.Transaction{Points: 20, CreatedAt: created}, created)
	require.NoError(t, err)
	assert.Equal(t, 20, b.Points)

	_, err = repo.Apply(ctx, 1, -30, &points.Transaction{Points: -30, CreatedAt: created}, created)
	assert.ErrorIs(t, err, points.ErrInsufficientPoints)

	b, err = repo.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, b.Points)

	txs, err := repo.Transactions(ctx, 1, 50)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestPurgeUserKeepsOtherUsers(t *testing.T) {
	store := memory.NewStore()
	_, act := seedActivity(t, store)
	opts := store.Options(nil)
	ctx := context.Background()

	other, err := opts.CategoryRepo.Create(ctx, categories.Category{UserID: act.UserID + 1, Name: "Outra"})
	require.NoError(t, err)
	_, err = opts.PointsRepo.Apply(ctx, act.UserID, 5, nil, created)
	require.NoError(t, err)

	require.NoError(t, store.PurgeUser(ctx, act.UserID))

	cats, err := opts.CategoryRepo.List(ctx, act.UserID)
	require.NoError(t, err)
	assert.Empty(t, cats)

	b, err := opts.PointsRepo.Balance(ctx, act.UserID)
	require.NoError(t, err)
	assert.Zero(t, b.Points)

	_, err = opts.CategoryRepo.Get(ctx, other.UserID, other.ID)
	assert.NoError(t, err)

	_, err = opts.UserRepo.Get(ctx, act.UserID)
	assert.NoError(t, err, "user row survives a purge")
}

func TestInTxPublishesOnlyOnSuccess(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(tx *memory.Store) error {
		if _, err := tx.Options(nil).PointsRepo.Apply(ctx, 1, 20, &points.Transaction{Points: 20, CreatedAt: created}, created); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	repo := store.Options(nil).PointsRepo
	b, err := repo.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, b.Points)
	txs, err := repo.Transactions(ctx, 1, 50)
	require.NoError(t, err)
	assert.Empty(t, txs)

	err = store.InTx(ctx, func(tx *memory.Store) error {
		return tx.InTx(ctx, func(inner *memory.Store) error {
			_, err := inner.Options(nil).PointsRepo.Apply(ctx, 1, 20, &points.Transaction{Points: 20, CreatedAt: created}, created)
			return err
		})
	})
	require.NoError(t, err)

	b, err = repo.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, b.Points)
}
