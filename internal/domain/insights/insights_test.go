package insights_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organizador/platform/internal/apperr"
	"github.com/organizador/platform/internal/domain"
	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/categories"
	"github.com/organizador/platform/internal/domain/insights"
	"github.com/organizador/platform/internal/domain/progress"
	"github.com/organizador/platform/internal/domain/schedules"
	"github.com/organizador/platform/internal/domain/streaks"
	"github.com/organizador/platform/internal/storage/memory"
)

func day(month time.Month, d int) civil.Date {
	return civil.Date{Year: 2024, Month: month, Day: d}
}

// snapshot is a user on monday 2024-03-04 with three of five activities
// done, a two week streak and three scheduled sessions this week.
func snapshot() insights.Snapshot {
	last := day(time.March, 3)
	return insights.Snapshot{
		UserID: 1,
		Today:  day(time.March, 4),
		Categories: []categories.Category{
			{ID: 1, Name: "Leitura"},
			{ID: 2, Name: "Estudo"},
			{ID: 3, Name: "Exercício"},
		},
		Activities: []activities.Activity{
			{ID: 1, CategoryID: 1, Status: activities.StatusCompleted},
			{ID: 2, CategoryID: 1, Status: activities.StatusCompleted},
			{ID: 3, CategoryID: 1, Status: activities.StatusInProgress},
			{ID: 4, CategoryID: 2, Status: activities.StatusCompleted},
			{ID: 5, CategoryID: 3, Status: activities.StatusWantToDo},
		},
		Progress: []progress.Entry{
			{ActivityID: 1, Date: day(time.January, 20), PointsEarned: 1},
			{ActivityID: 1, Date: day(time.March, 1), PointsEarned: 2},
			{ActivityID: 2, Date: day(time.March, 2), PointsEarned: 3},
			{ActivityID: 4, Date: day(time.March, 4), PointsEarned: 4},
		},
		Schedules: []schedules.Schedule{
			{ActivityID: 1, CategoryID: 1, CategoryName: "Leitura", Date: day(time.March, 4), Time: "09:00", Duration: 60},
			{ActivityID: 4, CategoryID: 2, CategoryName: "Estudo", Date: day(time.March, 5), Time: "09:30", Duration: 30},
			{ActivityID: 3, CategoryID: 1, CategoryName: "Leitura", Date: day(time.March, 6), Time: "18:00", Duration: 90},
		},
		Streak: streaks.WeeklyStreak{UserID: 1, Count: 2, LastActivityDate: &last},
	}
}

func TestDashboard(t *testing.T) {
	got := insights.Dashboard(snapshot())
	want := insights.DashboardStats{TotalActivities: 5, CompletedActivities: 3, TotalCategories: 3, WeekProgress: 1}
	assert.Equal(t, want, got)
}

func TestScores(t *testing.T) {
	s := snapshot()

	// 60% done, 3 recent entries, 3 categories and a streak of 2.
	assert.InDelta(t, 24+4.5+6+2, insights.ProductivityScore(s), 0.05)
	assert.InDelta(t, 10.0, insights.ConsistencyScore(s), 0.05)
	assert.Equal(t, insights.TrendUp, insights.GrowthTrend(s))

	empty := insights.Snapshot{Today: s.Today}
	assert.Zero(t, insights.ProductivityScore(empty))
	assert.Equal(t, insights.TrendStable, insights.GrowthTrend(empty))
}

func TestGrowthTrendDown(t *testing.T) {
	s := snapshot()
	s.Progress = []progress.Entry{
		{Date: day(time.January, 20)},
		{Date: day(time.January, 21)},
		{Date: day(time.January, 22)},
		{Date: day(time.March, 1)},
	}
	assert.Equal(t, insights.TrendDown, insights.GrowthTrend(s))
}

func TestActivityProfile(t *testing.T) {
	s := snapshot()
	assert.Equal(t, "balanced", insights.ActivityProfile(s).Type)

	s.Activities = s.Activities[:2]
	assert.Equal(t, "achiever", insights.ActivityProfile(s).Type)

	s.Activities = []activities.Activity{{Status: activities.StatusWantToDo}}
	assert.Equal(t, "explorer", insights.ActivityProfile(s).Type)

	s.Activities = nil
	assert.Equal(t, "beginner", insights.ActivityProfile(s).Type)
}

func TestFocusAreas(t *testing.T) {
	want := []insights.FocusArea{
		{Category: "Leitura", Percentage: 60, Level: "primary_focus"},
		{Category: "Estudo", Percentage: 20, Level: "secondary_focus"},
		{Category: "Exercício", Percentage: 20, Level: "secondary_focus"},
	}
	if diff := cmp.Diff(want, insights.FocusAreas(snapshot())); diff != "" {
		t.Errorf("FocusAreas() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, insights.FocusAreas(insights.Snapshot{}))
}

func TestTimePatterns(t *testing.T) {
	tp := insights.TimePatternsOf(snapshot())
	assert.Equal(t, map[string]int{"monday": 1, "tuesday": 1, "wednesday": 1}, tp.BusiestDays)
	assert.Equal(t, map[string]int{"09:00": 2, "18:00": 1}, tp.PreferredTimes)
	assert.Equal(t, 60.0, tp.AverageSessionLength)
	assert.Equal(t, 90.0, tp.ConsistencyScore)
}

func TestPeriodAnalysisWeek(t *testing.T) {
	report := insights.PeriodAnalysis(snapshot(), insights.PeriodWeek)
	assert.Equal(t, day(time.March, 4), report.StartDate)
	assert.Equal(t, day(time.March, 10), report.EndDate)
	assert.Equal(t, 3.0, report.TotalHours)

	want := []insights.CategoryShare{
		{Category: "Estudo", Hours: 0.5, Percentage: 16.7},
		{Category: "Leitura", Hours: 2.5, Percentage: 83.3},
	}
	if diff := cmp.Diff(want, report.ByCategory); diff != "" {
		t.Errorf("ByCategory mismatch (-want +got):\n%s", diff)
	}

	month := insights.PeriodAnalysis(snapshot(), insights.PeriodMonth)
	assert.Equal(t, day(time.March, 31), month.EndDate)
}

func TestAnnualProgress(t *testing.T) {
	assert.Equal(t, 17.3, insights.AnnualProgress(day(time.March, 4)))
	assert.Zero(t, insights.AnnualProgress(day(time.January, 1)))
}

func TestHistorical(t *testing.T) {
	h := insights.Historical(snapshot(), 7)

	assert.Equal(t, day(time.February, 26), h.Summary.PeriodStart)
	assert.Equal(t, day(time.March, 4), h.Summary.PeriodEnd)
	assert.Equal(t, 3, h.Summary.TotalCompleted)
	assert.Equal(t, 9, h.Summary.TotalPoints)
	assert.Equal(t, 3, h.Summary.TotalScheduled)

	require.Len(t, h.HistoricalData, 5)
	monday := h.HistoricalData[2]
	assert.Equal(t, day(time.March, 4), monday.Date)
	assert.Equal(t, 1, monday.ActivitiesCompleted)
	assert.Equal(t, 60, monday.TimeSpent)
	assert.Equal(t, map[string]int{"Leitura": 60}, monday.Categories)
	require.Len(t, h.Timeline, 5)

	require.NotNil(t, h.Patterns)
	assert.Equal(t, 0.6, h.Patterns.AverageDailyActivities)
	assert.Equal(t, day(time.March, 1), h.Patterns.BestDay)
	assert.InDelta(t, 18.4, h.Patterns.ConsistencyScore, 0.1)
	assert.Equal(t, insights.TrendStable, h.Patterns.Trend)

	assert.Nil(t, insights.HistoricalPatterns(nil))
}

func TestServiceHistoricalDays(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	c, err := domain.New(memory.NewStore().Options(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	h, err := c.Insights.Historical(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, insights.DefaultHistoryDays, h.Summary.DaysAnalyzed)
	assert.Empty(t, h.HistoricalData)
	assert.Nil(t, h.Patterns)

	for _, days := range []int{-3, insights.MaxHistoryDays + 1} {
		_, err = c.Insights.Historical(ctx, 1, days)
		assert.ErrorIs(t, err, apperr.ErrInvalid)
	}
}

func TestServiceProfile(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	c, err := domain.New(memory.NewStore().Options(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	cat, err := c.Categories.Create(ctx, 1, categories.CreateInput{Name: "Leitura"})
	require.NoError(t, err)
	act, err := c.Activities.Create(ctx, 1, activities.CreateInput{CategoryID: cat.ID, Name: "Caminhar"})
	require.NoError(t, err)
	_, err = c.Progress.Record(ctx, 1, progress.RecordInput{ActivityID: act.ID})
	require.NoError(t, err)

	stats, err := c.Insights.Dashboard(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, insights.DashboardStats{TotalActivities: 1, CompletedActivities: 1, TotalCategories: 1, WeekProgress: 1}, stats)

	profile, err := c.Insights.Profile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalCompleted)
	assert.Equal(t, 100.0, profile.Patterns.CompletionRate)
	assert.Equal(t, int64(1), profile.UserID)

	complete, err := c.Insights.Complete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, complete.AIReady)
	assert.Equal(t, "achiever", complete.Enhanced.Characterization.Type)

	ta, err := c.Insights.TimeAnalysis(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, ta.WeeklyProgress, 4)
}
