package insights

import (
	"math"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/organizador/platform/internal/domain/activities"
)

const (
	DefaultHistoryDays = 90
	MaxHistoryDays     = 3650
)

// Day aggregates one calendar day.
type Day struct {
	Date                civil.Date     `json:"date"`
	ActivitiesCompleted int            `json:"activities_completed"`
	PointsEarned        int            `json:"points_earned"`
	ScheduledActivities int            `json:"scheduled_activities"`
	TimeSpent           int            `json:"time_spent"`
	Categories          map[string]int `json:"categories"`
}

// HistorySummary totals the analysed window.
type HistorySummary struct {
	TotalCompleted int        `json:"total_completed"`
	TotalPoints    int        `json:"total_points"`
	TotalScheduled int        `json:"total_scheduled"`
	DaysAnalyzed   int        `json:"days_analyzed"`
	PeriodStart    civil.Date `json:"period_start"`
	PeriodEnd      civil.Date `json:"period_end"`
}

// TimelinePoint is the compact form of a Day.
type TimelinePoint struct {
	Date      civil.Date `json:"date"`
	Completed int        `json:"completed"`
	Scheduled int        `json:"scheduled"`
	Points    int        `json:"points"`
}

// HistoryPatterns describes the shape of the daily series.
type HistoryPatterns struct {
	AverageDailyActivities float64    `json:"average_daily_activities"`
	BestDay                civil.Date `json:"best_day"`
	BestDayCount           int        `json:"best_day_count"`
	ConsistencyScore       float64    `json:"consistency_score"`
	Trend                  string     `json:"trend"`
}

// History is the day by day report of a trailing window.
type History struct {
	HistoricalData []Day            `json:"historical_data"`
	Summary        HistorySummary   `json:"summary"`
	Timeline       []TimelinePoint  `json:"timeline"`
	Patterns       *HistoryPatterns `json:"patterns"`
}

// Historical aggregates progress and schedules dated on or after days ago.
// Only days with data appear in the series.
func Historical(s Snapshot, days int) History {
	start := s.Today.AddDays(-days)
	byDate := make(map[civil.Date]*Day)
	dayOf := func(d civil.Date) *Day {
		day, ok := byDate[d]
		if !ok {
			day = &Day{Date: d, Categories: map[string]int{}}
			byDate[d] = day
		}
		return day
	}

	for _, p := range s.Progress {
		if p.Date.Before(start) {
			continue
		}
		day := dayOf(p.Date)
		day.ActivitiesCompleted++
		day.PointsEarned += p.PointsEarned
	}
	for _, sc := range s.Schedules {
		if sc.Date.Before(start) {
			continue
		}
		day := dayOf(sc.Date)
		day.ScheduledActivities++
		day.TimeSpent += sc.Duration
		if sc.CategoryName != "" {
			day.Categories[sc.CategoryName] += sc.Duration
		}
	}

	series := make([]Day, 0, len(byDate))
	for _, day := range byDate {
		series = append(series, *day)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	h := History{
		HistoricalData: series,
		Summary: HistorySummary{
			DaysAnalyzed: days,
			PeriodStart:  start,
			PeriodEnd:    s.Today,
		},
		Timeline: make([]TimelinePoint, 0, len(series)),
		Patterns: HistoricalPatterns(series),
	}
	for _, day := range series {
		h.Summary.TotalCompleted += day.ActivitiesCompleted
		h.Summary.TotalPoints += day.PointsEarned
		h.Summary.TotalScheduled += day.ScheduledActivities
		h.Timeline = append(h.Timeline, TimelinePoint{
			Date:      day.Date,
			Completed: day.ActivitiesCompleted,
			Scheduled: day.ScheduledActivities,
			Points:    day.PointsEarned,
		})
	}
	return h
}

// HistoricalPatterns computes the daily average, the best day, a
// consistency score of 100 minus the coefficient of variation in percent,
// and, with at least two weeks of data, whether the last seven entries
// beat the first seven by more than 20%. It returns nil for an empty
// series.
func HistoricalPatterns(series []Day) *HistoryPatterns {
	if len(series) == 0 {
		return nil
	}

	best := series[0]
	sum := 0
	for _, day := range series {
		sum += day.ActivitiesCompleted
		if day.ActivitiesCompleted > best.ActivitiesCompleted {
			best = day
		}
	}
	mean := float64(sum) / float64(len(series))

	var variance float64
	for _, day := range series {
		d := float64(day.ActivitiesCompleted) - mean
		variance += d * d
	}
	variance /= float64(len(series))

	var consistency float64
	if mean > 0 {
		consistency = math.Max(0, 100-math.Sqrt(variance)/mean*100)
	}

	trend := TrendStable
	if len(series) >= 14 {
		first := averageCompleted(series[:7])
		last := averageCompleted(series[len(series)-7:])
		switch {
		case last > first*1.2:
			trend = TrendUp
		case last < first*0.8:
			trend = TrendDown
		}
	}

	return &HistoryPatterns{
		AverageDailyActivities: activities.Round1(mean),
		BestDay:                best.Date,
		BestDayCount:           best.ActivitiesCompleted,
		ConsistencyScore:       activities.Round1(consistency),
		Trend:                  trend,
	}
}

func averageCompleted(days []Day) float64 {
	sum := 0
	for _, d := range days {
		sum += d.ActivitiesCompleted
	}
	return float64(sum) / float64(len(days))
}
