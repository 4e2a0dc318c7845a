package insights

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/progress"
	"github.com/organizador/platform/internal/domain/schedules"
)

const trailingWeeks = 4

// CategoryTime is the scheduled time spent in one category.
type CategoryTime struct {
	Category string  `json:"category"`
	Color    string  `json:"color"`
	Hours    float64 `json:"hours"`
}

// PriorityMetrics counts schedules up to today.
type PriorityMetrics struct {
	Today int `json:"today"`
	Week  int `json:"week"`
	Month int `json:"month"`
}

// WeekProgress summarises one calendar week.
type WeekProgress struct {
	WeekStart civil.Date `json:"week_start"`
	DayName   string     `json:"day_name"`
	Score     int        `json:"score"`
	Scheduled int        `json:"scheduled"`
	Completed int        `json:"completed"`
}

// Patterns are the habits derived for the profile page.
type Patterns struct {
	MostProductiveDay string  `json:"most_productive_day"`
	FavoriteCategory  string  `json:"favorite_category"`
	CompletionRate    float64 `json:"completion_rate"`
	RecentTrend       string  `json:"recent_trend"`
	BusiestTime       string  `json:"busiest_time"`
	ConsistencyScore  float64 `json:"consistency_score"`
}

// ProfileStats is the basic profile summary.
type ProfileStats struct {
	CategoryTime       []CategoryTime            `json:"category_time"`
	TotalCompleted     int                       `json:"total_completed"`
	AvgCompletionDays  float64                   `json:"avg_completion_days"`
	PriorityMetrics    PriorityMetrics           `json:"priority_metrics"`
	StatusDistribution map[activities.Status]int `json:"status_distribution"`
	TotalActivities    int                       `json:"total_activities"`
	ProductivityScore  float64                   `json:"productivity_score"`
	ConsistencyScore   float64                   `json:"consistency_score"`
	CurrentStreak      int                       `json:"current_streak"`
	Patterns           Patterns                  `json:"patterns"`
	WeeklyProgress     []WeekProgress            `json:"weekly_progress"`
	AnnualProgress     float64                   `json:"annual_progress"`
	UserID             int64                     `json:"user_id"`
}

// Profile builds the profile summary.
func Profile(s Snapshot) ProfileStats {
	categoryTime := CategoryTimes(s.Schedules)
	completed := s.completedActivities()

	status := make(map[activities.Status]int)
	for _, a := range s.Activities {
		status[a.Status]++
	}

	weekly := WeeklyProgressOf(s)
	tp := TimePatternsOf(s)
	consistency := ConsistencyScore(s)

	var completionRate float64
	if len(s.Activities) > 0 {
		completionRate = activities.Round1(float64(completed) / float64(len(s.Activities)) * 100)
	}

	trend := TrendStable
	if n := len(weekly); n >= 2 && weekly[n-1].Completed > weekly[n-2].Completed {
		trend = TrendUp
	}

	return ProfileStats{
		CategoryTime:       categoryTime,
		TotalCompleted:     completed,
		AvgCompletionDays:  AverageCompletionDays(s),
		PriorityMetrics:    priorityMetrics(s),
		StatusDistribution: status,
		TotalActivities:    len(s.Activities),
		ProductivityScore:  ProductivityScore(s),
		ConsistencyScore:   consistency,
		CurrentStreak:      s.Streak.Current(s.Today),
		Patterns: Patterns{
			MostProductiveDay: maxKey(tp.BusiestDays),
			FavoriteCategory:  favoriteCategory(categoryTime),
			CompletionRate:    completionRate,
			RecentTrend:       trend,
			BusiestTime:       maxKey(tp.PreferredTimes),
			ConsistencyScore:  consistency,
		},
		WeeklyProgress: weekly,
		AnnualProgress: AnnualProgress(s.Today),
		UserID:         s.UserID,
	}
}

// CategoryTimes totals scheduled minutes per category, in hours.
func CategoryTimes(list []schedules.Schedule) []CategoryTime {
	minutes := make(map[int64]int)
	meta := make(map[int64]schedules.Schedule)
	for _, sc := range list {
		minutes[sc.CategoryID] += sc.Duration
		meta[sc.CategoryID] = sc
	}

	out := make([]CategoryTime, 0, len(minutes))
	for id, total := range minutes {
		out = append(out, CategoryTime{
			Category: meta[id].CategoryName,
			Color:    meta[id].CategoryColor,
			Hours:    activities.Round1(float64(total) / 60),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// AverageCompletionDays averages, over completed activities with at least
// two progress entries, the days between the first and last entry. Spans of
// zero days are ignored.
func AverageCompletionDays(s Snapshot) float64 {
	byActivity := make(map[int64][]civil.Date)
	for _, p := range s.Progress {
		byActivity[p.ActivityID] = append(byActivity[p.ActivityID], p.Date)
	}

	var spans []int
	for _, a := range s.Activities {
		if a.Status != activities.StatusCompleted {
			continue
		}
		dates := byActivity[a.ID]
		if len(dates) < 2 {
			continue
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		if days := dates[len(dates)-1].DaysSince(dates[0]); days > 0 {
			spans = append(spans, days)
		}
	}
	if len(spans) == 0 {
		return 0
	}

	sum := 0
	for _, d := range spans {
		sum += d
	}
	return activities.Round1(float64(sum) / float64(len(spans)))
}

func priorityMetrics(s Snapshot) PriorityMetrics {
	monthStart := civil.Date{Year: s.Today.Year, Month: s.Today.Month, Day: 1}
	return PriorityMetrics{
		Today: s.countSchedules(s.Today, s.Today),
		Week:  s.countSchedules(schedules.WeekStart(s.Today), s.Today),
		Month: s.countSchedules(monthStart, s.Today),
	}
}

// WeeklyProgressOf scores the current week and the three before it, oldest
// first. Each progress entry is worth 10 points up to 100.
func WeeklyProgressOf(s Snapshot) []WeekProgress {
	out := make([]WeekProgress, trailingWeeks)
	current := schedules.WeekStart(s.Today)
	for i := 0; i < trailingWeeks; i++ {
		start := current.AddDays(-7 * i)
		end := start.AddDays(6)
		done := s.countProgress(start, end)
		out[trailingWeeks-1-i] = WeekProgress{
			WeekStart: start,
			DayName:   start.In(time.UTC).Weekday().String()[:3],
			Score:     min(done*10, 100),
			Scheduled: s.countSchedules(start, end),
			Completed: done,
		}
	}
	return out
}

func favoriteCategory(times []CategoryTime) string {
	best := ""
	bestHours := -1.0
	for _, ct := range times {
		if ct.Hours > bestHours {
			best, bestHours = ct.Category, ct.Hours
		}
	}
	return best
}

// maxKey returns the key with the highest count, preferring the smallest
// key on ties. It returns "" for an empty map.
func maxKey(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestN := "", 0
	for _, k := range keys {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}

// TimePatterns describes when the user schedules work.
type TimePatterns struct {
	BusiestDays          map[string]int `json:"busiest_days"`
	PreferredTimes       map[string]int `json:"preferred_times"`
	AverageSessionLength float64        `json:"average_session_length"`
	ConsistencyScore     float64        `json:"consistency_score"`
}

// TimePatternsOf counts schedules per weekday and per hour slot, averages
// their duration and scores how evenly they are spaced: every day of
// average gap between scheduled dates costs 10 points.
func TimePatternsOf(s Snapshot) TimePatterns {
	tp := TimePatterns{BusiestDays: map[string]int{}, PreferredTimes: map[string]int{}}
	if len(s.Schedules) == 0 {
		return tp
	}

	total := 0
	dates := make([]civil.Date, 0, len(s.Schedules))
	for _, sc := range s.Schedules {
		day := strings.ToLower(sc.Date.In(time.UTC).Weekday().String())
		tp.BusiestDays[day]++
		if hour, ok := sc.Hour(); ok {
			tp.PreferredTimes[fmt.Sprintf("%02d:00", hour)]++
		}
		total += sc.Duration
		dates = append(dates, sc.Date)
	}
	tp.AverageSessionLength = activities.Round1(float64(total) / float64(len(s.Schedules)))

	if len(dates) > 1 {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		gaps := 0
		for i := 1; i < len(dates); i++ {
			gaps += dates[i].DaysSince(dates[i-1])
		}
		avg := float64(gaps) / float64(len(dates)-1)
		tp.ConsistencyScore = activities.Round1(clamp(100-avg*10, 0, 100))
	}
	return tp
}

// TrailingWeek is the activity of one seven day window.
type TrailingWeek struct {
	WeekStart           civil.Date `json:"week_start"`
	ActivitiesCompleted int        `json:"activities_completed"`
	TotalHours          float64    `json:"total_hours"`
	Productivity        float64    `json:"productivity"`
}

// RecentTrends summarises the trailing weeks.
type RecentTrends struct {
	ProductivityTrend string  `json:"productivity_trend"`
	ConsistencyScore  float64 `json:"consistency_score"`
}

// TimeAnalysis is the schedule timing report.
type TimeAnalysis struct {
	HourlyPatterns map[string]int `json:"hourly_patterns"`
	DailyPatterns  map[string]int `json:"daily_patterns"`
	WeeklyProgress []TrailingWeek `json:"weekly_progress"`
	RecentTrends   RecentTrends   `json:"recent_trends"`
}

// TimeAnalysisOf counts schedules of the last 30 days by start time and by
// day of week (0 = Sunday) and reports the four trailing seven day windows,
// most recent first.
func TimeAnalysisOf(s Snapshot) TimeAnalysis {
	from := s.Today.AddDays(-scoreWindowDays)
	ta := TimeAnalysis{HourlyPatterns: map[string]int{}, DailyPatterns: map[string]int{}}

	for _, sc := range s.Schedules {
		if sc.Date.Before(from) {
			continue
		}
		if sc.Time != "" {
			ta.HourlyPatterns[sc.Time]++
		}
		ta.DailyPatterns[fmt.Sprint(int(sc.Date.In(time.UTC).Weekday()))]++
	}

	for i := 0; i < trailingWeeks; i++ {
		start := s.Today.AddDays(-7 * (i + 1))
		done := s.countProgress(start, start.AddDays(6))
		ta.WeeklyProgress = append(ta.WeeklyProgress, TrailingWeek{
			WeekStart:           start,
			ActivitiesCompleted: done,
			TotalHours:          float64(done) * 0.5,
			Productivity:        float64(done) / 10,
		})
	}

	trend := TrendStable
	if ta.WeeklyProgress[0].ActivitiesCompleted > ta.WeeklyProgress[1].ActivitiesCompleted {
		trend = TrendUp
	}
	ta.RecentTrends = RecentTrends{ProductivityTrend: trend, ConsistencyScore: ConsistencyScore(s)}
	return ta
}

// Period names accepted by PeriodAnalysis.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// CategoryShare is one category's part of a period.
type CategoryShare struct {
	Category   string  `json:"category"`
	Hours      float64 `json:"hours"`
	Percentage float64 `json:"percentage"`
}

// PeriodReport is the scheduled time of a calendar period per category.
type PeriodReport struct {
	Period     string          `json:"period"`
	StartDate  civil.Date      `json:"start_date"`
	EndDate    civil.Date      `json:"end_date"`
	TotalHours float64         `json:"total_hours"`
	ByCategory []CategoryShare `json:"by_category"`
}

// PeriodAnalysis splits the scheduled hours of the current week, month or
// year by category. Unknown periods cover the last seven days.
func PeriodAnalysis(s Snapshot, period string) PeriodReport {
	var start, end civil.Date
	switch period {
	case PeriodWeek:
		start = schedules.WeekStart(s.Today)
		end = start.AddDays(6)
	case PeriodMonth:
		start = civil.Date{Year: s.Today.Year, Month: s.Today.Month, Day: 1}
		end = civil.DateOf(start.In(time.UTC).AddDate(0, 1, -1))
	case PeriodYear:
		start = civil.Date{Year: s.Today.Year, Month: 1, Day: 1}
		end = civil.Date{Year: s.Today.Year, Month: 12, Day: 31}
	default:
		start = s.Today.AddDays(-7)
		end = s.Today
	}

	hours := make(map[string]float64)
	var total float64
	for _, sc := range s.Schedules {
		if sc.Date.Before(start) || sc.Date.After(end) || sc.CategoryName == "" {
			continue
		}
		h := float64(sc.Duration) / 60
		hours[sc.CategoryName] += h
		total += h
	}

	shares := make([]CategoryShare, 0, len(hours))
	for name, h := range hours {
		var pct float64
		if total > 0 {
			pct = activities.Round1(h / total * 100)
		}
		shares = append(shares, CategoryShare{Category: name, Hours: activities.Round1(h), Percentage: pct})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Category < shares[j].Category })

	return PeriodReport{
		Period:     period,
		StartDate:  start,
		EndDate:    end,
		TotalHours: activities.Round1(total),
		ByCategory: shares,
	}
}

// DigestEntry is an activity as fed to the analysis endpoints.
type DigestEntry struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	CategoryName string            `json:"category_name"`
	CreatedAt    time.Time         `json:"created_at"`
	Duration     float64           `json:"duration"`
	Value        float64           `json:"value"`
	Unit         string            `json:"unit"`
	Completed    bool              `json:"completed"`
	Status       activities.Status `json:"status"`
	TargetValue  *float64          `json:"target_value"`
	Efficiency   float64           `json:"efficiency"`
}

const defaultDigestDuration = 30

// ActivityDigest lists the newest activities with their progress. Activities
// without progress get a neutral efficiency of 0.5.
func ActivityDigest(s Snapshot, limit int) []DigestEntry {
	list := append([]activities.Activity(nil), s.Activities...)
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	out := make([]DigestEntry, 0, len(list))
	for _, a := range list {
		total := s.Totals[a.ID]
		pct := activities.PercentComplete(a, total)

		entry := DigestEntry{
			ID:           a.ID,
			Name:         a.Name,
			CategoryName: a.CategoryName,
			CreatedAt:    a.CreatedAt,
			Duration:     defaultDigestDuration,
			Value:        activities.CurrentValue(a, total),
			Unit:         "%",
			Completed:    a.Status == activities.StatusCompleted,
			Status:       a.Status,
			TargetValue:  a.TargetValue,
			Efficiency:   0.5,
		}
		if a.MeasurementType == activities.MeasurementUnits {
			entry.Unit = a.TargetUnit
			if a.TargetValue != nil && *a.TargetValue > 0 {
				entry.Duration = *a.TargetValue
			}
		}
		if pct > 0 {
			entry.Efficiency = pct / 100
		}
		out = append(out, entry)
	}
	return out
}

// ProgressDigest is a recent progress entry with its efficiency.
type ProgressDigest struct {
	progress.Entry
	Category   string  `json:"category"`
	Efficiency float64 `json:"efficiency"`
}

// RecentProgress lists the last week's entries, newest first.
func RecentProgress(s Snapshot, limit int) []ProgressDigest {
	categoryOf := make(map[int64]string, len(s.Activities))
	for _, a := range s.Activities {
		categoryOf[a.ID] = a.CategoryName
	}

	entries := s.progressSince(s.Today.AddDays(-7))
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].ID > entries[j].ID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]ProgressDigest, 0, len(entries))
	for _, e := range entries {
		eff := 0.5
		if e.TargetValue != nil && *e.TargetValue > 0 {
			eff = min(e.Value / *e.TargetValue, 1)
		}
		out = append(out, ProgressDigest{Entry: e, Category: categoryOf[e.ActivityID], Efficiency: eff})
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
