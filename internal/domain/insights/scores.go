package insights

import (
	"math"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/schedules"
)

const (
	scoreWindowDays    = 30
	recentProgressGoal = 20.0
)

// Trend directions.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// DashboardStats are the headline counters.
type DashboardStats struct {
	TotalActivities     int `json:"total_activities"`
	CompletedActivities int `json:"completed_activities"`
	TotalCategories     int `json:"total_categories"`
	WeekProgress        int `json:"week_progress"`
}

// Dashboard counts activities, categories and progress entries since Monday.
func Dashboard(s Snapshot) DashboardStats {
	return DashboardStats{
		TotalActivities:     len(s.Activities),
		CompletedActivities: s.completedActivities(),
		TotalCategories:     len(s.Categories),
		WeekProgress:        len(s.progressSince(schedules.WeekStart(s.Today))),
	}
}

// ProductivityScore blends completion ratio (40%), progress entries in the
// last 30 days against a goal of 20 (30%), category variety (20%) and the
// current streak (10%) into a 0-100 score.
func ProductivityScore(s Snapshot) float64 {
	var completion float64
	if total := len(s.Activities); total > 0 {
		completion = math.Min(float64(s.completedActivities())/float64(total)*100, 100) * 0.4
	}

	recent := len(s.progressSince(s.Today.AddDays(-scoreWindowDays)))
	consistency := math.Min(float64(recent)/recentProgressGoal, 1) * 100 * 0.3

	variety := math.Min(float64(len(s.Categories))*10, 100) * 0.2
	streak := math.Min(float64(s.Streak.Current(s.Today))*10, 100) * 0.1

	return activities.Round1(completion + consistency + variety + streak)
}

// ConsistencyScore weighs distinct days with progress (70%) and distinct
// scheduled days (30%) since 30 days ago, capped at 100.
func ConsistencyScore(s Snapshot) float64 {
	from := s.Today.AddDays(-scoreWindowDays)

	progressDays := make(map[civil.Date]bool)
	for _, p := range s.Progress {
		if !p.Date.Before(from) {
			progressDays[p.Date] = true
		}
	}
	scheduleDays := make(map[civil.Date]bool)
	for _, sc := range s.Schedules {
		if !sc.Date.Before(from) {
			scheduleDays[sc.Date] = true
		}
	}

	score := float64(len(progressDays))/scoreWindowDays*100*0.7 +
		float64(len(scheduleDays))/scoreWindowDays*100*0.3
	return activities.Round1(math.Min(score, 100))
}

// GrowthTrend compares progress entries of the last 30 days with the 30
// days before: a change beyond 20% either way is a trend.
func GrowthTrend(s Snapshot) string {
	cut := s.Today.AddDays(-scoreWindowDays)
	prevStart := cut.AddDays(-scoreWindowDays)

	recent := len(s.progressSince(cut))
	previous := s.countProgress(prevStart, cut.AddDays(-1))
	if previous == 0 {
		return TrendStable
	}

	growth := float64(recent-previous) / float64(previous) * 100
	switch {
	case growth > 20:
		return TrendUp
	case growth < -20:
		return TrendDown
	default:
		return TrendStable
	}
}

// Characterization labels how a user finishes what they start.
type Characterization struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Strengths   []string `json:"strengths,omitempty"`
}

// ActivityProfile classifies the user by the share of completed activities.
func ActivityProfile(s Snapshot) Characterization {
	if len(s.Activities) == 0 {
		return Characterization{Type: "beginner", Description: "Starting the productivity journey"}
	}

	pct := float64(s.completedActivities()) / float64(len(s.Activities)) * 100
	switch {
	case pct > 80:
		return Characterization{
			Type:        "achiever",
			Description: "High achiever with a strong ability to finish",
			Strengths:   []string{"Completion", "Focus", "Persistence"},
		}
	case pct > 50:
		return Characterization{
			Type:        "balanced",
			Description: "Balances planning and execution",
			Strengths:   []string{"Versatility", "Adaptability"},
		}
	default:
		return Characterization{
			Type:        "explorer",
			Description: "Exploring many interests at once",
			Strengths:   []string{"Curiosity", "Continuous learning"},
		}
	}
}

// FocusArea is a category holding a large share of the user's activities.
type FocusArea struct {
	Category   string  `json:"category"`
	Percentage float64 `json:"percentage"`
	Level      string  `json:"level"`
}

// FocusAreas lists categories with at least 30% (primary) or 15%
// (secondary) of all activities, largest first.
func FocusAreas(s Snapshot) []FocusArea {
	out := []FocusArea{}
	if len(s.Activities) == 0 {
		return out
	}

	names := s.categoryNames()
	counts := make(map[string]int)
	for _, a := range s.Activities {
		name, ok := names[a.CategoryID]
		if !ok {
			name = a.CategoryName
		}
		if name != "" {
			counts[name]++
		}
	}

	total := float64(len(s.Activities))
	for name, n := range counts {
		pct := float64(n) / total * 100
		var level string
		switch {
		case pct >= 30:
			level = "primary_focus"
		case pct >= 15:
			level = "secondary_focus"
		default:
			continue
		}
		out = append(out, FocusArea{Category: name, Percentage: activities.Round1(pct), Level: level})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// AnnualProgress is the share of the year elapsed on today.
func AnnualProgress(today civil.Date) float64 {
	jan1 := civil.Date{Year: today.Year, Month: 1, Day: 1}
	return activities.Round1(math.Min(float64(today.DaysSince(jan1))/365*100, 100))
}
