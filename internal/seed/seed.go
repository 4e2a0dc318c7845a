// Package seed loads the embedded sample data for both applications.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/organizador/platform/internal/apperr"
	"github.com/organizador/platform/internal/domain"
	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/campaign"
	"github.com/organizador/platform/internal/domain/categories"
	"github.com/organizador/platform/internal/domain/rewards"
)

// Tracker profiles.
const (
	ProfileSample  = "sample"
	ProfileStarter = "starter"
)

//go:embed tracker.yaml
var trackerYAML []byte

//go:embed campaign.yaml
var campaignYAML []byte

type trackerFixtures struct {
	Profiles map[string]trackerProfile `yaml:"profiles"`
}

type trackerProfile struct {
	Categories []categoryFixture `yaml:"categories"`
	Activities []activityFixture `yaml:"activities"`
	Rewards    []rewardFixture   `yaml:"rewards"`
}

type categoryFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	Icon        string `yaml:"icon"`
}

type activityFixture struct {
	Name             string   `yaml:"name"`
	Category         string   `yaml:"category"`
	Description      string   `yaml:"description"`
	TargetValue      *float64 `yaml:"target_value"`
	TargetUnit       string   `yaml:"target_unit"`
	ManualPercentage *float64 `yaml:"manual_percentage"`
	Status           string   `yaml:"status"`
}

type rewardFixture struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	PointsRequired int    `yaml:"points_required"`
}

// Summary counts what a seed run created.
type Summary struct {
	Categories int `json:"categories"`
	Activities int `json:"activities"`
	Rewards    int `json:"rewards"`
}

func loadProfile(name string) (trackerProfile, error) {
	var fixtures trackerFixtures
	if err := yaml.Unmarshal(trackerYAML, &fixtures); err != nil {
		return trackerProfile{}, fmt.Errorf("decode tracker fixtures: %w", err)
	}
	profile, ok := fixtures.Profiles[name]
	if !ok {
		return trackerProfile{}, apperr.Invalidf("unknown profile %q", name)
	}
	return profile, nil
}

// Tracker creates the profile's categories, activities and rewards for
// userID. Categories that already exist are reused.
func Tracker(ctx context.Context, c domain.Container, userID int64, profile string) (Summary, error) {
	p, err := loadProfile(profile)
	if err != nil {
		return Summary{}, err
	}

	existing, err := c.Categories.List(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	byName := make(map[string]int64, len(existing))
	for _, cat := range existing {
		byName[cat.Name] = cat.ID
	}

	var summary Summary
	for _, f := range p.Categories {
		if _, ok := byName[f.Name]; ok {
			continue
		}
		cat, err := c.Categories.Create(ctx, userID, categories.CreateInput{
			Name:        f.Name,
			Description: f.Description,
			Color:       f.Color,
			Icon:        f.Icon,
		})
		if err != nil {
			return summary, fmt.Errorf("seed category %q: %w", f.Name, err)
		}
		byName[cat.Name] = cat.ID
		summary.Categories++
	}

	for _, f := range p.Activities {
		categoryID, ok := byName[f.Category]
		if !ok {
			return summary, fmt.Errorf("seed activity %q: unknown category %q", f.Name, f.Category)
		}
		_, err := c.Activities.Create(ctx, userID, activities.CreateInput{
			CategoryID:       categoryID,
			Name:             f.Name,
			Description:      f.Description,
			TargetValue:      f.TargetValue,
			TargetUnit:       f.TargetUnit,
			ManualPercentage: f.ManualPercentage,
			Status:           activities.Status(f.Status),
		})
		if err != nil {
			return summary, fmt.Errorf("seed activity %q: %w", f.Name, err)
		}
		summary.Activities++
	}

	for _, f := range p.Rewards {
		_, err := c.Rewards.Create(ctx, userID, rewards.CreateInput{
			Name:           f.Name,
			Description:    f.Description,
			PointsRequired: f.PointsRequired,
		})
		if err != nil {
			return summary, fmt.Errorf("seed reward %q: %w", f.Name, err)
		}
		summary.Rewards++
	}
	return summary, nil
}

// ResetUser purges the user's tracker data and applies profile again.
func ResetUser(ctx context.Context, c domain.Container, userID int64, profile string) (Summary, error) {
	if _, err := loadProfile(profile); err != nil {
		return Summary{}, err
	}
	if err := c.Accounts.Purge(ctx, userID); err != nil {
		return Summary{}, err
	}
	return Tracker(ctx, c, userID, profile)
}

type campaignFixtures struct {
	Members []struct {
		Name      string   `yaml:"name"`
		Kind      string   `yaml:"kind"`
		School    string   `yaml:"school"`
		Phone     string   `yaml:"phone"`
		Region    string   `yaml:"region"`
		BallotBox string   `yaml:"ballot_box"`
		Supporter bool     `yaml:"supporter"`
		Latitude  *float64 `yaml:"latitude"`
		Longitude *float64 `yaml:"longitude"`
	} `yaml:"members"`
	Events []struct {
		Title         string `yaml:"title"`
		Description   string `yaml:"description"`
		InDays        int    `yaml:"in_days"`
		Hour          int    `yaml:"hour"`
		DurationHours int    `yaml:"duration_hours"`
		Kind          string `yaml:"kind"`
		Location      string `yaml:"location"`
		Region        string `yaml:"region"`
		Expected      int    `yaml:"expected_attendees"`
		Responsible   string `yaml:"responsible"`
	} `yaml:"events"`
	Goals []struct {
		Title          string `yaml:"title"`
		Target         int    `yaml:"target"`
		Current        int    `yaml:"current"`
		DeadlineInDays *int   `yaml:"deadline_in_days"`
		Kind           string `yaml:"kind"`
		Region         string `yaml:"region"`
	} `yaml:"goals"`
	Messages []struct {
		Title   string `yaml:"title"`
		Body    string `yaml:"body"`
		Segment string `yaml:"segment"`
	} `yaml:"messages"`
}

// CampaignSummary counts what Campaign created.
type CampaignSummary struct {
	Members  int
	Events   int
	Goals    int
	Messages int
}

// Campaign creates the sample members, events, goals and messages. Dates
// are placed relative to now.
func Campaign(ctx context.Context, svc campaign.Service, now time.Time) (CampaignSummary, error) {
	var f campaignFixtures
	if err := yaml.Unmarshal(campaignYAML, &f); err != nil {
		return CampaignSummary{}, fmt.Errorf("decode campaign fixtures: %w", err)
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var summary CampaignSummary
	for _, m := range f.Members {
		_, err := svc.CreateMember(ctx, campaign.MemberInput{
			Name:      m.Name,
			Kind:      m.Kind,
			School:    m.School,
			Phone:     m.Phone,
			Region:    m.Region,
			BallotBox: m.BallotBox,
			Supporter: m.Supporter,
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
		})
		if err != nil {
			return summary, fmt.Errorf("seed member %q: %w", m.Name, err)
		}
		summary.Members++
	}

	for _, e := range f.Events {
		start := day.AddDate(0, 0, e.InDays).Add(time.Duration(e.Hour) * time.Hour)
		input := campaign.EventInput{
			Title:             e.Title,
			Description:       e.Description,
			StartsAt:          start,
			Kind:              e.Kind,
			Location:          e.Location,
			Region:            e.Region,
			ExpectedAttendees: e.Expected,
			Responsible:       e.Responsible,
		}
		if e.DurationHours > 0 {
			end := start.Add(time.Duration(e.DurationHours) * time.Hour)
			input.EndsAt = &end
		}
		if _, err := svc.CreateEvent(ctx, input); err != nil {
			return summary, fmt.Errorf("seed event %q: %w", e.Title, err)
		}
		summary.Events++
	}

	for _, g := range f.Goals {
		input := campaign.GoalInput{
			Title:   g.Title,
			Target:  g.Target,
			Current: g.Current,
			Kind:    g.Kind,
			Region:  g.Region,
		}
		if g.DeadlineInDays != nil {
			deadline := day.AddDate(0, 0, *g.DeadlineInDays)
			input.Deadline = &deadline
		}
		if _, err := svc.CreateGoal(ctx, input); err != nil {
			return summary, fmt.Errorf("seed goal %q: %w", g.Title, err)
		}
		summary.Goals++
	}

	for _, m := range f.Messages {
		_, err := svc.CreateMessage(ctx, campaign.MessageInput{Title: m.Title, Body: m.Body, Segment: m.Segment})
		if err != nil {
			return summary, fmt.Errorf("seed message %q: %w", m.Title, err)
		}
		summary.Messages++
	}
	return summary, nil
}
