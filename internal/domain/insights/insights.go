package insights

import (
	"context"
	"time"

	"github.com/organizador/platform/internal/apperr"
)

const (
	digestLimit       = 50
	recentDigestLimit = 100
	aiReadyThreshold  = 10
)

// Enhanced groups the period and characterisation reports shown with the
// complete profile.
type Enhanced struct {
	Weekly           PeriodReport     `json:"weekly"`
	Monthly          PeriodReport     `json:"monthly"`
	Characterization Characterization `json:"characterization"`
	FocusAreas       []FocusArea      `json:"focus_areas"`
	GrowthTrend      string           `json:"growth_trend"`
	CurrentStreak    int              `json:"current_streak"`
	ConsistencyScore float64          `json:"consistency_score"`
}

// CompleteProfile is every profile report in one response.
type CompleteProfile struct {
	Basic        ProfileStats  `json:"basic"`
	Activities   []DigestEntry `json:"activities"`
	TimePatterns TimeAnalysis  `json:"time_patterns"`
	Enhanced     Enhanced      `json:"enhanced"`
	Timestamp    time.Time     `json:"timestamp"`
	AIReady      bool          `json:"ai_ready"`
}

// PeriodSet holds the week, month and year reports plus scheduling habits.
type PeriodSet struct {
	Weekly   PeriodReport `json:"weekly"`
	Monthly  PeriodReport `json:"monthly"`
	Yearly   PeriodReport `json:"yearly"`
	Patterns TimePatterns `json:"patterns"`
}

// Characterizations bundles the profile classification reports.
type Characterizations struct {
	ActivityProfile  Characterization `json:"activity_profile"`
	ConsistencyScore float64          `json:"consistency_score"`
	FocusAreas       []FocusArea      `json:"focus_areas"`
	GrowthTrend      string           `json:"growth_trend"`
}

// EnhancedStats is the extended profile report.
type EnhancedStats struct {
	BasicStats       ProfileStats      `json:"basic_stats"`
	TimeAnalysis     PeriodSet         `json:"time_analysis"`
	Characterization Characterizations `json:"characterization"`
	LastUpdated      time.Time         `json:"last_updated"`
}

// AIEnhanced is the summary block of the analysis payload.
type AIEnhanced struct {
	WeeklyAnalysis  PeriodReport     `json:"weekly_analysis"`
	UserProfileType Characterization `json:"user_profile_type"`
	FocusAreas      []FocusArea      `json:"focus_areas"`
}

// AIAnalysis is the payload handed to external profile analysis.
type AIAnalysis struct {
	UserProfile    ProfileStats     `json:"user_profile"`
	ActivitiesData []ProgressDigest `json:"activities_data"`
	PatternsData   TimeAnalysis     `json:"patterns_data"`
	EnhancedStats  AIEnhanced       `json:"enhanced_stats"`
}

// Service assembles insight reports for a user.
type Service interface {
	Dashboard(ctx context.Context, userID int64) (DashboardStats, error)
	Profile(ctx context.Context, userID int64) (ProfileStats, error)
	Complete(ctx context.Context, userID int64) (CompleteProfile, error)
	Enhanced(ctx context.Context, userID int64) (EnhancedStats, error)
	TimeAnalysis(ctx context.Context, userID int64) (TimeAnalysis, error)
	Historical(ctx context.Context, userID int64, days int) (History, error)
	AIAnalysis(ctx context.Context, userID int64) (AIAnalysis, error)
}

type service struct {
	sources Sources
	now     func() time.Time
}

// NewService builds an insights service reading from src.
func NewService(src Sources, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{sources: src, now: now}
}

func (s *service) load(ctx context.Context, userID int64) (Snapshot, error) {
	return s.sources.Load(ctx, userID, s.now())
}

func (s *service) Dashboard(ctx context.Context, userID int64) (DashboardStats, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return DashboardStats{}, err
	}
	return Dashboard(snap), nil
}

func (s *service) Profile(ctx context.Context, userID int64) (ProfileStats, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return ProfileStats{}, err
	}
	return Profile(snap), nil
}

func (s *service) Complete(ctx context.Context, userID int64) (CompleteProfile, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return CompleteProfile{}, err
	}

	digest := ActivityDigest(snap, digestLimit)
	return CompleteProfile{
		Basic:        Profile(snap),
		Activities:   digest,
		TimePatterns: TimeAnalysisOf(snap),
		Enhanced: Enhanced{
			Weekly:           PeriodAnalysis(snap, PeriodWeek),
			Monthly:          PeriodAnalysis(snap, PeriodMonth),
			Characterization: ActivityProfile(snap),
			FocusAreas:       FocusAreas(snap),
			GrowthTrend:      GrowthTrend(snap),
			CurrentStreak:    snap.Streak.Current(snap.Today),
			ConsistencyScore: ConsistencyScore(snap),
		},
		Timestamp: s.now().UTC(),
		AIReady:   len(digest) > aiReadyThreshold,
	}, nil
}

func (s *service) Enhanced(ctx context.Context, userID int64) (EnhancedStats, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return EnhancedStats{}, err
	}
	return EnhancedStats{
		BasicStats: Profile(snap),
		TimeAnalysis: PeriodSet{
			Weekly:   PeriodAnalysis(snap, PeriodWeek),
			Monthly:  PeriodAnalysis(snap, PeriodMonth),
			Yearly:   PeriodAnalysis(snap, PeriodYear),
			Patterns: TimePatternsOf(snap),
		},
		Characterization: Characterizations{
			ActivityProfile:  ActivityProfile(snap),
			ConsistencyScore: ConsistencyScore(snap),
			FocusAreas:       FocusAreas(snap),
			GrowthTrend:      GrowthTrend(snap),
		},
		LastUpdated: s.now().UTC(),
	}, nil
}

func (s *service) TimeAnalysis(ctx context.Context, userID int64) (TimeAnalysis, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return TimeAnalysis{}, err
	}
	return TimeAnalysisOf(snap), nil
}

func (s *service) Historical(ctx context.Context, userID int64, days int) (History, error) {
	if days == 0 {
		days = DefaultHistoryDays
	}
	if days < 1 || days > MaxHistoryDays {
		return History{}, apperr.Invalidf("days must be between 1 and %d", MaxHistoryDays)
	}
	snap, err := s.load(ctx, userID)
	if err != nil {
		return History{}, err
	}
	return Historical(snap, days), nil
}

func (s *service) AIAnalysis(ctx context.Context, userID int64) (AIAnalysis, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return AIAnalysis{}, err
	}
	return AIAnalysis{
		UserProfile:    Profile(snap),
		ActivitiesData: RecentProgress(snap, recentDigestLimit),
		PatternsData:   TimeAnalysisOf(snap),
		EnhancedStats: AIEnhanced{
			WeeklyAnalysis:  PeriodAnalysis(snap, PeriodWeek),
			UserProfileType: ActivityProfile(snap),
			FocusAreas:      FocusAreas(snap),
		},
	}, nil
}
