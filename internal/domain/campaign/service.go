package campaign

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/organizador/platform/internal/apperr"
)

const upcomingWindow = 30 * 24 * time.Hour

// MemberInput describes a new member.
type MemberInput struct {
	Name      string
	Kind      string
	School    string
	Phone     string
	Region    string
	BallotBox string
	JoinedAt  *time.Time
	Skills    string
	Tags      string
	Supporter bool
	Latitude  *float64
	Longitude *float64
	Notes     string
}

// ContactInput records a conversation with a member.
type ContactInput struct {
	At          *time.Time
	Channel     string
	Outcome     string
	Notes       string
	Responsible string
}

// EventInput describes a new event.
type EventInput struct {
	Title              string
	Description        string
	StartsAt           time.Time
	EndsAt             *time.Time
	Kind               string
	Location           string
	Region             string
	ConfirmedAttendees int
	ExpectedAttendees  int
	Responsible        string
}

// GoalInput describes a new goal.
type GoalInput struct {
	Title       string
	Description string
	Target      int
	Current     int
	Deadline    *time.Time
	Kind        string
	Region      string
}

// MessageInput describes a new message.
type MessageInput struct {
	Title       string
	Body        string
	Segment     string
	ScheduledAt *time.Time
}

// GoalView is a goal with its derived progress.
type GoalView struct {
	Goal
	Percent       float64 `json:"percent"`
	DaysRemaining *int    `json:"days_remaining"`
}

// MemberSummary counts members by status, kind and region.
type MemberSummary struct {
	Total      int            `json:"total"`
	Supporters int            `json:"supporters"`
	Contacted  int            `json:"contacted"`
	ByKind     map[string]int `json:"by_kind"`
	ByRegion   map[string]int `json:"by_region"`
}

// KPI is the dashboard headline.
type KPI struct {
	Members        MemberCounts `json:"members"`
	OpenGoals      int          `json:"open_goals"`
	UpcomingEvents int          `json:"upcoming_events"`
	SentMessages   int          `json:"sent_messages"`
}

// MemberCounts is the member part of the KPI.
type MemberCounts struct {
	Total      int `json:"total"`
	Supporters int `json:"supporters"`
	Contacted  int `json:"contacted"`
}

// Point is a member on the territory map.
type Point struct {
	ID        int64   `json:"id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Supporter bool    `json:"supporter"`
	School    string  `json:"school"`
}

// Service provides campaign business logic.
type Service interface {
	ListMembers(ctx context.Context, filter MemberFilter) ([]Member, error)
	GetMember(ctx context.Context, id int64) (Member, error)
	CreateMember(ctx context.Context, input MemberInput) (Member, error)
	MemberSummary(ctx context.Context) (MemberSummary, error)
	ListContacts(ctx context.Context, memberID int64) ([]Contact, error)
	RecordContact(ctx context.Context, memberID int64, input ContactInput) (Contact, error)

	ListEvents(ctx context.Context) ([]Event, error)
	CreateEvent(ctx context.Context, input EventInput) (Event, error)
	Calendar(ctx context.Context, year int, month time.Month) (Calendar, error)

	ListGoals(ctx context.Context) ([]GoalView, error)
	CreateGoal(ctx context.Context, input GoalInput) (GoalView, error)
	UpdateGoalProgress(ctx context.Context, id int64, current int) (GoalView, error)

	ListMessages(ctx context.Context) ([]Message, error)
	CreateMessage(ctx context.Context, input MessageInput) (Message, error)
	SendMessage(ctx context.Context, id int64) (Message, error)

	KPI(ctx context.Context) (KPI, error)
	Territory(ctx context.Context) ([]Point, error)
	Regions(ctx context.Context) ([]string, error)
}

type service struct {
	repos Repositories
	now   func() time.Time
}

// NewService builds the campaign service.
func NewService(repos Repositories, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	if repos.Atomic == nil {
		repos.Atomic = func(_ context.Context, fn func(Repositories) error) error { return fn(repos) }
	}
	return &service{repos: repos, now: now}
}

func (s *service) ListMembers(ctx context.Context, filter MemberFilter) ([]Member, error) {
	filter.Region = strings.TrimSpace(filter.Region)
	return s.repos.Members.List(ctx, filter)
}

func (s *service) GetMember(ctx context.Context, id int64) (Member, error) {
	return s.repos.Members.Get(ctx, id)
}

func (s *service) CreateMember(ctx context.Context, input MemberInput) (Member, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Member{}, apperr.Required("name")
	}
	kind := strings.TrimSpace(input.Kind)
	switch kind {
	case "", KindACT, KindEfetivo, KindAposentado:
	default:
		return Member{}, apperr.Invalidf("unknown member kind %q", kind)
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return Member{}, apperr.Invalid("latitude and longitude must be given together")
	}
	if input.Latitude != nil && (math.Abs(*input.Latitude) > 90 || math.Abs(*input.Longitude) > 180) {
		return Member{}, apperr.Invalid("coordinates out of range")
	}

	joined := s.now().UTC()
	if input.JoinedAt != nil {
		joined = input.JoinedAt.UTC()
	}

	return s.repos.Members.Create(ctx, Member{
		Name:      name,
		Kind:      kind,
		School:    strings.TrimSpace(input.School),
		Phone:     strings.TrimSpace(input.Phone),
		Region:    strings.TrimSpace(input.Region),
		BallotBox: strings.TrimSpace(input.BallotBox),
		JoinedAt:  joined,
		Skills:    strings.TrimSpace(input.Skills),
		Tags:      strings.TrimSpace(input.Tags),
		Supporter: input.Supporter,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Notes:     strings.TrimSpace(input.Notes),
	})
}

func (s *service) MemberSummary(ctx context.Context) (MemberSummary, error) {
	members, err := s.repos.Members.List(ctx, MemberFilter{})
	if err != nil {
		return MemberSummary{}, err
	}
	summary := MemberSummary{ByKind: map[string]int{}, ByRegion: map[string]int{}}
	for _, m := range members {
		summary.Total++
		if m.Supporter {
			summary.Supporters++
		}
		if m.Contacted {
			summary.Contacted++
		}
		if m.Kind != "" {
			summary.ByKind[m.Kind]++
		}
		if m.Region != "" {
			summary.ByRegion[m.Region]++
		}
	}
	return summary, nil
}

func (s *service) ListContacts(ctx context.Context, memberID int64) ([]Contact, error) {
	if _, err := s.repos.Members.Get(ctx, memberID); err != nil {
		return nil, err
	}
	return s.repos.Contacts.List(ctx, memberID)
}

// RecordContact stores the contact and marks the member as contacted.
func (s *service) RecordContact(ctx context.Context, memberID int64, input ContactInput) (Contact, error) {
	member, err := s.repos.Members.Get(ctx, memberID)
	if err != nil {
		return Contact{}, err
	}

	channel := strings.ToLower(strings.TrimSpace(input.Channel))
	switch channel {
	case ChannelWhatsApp, ChannelVisit, ChannelPhone:
	default:
		return Contact{}, apperr.Invalidf("unknown contact channel %q", input.Channel)
	}
	outcome := strings.ToLower(strings.TrimSpace(input.Outcome))
	switch outcome {
	case "", OutcomePositive, OutcomeNegative, OutcomeNeutral:
	default:
		return Contact{}, apperr.Invalidf("unknown contact outcome %q", input.Outcome)
	}

	at := s.now().UTC()
	if input.At != nil {
		at = input.At.UTC()
	}

	var contact Contact
	err = s.repos.Atomic(ctx, func(tx Repositories) error {
		var err error
		contact, err = tx.Contacts.Create(ctx, Contact{
			MemberID:    memberID,
			At:          at,
			Channel:     channel,
			Outcome:     outcome,
			Notes:       strings.TrimSpace(input.Notes),
			Responsible: strings.TrimSpace(input.Responsible),
		})
		if err != nil {
			return err
		}

		member.Contacted = true
		if member.ContactedAt == nil || at.After(*member.ContactedAt) {
			member.ContactedAt = &at
		}
		_, err = tx.Members.Update(ctx, member)
		return err
	})
	if err != nil {
		return Contact{}, err
	}
	return contact, nil
}

func (s *service) ListEvents(ctx context.Context) ([]Event, error) {
	return s.repos.Events.List(ctx)
}

func (s *service) CreateEvent(ctx context.Context, input EventInput) (Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Event{}, apperr.Required("title")
	}
	if input.StartsAt.IsZero() {
		return Event{}, apperr.Required("starts_at")
	}
	if input.EndsAt != nil && input.EndsAt.Before(input.StartsAt) {
		return Event{}, apperr.Invalid("ends_at must not be before starts_at")
	}
	if input.ConfirmedAttendees < 0 || input.ExpectedAttendees < 0 {
		return Event{}, apperr.Invalid("attendee counts must not be negative")
	}

	event := Event{
		Title:              title,
		Description:        strings.TrimSpace(input.Description),
		StartsAt:           input.StartsAt.UTC(),
		Kind:               strings.TrimSpace(input.Kind),
		Location:           strings.TrimSpace(input.Location),
		Region:             strings.TrimSpace(input.Region),
		ConfirmedAttendees: input.ConfirmedAttendees,
		ExpectedAttendees:  input.ExpectedAttendees,
		Responsible:        strings.TrimSpace(input.Responsible),
	}
	if input.EndsAt != nil {
		end := input.EndsAt.UTC()
		event.EndsAt = &end
	}
	return s.repos.Events.Create(ctx, event)
}

func (s *service) Calendar(ctx context.Context, year int, month time.Month) (Calendar, error) {
	if month < time.January || month > time.December {
		return Calendar{}, apperr.Invalid("month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return Calendar{}, apperr.Invalid("year must be between 1 and 9999")
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	events, err := s.repos.Events.ListRange(ctx, from, to)
	if err != nil {
		return Calendar{}, err
	}
	return BuildCalendar(year, month, events), nil
}

// NewGoalView derives a goal's percentage and, for open goals with a
// deadline, the whole days left.
func NewGoalView(g Goal, now time.Time) GoalView {
	view := GoalView{Goal: g}
	if g.Target > 0 {
		view.Percent = math.Round(math.Min(float64(g.Current)/float64(g.Target)*100, 100)*10) / 10
	}
	view.Completed = g.Current >= g.Target
	if !view.Completed && g.Deadline != nil {
		days := int(math.Floor(g.Deadline.Sub(now).Hours() / 24))
		days = max(days, 0)
		view.DaysRemaining = &days
	}
	return view
}

func (s *service) ListGoals(ctx context.Context) ([]GoalView, error) {
	goals, err := s.repos.Goals.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, NewGoalView(g, now))
	}
	return out, nil
}

func (s *service) CreateGoal(ctx context.Context, input GoalInput) (GoalView, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return GoalView{}, apperr.Required("title")
	}
	if input.Target <= 0 {
		return GoalView{}, apperr.Invalid("target_value must be positive")
	}
	if input.Current < 0 {
		return GoalView{}, apperr.Invalid("current_value must not be negative")
	}

	goal := Goal{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Target:      input.Target,
		Current:     input.Current,
		Kind:        strings.TrimSpace(input.Kind),
		Region:      strings.TrimSpace(input.Region),
		Completed:   input.Current >= input.Target,
	}
	if input.Deadline != nil {
		d := input.Deadline.UTC()
		goal.Deadline = &d
	}

	created, err := s.repos.Goals.Create(ctx, goal)
	if err != nil {
		return GoalView{}, err
	}
	return NewGoalView(created, s.now()), nil
}

func (s *service) UpdateGoalProgress(ctx context.Context, id int64, current int) (GoalView, error) {
	if current < 0 {
		return GoalView{}, apperr.Invalid("current_value must not be negative")
	}
	goal, err := s.repos.Goals.Get(ctx, id)
	if err != nil {
		return GoalView{}, err
	}
	goal.Current = current
	goal.Completed = current >= goal.Target

	updated, err := s.repos.Goals.Update(ctx, goal)
	if err != nil {
		return GoalView{}, err
	}
	return NewGoalView(updated, s.now()), nil
}

func (s *service) ListMessages(ctx context.Context) ([]Message, error) {
	return s.repos.Messages.List(ctx)
}

func (s *service) CreateMessage(ctx context.Context, input MessageInput) (Message, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Message{}, apperr.Required("title")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return Message{}, apperr.Required("body")
	}
	segment := strings.TrimSpace(input.Segment)
	if segment == "" {
		segment = SegmentAll
	}

	msg := Message{
		Title:     title,
		Body:      body,
		CreatedAt: s.now().UTC(),
		Segment:   segment,
	}
	if input.ScheduledAt != nil {
		at := input.ScheduledAt.UTC()
		msg.Scheduled = true
		msg.ScheduledAt = &at
	}
	return s.repos.Messages.Create(ctx, msg)
}

// SendMessage counts the members in the message's segment and marks it
// sent. A message is sent at most once.
func (s *service) SendMessage(ctx context.Context, id int64) (Message, error) {
	msg, err := s.repos.Messages.Get(ctx, id)
	if err != nil {
		return Message{}, err
	}
	if msg.Sent {
		return Message{}, ErrAlreadySent
	}

	filter := MemberFilter{}
	if !strings.EqualFold(msg.Segment, SegmentAll) && msg.Segment != "" {
		filter.Region = msg.Segment
	}
	recipients, err := s.repos.Members.List(ctx, filter)
	if err != nil {
		return Message{}, err
	}

	return s.repos.Messages.MarkSent(ctx, msg.ID, s.now().UTC(), len(recipients))
}

func (s *service) KPI(ctx context.Context) (KPI, error) {
	members, err := s.repos.Members.List(ctx, MemberFilter{})
	if err != nil {
		return KPI{}, err
	}
	goals, err := s.repos.Goals.List(ctx)
	if err != nil {
		return KPI{}, err
	}
	now := s.now().UTC()
	upcoming, err := s.repos.Events.ListRange(ctx, now, now.Add(upcomingWindow))
	if err != nil {
		return KPI{}, err
	}
	messages, err := s.repos.Messages.List(ctx)
	if err != nil {
		return KPI{}, err
	}

	var kpi KPI
	for _, m := range members {
		kpi.Members.Total++
		if m.Supporter {
			kpi.Members.Supporters++
		}
		if m.Contacted {
			kpi.Members.Contacted++
		}
	}
	for _, g := range goals {
		if g.Current < g.Target {
			kpi.OpenGoals++
		}
	}
	for _, e := range upcoming {
		if e.StartsAt.After(now) {
			kpi.UpcomingEvents++
		}
	}
	for _, m := range messages {
		if m.Sent {
			kpi.SentMessages++
		}
	}
	return kpi, nil
}

func (s *service) Territory(ctx context.Context) ([]Point, error) {
	members, err := s.repos.Members.List(ctx, MemberFilter{})
	if err != nil {
		return nil, err
	}
	points := []Point{}
	for _, m := range members {
		if m.Latitude == nil || m.Longitude == nil {
			continue
		}
		points = append(points, Point{
			ID:        m.ID,
			Latitude:  *m.Latitude,
			Longitude: *m.Longitude,
			Name:      m.Name,
			Kind:      m.Kind,
			Supporter: m.Supporter,
			School:    m.School,
		})
	}
	return points, nil
}

func (s *service) Regions(ctx context.Context) ([]string, error) {
	members, err := s.repos.Members.List(ctx, MemberFilter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	regions := []string{}
	for _, m := range members {
		if m.Region == "" || seen[m.Region] {
			continue
		}
		seen[m.Region] = true
		regions = append(regions, m.Region)
	}
	sort.Strings(regions)
	return regions, nil
}
