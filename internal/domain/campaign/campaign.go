// Package campaign holds the membership campaign dashboard: members and the
// contacts made with them, events, goals and broadcast messages.
package campaign

import (
	"context"
	"time"

	"github.com/organizador/platform/internal/apperr"
)

var (
	ErrMemberNotFound  = apperr.NotFound("member not found")
	ErrGoalNotFound    = apperr.NotFound("goal not found")
	ErrMessageNotFound = apperr.NotFound("message not found")
	ErrAlreadySent     = apperr.Conflict("message already sent")
)

// Member kinds.
const (
	KindACT        = "ACT"
	KindEfetivo    = "Efetivo"
	KindAposentado = "Aposentado"
)

// Contact channels and outcomes.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelVisit    = "visita"
	ChannelPhone    = "telefone"

	OutcomePositive = "positivo"
	OutcomeNegative = "negativo"
	OutcomeNeutral  = "neutro"
)

// SegmentAll addresses every member.
const SegmentAll = "all"

// Member is a union member tracked by the campaign.
type Member struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	School      string     `json:"school"`
	Phone       string     `json:"phone"`
	Region      string     `json:"region"`
	BallotBox   string     `json:"ballot_box"`
	JoinedAt    time.Time  `json:"joined_at"`
	Skills      string     `json:"skills"`
	Tags        string     `json:"tags"`
	Supporter   bool       `json:"supporter"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Contacted   bool       `json:"contacted"`
	ContactedAt *time.Time `json:"contacted_at"`
	Notes       string     `json:"notes"`
}

// Contact is one conversation with a member.
type Contact struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"member_id"`
	At          time.Time `json:"contacted_at"`
	Channel     string    `json:"channel"`
	Outcome     string    `json:"outcome"`
	Notes       string    `json:"notes"`
	Responsible string    `json:"responsible"`
}

// Event is a scheduled campaign event.
type Event struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	StartsAt           time.Time  `json:"starts_at"`
	EndsAt             *time.Time `json:"ends_at"`
	Kind               string     `json:"kind"`
	Location           string     `json:"location"`
	Region             string     `json:"region"`
	ConfirmedAttendees int        `json:"confirmed_attendees"`
	ExpectedAttendees  int        `json:"expected_attendees"`
	Responsible        string     `json:"responsible"`
}

// Goal is a numeric campaign target.
type Goal struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Target      int        `json:"target_value"`
	Current     int        `json:"current_value"`
	Deadline    *time.Time `json:"deadline"`
	Kind        string     `json:"kind"`
	Region      string     `json:"region"`
	Completed   bool       `json:"completed"`
}

// Message is a broadcast to a segment of members.
type Message struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	CreatedAt   time.Time  `json:"created_at"`
	Segment     string     `json:"segment"`
	Scheduled   bool       `json:"scheduled"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Sent        bool       `json:"sent"`
	SentAt      *time.Time `json:"sent_at"`
	Recipients  int        `json:"recipients"`
	Replies     int        `json:"replies"`
}

// MemberFilter narrows member listings. Zero values match everything.
type MemberFilter struct {
	Region    string
	Supporter *bool
}

// MemberRepository persists members.
type MemberRepository interface {
	List(ctx context.Context, filter MemberFilter) ([]Member, error)
	Get(ctx context.Context, id int64) (Member, error)
	Create(ctx context.Context, member Member) (Member, error)
	Update(ctx context.Context, member Member) (Member, error)
}

// ContactRepository persists contacts, newest first.
type ContactRepository interface {
	List(ctx context.Context, memberID int64) ([]Contact, error)
	Create(ctx context.Context, contact Contact) (Contact, error)
}

// EventRepository persists events ordered by start.
type EventRepository interface {
	List(ctx context.Context) ([]Event, error)
	// ListRange returns events starting in [from, to).
	ListRange(ctx context.Context, from, to time.Time) ([]Event, error)
	Create(ctx context.Context, event Event) (Event, error)
}

// GoalRepository persists goals ordered by deadline.
type GoalRepository interface {
	List(ctx context.Context) ([]Goal, error)
	Get(ctx context.Context, id int64) (Goal, error)
	Create(ctx context.Context, goal Goal) (Goal, error)
	Update(ctx context.Context, goal Goal) (Goal, error)
}

// MessageRepository persists messages, newest first.
type MessageRepository interface {
	List(ctx context.Context) ([]Message, error)
	Get(ctx context.Context, id int64) (Message, error)
	Create(ctx context.Context, message Message) (Message, error)
	// MarkSent flags an unsent message as sent. It returns ErrAlreadySent
	// when the message was sent before.
	MarkSent(ctx context.Context, id int64, at time.Time, recipients int) (Message, error)
}

// Repositories groups the campaign stores.
type Repositories struct {
	Members  MemberRepository
	Contacts ContactRepository
	Events   EventRepository
	Goals    GoalRepository
	Messages MessageRepository

	// Atomic runs fn against repositories that commit or roll back
	// together. Nil runs fn against these repositories directly.
	Atomic func(ctx context.Context, fn func(Repositories) error) error
}
