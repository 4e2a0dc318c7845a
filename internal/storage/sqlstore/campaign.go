package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/organizador/platform/internal/domain/campaign"
)

// MemberRepository persists campaign members.
type MemberRepository struct {
	s *Store
}

const memberColumns = `
    SELECT id, name, kind, school, phone, region, ballot_box, joined_at, skills, tags,
           supporter, latitude, longitude, contacted, contacted_at, notes
      FROM members
`

func scanMember(row scanner) (campaign.Member, error) {
	var (
		m           campaign.Member
		lat, lng    sql.NullFloat64
		contactedAt sql.NullTime
	)
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Kind,
		&m.School,
		&m.Phone,
		&m.Region,
		&m.BallotBox,
		&m.JoinedAt,
		&m.Skills,
		&m.Tags,
		&m.Supporter,
		&lat,
		&lng,
		&m.Contacted,
		&contactedAt,
		&m.Notes,
	)
	if err != nil {
		return campaign.Member{}, err
	}
	m.JoinedAt = m.JoinedAt.UTC()
	m.Latitude = floatPtr(lat)
	m.Longitude = floatPtr(lng)
	m.ContactedAt = timePtr(contactedAt)
	return m, nil
}

// List orders members by name.
func (r *MemberRepository) List(ctx context.Context, filter campaign.MemberFilter) ([]campaign.Member, error) {
	var (
		where []string
		args  []any
	)
	if filter.Region != "" {
		where = append(where, "region = ?")
		args = append(args, filter.Region)
	}
	if filter.Supporter != nil {
		where = append(where, "supporter = ?")
		args = append(args, *filter.Supporter)
	}
	query := memberColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := r.s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	result := make([]campaign.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *MemberRepository) Get(ctx context.Context, id int64) (campaign.Member, error) {
	m, err := scanMember(r.s.queryRow(ctx, memberColumns+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return campaign.Member{}, campaign.ErrMemberNotFound
		}
		return campaign.Member{}, fmt.Errorf("find member: %w", err)
	}
	return m, nil
}

func (r *MemberRepository) Create(ctx context.Context, member campaign.Member) (campaign.Member, error) {
	const insert = `
        INSERT INTO members (name, kind, school, phone, region, ballot_box, joined_at, skills, tags,
                             supporter, latitude, longitude, contacted, contacted_at, notes)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `
	member.JoinedAt = stamp(member.JoinedAt)
	err := r.s.queryRow(ctx, insert,
		member.Name,
		member.Kind,
		member.School,
		member.Phone,
		member.Region,
		member.BallotBox,
		member.JoinedAt,
		member.Skills,
		member.Tags,
		member.Supporter,
		nullFloat(member.Latitude),
		nullFloat(member.Longitude),
		member.Contacted,
		nullStamp(member.ContactedAt),
		member.Notes,
	).Scan(&member.ID)
	if err != nil {
		return campaign.Member{}, fmt.Errorf("insert member: %w", err)
	}
	return member, nil
}

func (r *MemberRepository) Update(ctx context.Context, member campaign.Member) (campaign.Member, error) {
	const update = `
        UPDATE members
           SET name = ?,
               kind = ?,
               school = ?,
               phone = ?,
               region = ?,
               ballot_box = ?,
               skills = ?,
               tags = ?,
               supporter = ?,
               latitude = ?,
               longitude = ?,
               contacted = ?,
               contacted_at = ?,
               notes = ?
         WHERE id = ?
    `
	err := r.s.execAffected(ctx, campaign.ErrMemberNotFound, update,
		member.Name,
		member.Kind,
		member.School,
		member.Phone,
		member.Region,
		member.BallotBox,
		member.Skills,
		member.Tags,
		member.Supporter,
		nullFloat(member.Latitude),
		nullFloat(member.Longitude),
		member.Contacted,
		nullStamp(member.ContactedAt),
		member.Notes,
		member.ID,
	)
	if err != nil {
		if errors.Is(err, campaign.ErrMemberNotFound) {
			return campaign.Member{}, err
		}
		return campaign.Member{}, fmt.Errorf("update member: %w", err)
	}
	return r.Get(ctx, member.ID)
}

// ContactRepository persists member contacts.
type ContactRepository struct {
	s *Store
}

func (r *ContactRepository) List(ctx context.Context, memberID int64) ([]campaign.Contact, error) {
	const query = `
        SELECT id, member_id, contacted_at, channel, outcome, notes, responsible
          FROM member_contacts
         WHERE member_id = ?
         ORDER BY contacted_at DESC, id DESC
    `
	rows, err := r.s.query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	result := make([]campaign.Contact, 0)
	for rows.Next() {
		var c campaign.Contact
		if err := rows.Scan(&c.ID, &c.MemberID, &c.At, &c.Channel, &c.Outcome, &c.Notes, &c.Responsible); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.At = c.At.UTC()
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *ContactRepository) Create(ctx context.Context, contact campaign.Contact) (campaign.Contact, error) {
	const insert = `
        INSERT INTO member_contacts (member_id, contacted_at, channel, outcome, notes, responsible)
        VALUES (?, ?, ?, ?, ?, ?)
        RETURNING id
    `
	contact.At = stamp(contact.At)
	err := r.s.queryRow(ctx, insert,
		contact.MemberID,
		contact.At,
		contact.Channel,
		contact.Outcome,
		contact.Notes,
		contact.Responsible,
	).Scan(&contact.ID)
	if err != nil {
		return campaign.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return contact, nil
}

// EventRepository persists campaign events.
type EventRepository struct {
	s *Store
}

const eventColumns = `
    SELECT id, title, description, starts_at, ends_at, kind, location, region,
           confirmed_attendees, expected_attendees, responsible
      FROM events
`

func (r *EventRepository) List(ctx context.Context) ([]campaign.Event, error) {
	return r.list(ctx, eventColumns+` ORDER BY starts_at, id`)
}

func (r *EventRepository) ListRange(ctx context.Context, from, to time.Time) ([]campaign.Event, error) {
	return r.list(ctx, eventColumns+` WHERE starts_at >= ? AND starts_at < ? ORDER BY starts_at, id`, stamp(from), stamp(to))
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]campaign.Event, error) {
	rows, err := r.s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	result := make([]campaign.Event, 0)
	for rows.Next() {
		var (
			e    campaign.Event
			ends sql.NullTime
		)
		err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.StartsAt, &ends, &e.Kind, &e.Location,
			&e.Region, &e.ConfirmedAttendees, &e.ExpectedAttendees, &e.Responsible)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.StartsAt = e.StartsAt.UTC()
		e.EndsAt = timePtr(ends)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *EventRepository) Create(ctx context.Context, event campaign.Event) (campaign.Event, error) {
	const insert = `
        INSERT INTO events (title, description, starts_at, ends_at, kind, location, region,
                            confirmed_attendees, expected_attendees, responsible)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `
	event.StartsAt = stamp(event.StartsAt)
	err := r.s.queryRow(ctx, insert,
		event.Title,
		event.Description,
		event.StartsAt,
		nullStamp(event.EndsAt),
		event.Kind,
		event.Location,
		event.Region,
		event.ConfirmedAttendees,
		event.ExpectedAttendees,
		event.Responsible,
	).Scan(&event.ID)
	if err != nil {
		return campaign.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// GoalRepository persists campaign goals.
type GoalRepository struct {
	s *Store
}

const goalColumns = `
    SELECT id, title, description, target_value, current_value, deadline, kind, region, completed
      FROM goals
`

func scanGoal(row scanner) (campaign.Goal, error) {
	var (
		g        campaign.Goal
		deadline sql.NullTime
	)
	err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Target, &g.Current, &deadline, &g.Kind, &g.Region, &g.Completed)
	if err != nil {
		return campaign.Goal{}, err
	}
	g.Deadline = timePtr(deadline)
	return g, nil
}

// List orders goals by deadline; goals without one come last.
func (r *GoalRepository) List(ctx context.Context) ([]campaign.Goal, error) {
	rows, err := r.s.query(ctx, goalColumns+` ORDER BY CASE WHEN deadline IS NULL THEN 1 ELSE 0 END, deadline, id`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	result := make([]campaign.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *GoalRepository) Get(ctx context.Context, id int64) (campaign.Goal, error) {
	g, err := scanGoal(r.s.queryRow(ctx, goalColumns+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return campaign.Goal{}, campaign.ErrGoalNotFound
		}
		return campaign.Goal{}, fmt.Errorf("find goal: %w", err)
	}
	return g, nil
}

func (r *GoalRepository) Create(ctx context.Context, goal campaign.Goal) (campaign.Goal, error) {
	const insert = `
        INSERT INTO goals (title, description, target_value, current_value, deadline, kind, region, completed)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `
	err := r.s.queryRow(ctx, insert,
		goal.Title,
		goal.Description,
		goal.Target,
		goal.Current,
		nullStamp(goal.Deadline),
		goal.Kind,
		goal.Region,
		goal.Completed,
	).Scan(&goal.ID)
	if err != nil {
		return campaign.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	if goal.Deadline != nil {
		d := stamp(*goal.Deadline)
		goal.Deadline = &d
	}
	return goal, nil
}

func (r *GoalRepository) Update(ctx context.Context, goal campaign.Goal) (campaign.Goal, error) {
	const update = `
        UPDATE goals
           SET title = ?,
               description = ?,
               target_value = ?,
               current_value = ?,
               deadline = ?,
               kind = ?,
               region = ?,
               completed = ?
         WHERE id = ?
    `
	err := r.s.execAffected(ctx, campaign.ErrGoalNotFound, update,
		goal.Title,
		goal.Description,
		goal.Target,
		goal.Current,
		nullStamp(goal.Deadline),
		goal.Kind,
		goal.Region,
		goal.Completed,
		goal.ID,
	)
	if err != nil {
		if errors.Is(err, campaign.ErrGoalNotFound) {
			return campaign.Goal{}, err
		}
		return campaign.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	return r.Get(ctx, goal.ID)
}

// MessageRepository persists broadcast messages.
type MessageRepository struct {
	s *Store
}

const messageColumns = `
    SELECT id, title, body, created_at, segment, scheduled, scheduled_at, sent, sent_at, recipients, replies
      FROM messages
`

func scanMessage(row scanner) (campaign.Message, error) {
	var (
		m                   campaign.Message
		scheduledAt, sentAt sql.NullTime
	)
	err := row.Scan(&m.ID, &m.Title, &m.Body, &m.CreatedAt, &m.Segment, &m.Scheduled, &scheduledAt,
		&m.Sent, &sentAt, &m.Recipients, &m.Replies)
	if err != nil {
		return campaign.Message{}, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.ScheduledAt = timePtr(scheduledAt)
	m.SentAt = timePtr(sentAt)
	return m, nil
}

// List returns messages newest first.
func (r *MessageRepository) List(ctx context.Context) ([]campaign.Message, error) {
	rows, err := r.s.query(ctx, messageColumns+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	result := make([]campaign.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *MessageRepository) Get(ctx context.Context, id int64) (campaign.Message, error) {
	m, err := scanMessage(r.s.queryRow(ctx, messageColumns+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return campaign.Message{}, campaign.ErrMessageNotFound
		}
		return campaign.Message{}, fmt.Errorf("find message: %w", err)
	}
	return m, nil
}

func (r *MessageRepository) Create(ctx context.Context, message campaign.Message) (campaign.Message, error) {
	const insert = `
        INSERT INTO messages (title, body, created_at, segment, scheduled, scheduled_at, sent, sent_at, recipients, replies)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `
	message.CreatedAt = stamp(message.CreatedAt)
	err := r.s.queryRow(ctx, insert,
		message.Title,
		message.Body,
		message.CreatedAt,
		message.Segment,
		message.Scheduled,
		nullStamp(message.ScheduledAt),
		message.Sent,
		nullStamp(message.SentAt),
		message.Recipients,
		message.Replies,
	).Scan(&message.ID)
	if err != nil {
		return campaign.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return message, nil
}

// MarkSent only updates a message whose sent flag is still false.
func (r *MessageRepository) MarkSent(ctx context.Context, id int64, at time.Time, recipients int) (campaign.Message, error) {
	const update = `
        UPDATE messages
           SET sent = ?,
               sent_at = ?,
               recipients = ?
         WHERE id = ? AND sent = ?
    `
	err := r.s.execAffected(ctx, campaign.ErrAlreadySent, update, true, stamp(at), recipients, id, false)
	if errors.Is(err, campaign.ErrAlreadySent) {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return campaign.Message{}, getErr
		}
		return campaign.Message{}, err
	}
	if err != nil {
		return campaign.Message{}, fmt.Errorf("mark message sent: %w", err)
	}
	return r.Get(ctx, id)
}

var (
	_ campaign.MemberRepository  = (*MemberRepository)(nil)
	_ campaign.ContactRepository = (*ContactRepository)(nil)
	_ campaign.EventRepository   = (*EventRepository)(nil)
	_ campaign.GoalRepository    = (*GoalRepository)(nil)
	_ campaign.MessageRepository = (*MessageRepository)(nil)
)
