package memory

import (
	"context"
	"sort"
	"time"

	"github.com/organizador/platform/internal/domain/campaign"
)

// MemberRepository implements campaign.MemberRepository in-memory.
type MemberRepository struct {
	s *Store
}

// List orders members by name.
func (r *MemberRepository) List(_ context.Context, filter campaign.MemberFilter) ([]campaign.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]campaign.Member, 0)
	for _, m := range r.s.members {
		if filter.Region != "" && m.Region != filter.Region {
			continue
		}
		if filter.Supporter != nil && m.Supporter != *filter.Supporter {
			continue
		}
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *MemberRepository) Get(_ context.Context, id int64) (campaign.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[id]
	if !ok {
		return campaign.Member{}, campaign.ErrMemberNotFound
	}
	return m, nil
}

func (r *MemberRepository) Create(_ context.Context, member campaign.Member) (campaign.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	member.ID = r.s.nextID("members")
	r.s.members[member.ID] = member
	return member, nil
}

func (r *MemberRepository) Update(_ context.Context, member campaign.Member) (campaign.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[member.ID]; !ok {
		return campaign.Member{}, campaign.ErrMemberNotFound
	}
	r.s.members[member.ID] = member
	return member, nil
}

// ContactRepository implements campaign.ContactRepository in-memory.
type ContactRepository struct {
	s *Store
}

func (r *ContactRepository) List(_ context.Context, memberID int64) ([]campaign.Contact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]campaign.Contact, 0)
	for _, c := range r.s.contacts {
		if c.MemberID == memberID {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].At.Equal(list[j].At) {
			return list[i].At.After(list[j].At)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r *ContactRepository) Create(_ context.Context, contact campaign.Contact) (campaign.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[contact.MemberID]; !ok {
		return campaign.Contact{}, campaign.ErrMemberNotFound
	}
	contact.ID = r.s.nextID("member_contacts")
	r.s.contacts[contact.ID] = contact
	return contact, nil
}

// EventRepository implements campaign.EventRepository in-memory.
type EventRepository struct {
	s *Store
}

func (r *EventRepository) List(context.Context) ([]campaign.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.eventsWhere(func(campaign.Event) bool { return true }), nil
}

func (r *EventRepository) ListRange(_ context.Context, from, to time.Time) ([]campaign.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.eventsWhere(func(e campaign.Event) bool {
		return !e.StartsAt.Before(from) && e.StartsAt.Before(to)
	}), nil
}

func (r *EventRepository) Create(_ context.Context, event campaign.Event) (campaign.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event.ID = r.s.nextID("events")
	r.s.events[event.ID] = event
	return event, nil
}

func (s *Store) eventsWhere(match func(campaign.Event) bool) []campaign.Event {
	list := make([]campaign.Event, 0)
	for _, e := range s.events {
		if match(e) {
			list = append(list, e)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartsAt.Equal(list[j].StartsAt) {
			return list[i].StartsAt.Before(list[j].StartsAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// GoalRepository implements campaign.GoalRepository in-memory.
type GoalRepository struct {
	s *Store
}

// List orders goals by deadline; goals without one come last.
func (r *GoalRepository) List(context.Context) ([]campaign.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]campaign.Goal, 0, len(r.s.goals))
	for _, g := range r.s.goals {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Deadline, list[j].Deadline
		switch {
		case a == nil && b == nil:
			return list[i].ID < list[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *GoalRepository) Get(_ context.Context, id int64) (campaign.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.goals[id]
	if !ok {
		return campaign.Goal{}, campaign.ErrGoalNotFound
	}
	return g, nil
}

func (r *GoalRepository) Create(_ context.Context, goal campaign.Goal) (campaign.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	goal.ID = r.s.nextID("goals")
	r.s.goals[goal.ID] = goal
	return goal, nil
}

func (r *GoalRepository) Update(_ context.Context, goal campaign.Goal) (campaign.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[goal.ID]; !ok {
		return campaign.Goal{}, campaign.ErrGoalNotFound
	}
	r.s.goals[goal.ID] = goal
	return goal, nil
}

// MessageRepository implements campaign.MessageRepository in-memory.
type MessageRepository struct {
	s *Store
}

func (r *MessageRepository) List(context.Context) ([]campaign.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]campaign.Message, 0, len(r.s.messages))
	for _, m := range r.s.messages {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r *MessageRepository) Get(_ context.Context, id int64) (campaign.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok {
		return campaign.Message{}, campaign.ErrMessageNotFound
	}
	return m, nil
}

func (r *MessageRepository) Create(_ context.Context, message campaign.Message) (campaign.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	message.ID = r.s.nextID("messages")
	r.s.messages[message.ID] = message
	return message, nil
}

func (r *MessageRepository) MarkSent(_ context.Context, id int64, at time.Time, recipients int) (campaign.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.messages[id]
	if !ok {
		return campaign.Message{}, campaign.ErrMessageNotFound
	}
	if m.Sent {
		return campaign.Message{}, campaign.ErrAlreadySent
	}
	at = at.UTC()
	m.Sent = true
	m.SentAt = &at
	m.Recipients = recipients
	r.s.messages[id] = m
	return m, nil
}

var (
	_ campaign.MemberRepository  = (*MemberRepository)(nil)
	_ campaign.ContactRepository = (*ContactRepository)(nil)
	_ campaign.EventRepository   = (*EventRepository)(nil)
	_ campaign.GoalRepository    = (*GoalRepository)(nil)
	_ campaign.MessageRepository = (*MessageRepository)(nil)
)
