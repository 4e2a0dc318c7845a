package campaign_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/organizador/platform/internal/apperr"
	"github.com/organizador/platform/internal/domain/campaign"
	"github.com/organizador/platform/internal/storage/memory"
)

var now = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func newService() campaign.Service {
	return campaign.NewService(memory.NewStore().Campaign(), func() time.Time { return now })
}

func TestBuildCalendar(t *testing.T) {
	cal := campaign.BuildCalendar(2024, time.March, nil)

	want := [][]int{
		{0, 0, 0, 0, 1, 2, 3},
		{4, 5, 6, 7, 8, 9, 10},
		{11, 12, 13, 14, 15, 16, 17},
		{18, 19, 20, 21, 22, 23, 24},
		{25, 26, 27, 28, 29, 30, 31},
	}
	if diff := cmp.Diff(want, cal.Weeks); diff != "" {
		t.Errorf("weeks mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "March", cal.MonthName)
	assert.Equal(t, campaign.MonthRef{Year: 2024, Month: time.February}, cal.Previous)
	assert.Equal(t, campaign.MonthRef{Year: 2024, Month: time.April}, cal.Next)
	assert.NotNil(t, cal.Events)

	sept := campaign.BuildCalendar(2024, time.September, nil)
	require.Len(t, sept.Weeks, 6)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 1}, sept.Weeks[0])
	assert.Equal(t, []int{30, 0, 0, 0, 0, 0, 0}, sept.Weeks[5])

	dec := campaign.BuildCalendar(2024, time.December, nil)
	assert.Equal(t, campaign.MonthRef{Year: 2025, Month: time.January}, dec.Next)
}

func TestNewGoalView(t *testing.T) {
	soon := now.Add(10*24*time.Hour + 5*time.Hour)
	past := now.Add(-48 * time.Hour)

	open := campaign.NewGoalView(campaign.Goal{Target: 200, Current: 45, Deadline: &soon}, now)
	assert.Equal(t, 22.5, open.Percent)
	assert.False(t, open.Completed)
	require.NotNil(t, open.DaysRemaining)
	assert.Equal(t, 10, *open.DaysRemaining)

	late := campaign.NewGoalView(campaign.Goal{Target: 10, Current: 1, Deadline: &past}, now)
	require.NotNil(t, late.DaysRemaining)
	assert.Zero(t, *late.DaysRemaining)

	done := campaign.NewGoalView(campaign.Goal{Target: 10, Current: 12, Deadline: &soon}, now)
	assert.Equal(t, 100.0, done.Percent)
	assert.True(t, done.Completed)
	assert.Nil(t, done.DaysRemaining)
}

func TestMembersAndContacts(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	lat, lng := -23.55, -46.63
	_, err := svc.CreateMember(ctx, campaign.MemberInput{Name: ""})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	_, err = svc.CreateMember(ctx, campaign.MemberInput{Name: "Ana", Kind: "Diretor"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	_, err = svc.CreateMember(ctx, campaign.MemberInput{Name: "Ana", Latitude: &lat})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	ana, err := svc.CreateMember(ctx, campaign.MemberInput{
		Name: "Ana", Kind: campaign.KindEfetivo, Region: "Centro", Supporter: true, Latitude: &lat, Longitude: &lng,
	})
	require.NoError(t, err)
	assert.True(t, ana.JoinedAt.Equal(now))
	_, err = svc.CreateMember(ctx, campaign.MemberInput{Name: "Bruno", Kind: campaign.KindACT, Region: "Zona Sul"})
	require.NoError(t, err)

	_, err = svc.RecordContact(ctx, ana.ID, campaign.ContactInput{Channel: "carta"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	_, err = svc.RecordContact(ctx, 99, campaign.ContactInput{Channel: campaign.ChannelPhone})
	assert.ErrorIs(t, err, campaign.ErrMemberNotFound)

	contact, err := svc.RecordContact(ctx, ana.ID, campaign.ContactInput{Channel: "WhatsApp", Outcome: "Positivo"})
	require.NoError(t, err)
	assert.Equal(t, campaign.ChannelWhatsApp, contact.Channel)
	assert.Equal(t, campaign.OutcomePositive, contact.Outcome)

	got, err := svc.GetMember(ctx, ana.ID)
	require.NoError(t, err)
	assert.True(t, got.Contacted)
	require.NotNil(t, got.ContactedAt)

	contacts, err := svc.ListContacts(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	supporters := true
	list, err := svc.ListMembers(ctx, campaign.MemberFilter{Supporter: &supporters})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].Name)

	summary, err := svc.MemberSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, campaign.MemberSummary{
		Total:      2,
		Supporters: 1,
		Contacted:  1,
		ByKind:     map[string]int{campaign.KindEfetivo: 1, campaign.KindACT: 1},
		ByRegion:   map[string]int{"Centro": 1, "Zona Sul": 1},
	}, summary)

	points, err := svc.Territory(ctx)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, lat, points[0].Latitude)

	regions, err := svc.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Centro", "Zona Sul"}, regions)
}

func TestEventsGoalsAndMessages(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.CreateMember(ctx, campaign.MemberInput{Name: "Ana", Region: "Centro"})
	require.NoError(t, err)
	_, err = svc.CreateMember(ctx, campaign.MemberInput{Name: "Bruno", Region: "Zona Sul"})
	require.NoError(t, err)

	start := now.Add(72 * time.Hour)
	before := start.Add(-time.Hour)
	_, err = svc.CreateEvent(ctx, campaign.EventInput{Title: "Assembleia", StartsAt: start, EndsAt: &before})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	_, err = svc.CreateEvent(ctx, campaign.EventInput{Title: "Assembleia", StartsAt: start})
	require.NoError(t, err)
	_, err = svc.CreateEvent(ctx, campaign.EventInput{Title: "Plenária", StartsAt: now.AddDate(0, 2, 0)})
	require.NoError(t, err)

	cal, err := svc.Calendar(ctx, 2024, time.March)
	require.NoError(t, err)
	require.Len(t, cal.Events, 1)
	assert.Equal(t, "Assembleia", cal.Events[0].Title)
	_, err = svc.Calendar(ctx, 2024, 13)
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.CreateGoal(ctx, campaign.GoalInput{Title: "Filiações", Target: 0})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	goal, err := svc.CreateGoal(ctx, campaign.GoalInput{Title: "Filiações", Target: 40, Current: 12})
	require.NoError(t, err)
	assert.Equal(t, 30.0, goal.Percent)

	goal, err = svc.UpdateGoalProgress(ctx, goal.ID, 40)
	require.NoError(t, err)
	assert.True(t, goal.Completed)
	_, err = svc.UpdateGoalProgress(ctx, goal.ID, -1)
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	_, err = svc.UpdateGoalProgress(ctx, 99, 1)
	assert.ErrorIs(t, err, campaign.ErrGoalNotFound)

	msg, err := svc.CreateMessage(ctx, campaign.MessageInput{Title: "Convite", Body: "Assembleia sexta", Segment: "Centro"})
	require.NoError(t, err)
	_, err = svc.CreateMessage(ctx, campaign.MessageInput{Title: "Vazio"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	sent, err := svc.SendMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, sent.Sent)
	assert.Equal(t, 1, sent.Recipients)
	_, err = svc.SendMessage(ctx, msg.ID)
	assert.ErrorIs(t, err, campaign.ErrAlreadySent)

	all, err := svc.CreateMessage(ctx, campaign.MessageInput{Title: "Geral", Body: "Boletim"})
	require.NoError(t, err)
	assert.Equal(t, campaign.SegmentAll, all.Segment)
	sent, err = svc.SendMessage(ctx, all.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sent.Recipients)

	kpi, err := svc.KPI(ctx)
	require.NoError(t, err)
	assert.Equal(t, campaign.KPI{
		Members:        campaign.MemberCounts{Total: 2},
		OpenGoals:      0,
		UpcomingEvents: 1,
		SentMessages:   2,
	}, kpi)
}

var errWrite = errors.New("disk full")

type failingMembers struct{ campaign.MemberRepository }

func (failingMembers) Update(context.Context, campaign.Member) (campaign.Member, error) {
	return campaign.Member{}, errWrite
}

func TestRecordContactRollsBackWhenAWriteFails(t *testing.T) {
	ctx := context.Background()
	clock := func() time.Time { return now }
	store := memory.NewStore()
	healthy := campaign.NewService(store.Campaign(), clock)

	ana, err := healthy.CreateMember(ctx, campaign.MemberInput{Name: "Ana", Kind: "Efetivo"})
	require.NoError(t, err)

	repos := store.Campaign()
	inner := repos.Atomic
	repos.Atomic = func(ctx context.Context, fn func(campaign.Repositories) error) error {
		return inner(ctx, func(tx campaign.Repositories) error {
			tx.Members = failingMembers{tx.Members}
			return fn(tx)
		})
	}
	broken := campaign.NewService(repos, clock)

	_, err = broken.RecordContact(ctx, ana.ID, campaign.ContactInput{Channel: campaign.ChannelVisit})
	require.ErrorIs(t, err, errWrite)

	contacts, err := healthy.ListContacts(ctx, ana.ID)
	require.NoError(t, err)
	assert.Empty(t, contacts)
	member, err := healthy.GetMember(ctx, ana.ID)
	require.NoError(t, err)
	assert.False(t, member.Contacted)
}

func TestSendMessageOnce(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	msg, err := svc.CreateMessage(ctx, campaign.MessageInput{Title: "Convite", Body: "Venha"})
	require.NoError(t, err)

	var sent, rejected atomic.Int32
	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			_, err := svc.SendMessage(ctx, msg.ID)
			switch {
			case err == nil:
				sent.Add(1)
			case errors.Is(err, campaign.ErrAlreadySent):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.EqualValues(t, 1, sent.Load())
	assert.EqualValues(t, 7, rejected.Load())

	_, err = svc.SendMessage(ctx, 404)
	assert.ErrorIs(t, err, campaign.ErrMessageNotFound)
}
