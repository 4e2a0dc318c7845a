package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/organizador/platform/internal/domain/campaign"
)

type memberRequest struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	School    string   `json:"school"`
	Phone     string   `json:"phone"`
	Region    string   `json:"region"`
	BallotBox string   `json:"ballot_box"`
	JoinedAt  optTime  `json:"joined_at"`
	Skills    string   `json:"skills"`
	Tags      string   `json:"tags"`
	Supporter bool     `json:"supporter"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Notes     string   `json:"notes"`
}

type contactRequest struct {
	At          optTime `json:"contacted_at"`
	Channel     string  `json:"channel"`
	Outcome     string  `json:"outcome"`
	Notes       string  `json:"notes"`
	Responsible string  `json:"responsible"`
}

type eventRequest struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	StartsAt           optTime   `json:"starts_at"`
	EndsAt             optTime   `json:"ends_at"`
	Kind               string    `json:"kind"`
	Location           string    `json:"location"`
	Region             string    `json:"region"`
	ConfirmedAttendees strictInt `json:"confirmed_attendees"`
	ExpectedAttendees  strictInt `json:"expected_attendees"`
	Responsible        string    `json:"responsible"`
}

type goalRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Target      strictInt `json:"target_value"`
	Current     strictInt `json:"current_value"`
	Deadline    optTime   `json:"deadline"`
	Kind        string    `json:"kind"`
	Region      string    `json:"region"`
}

type goalProgressRequest struct {
	Current *strictInt `json:"current_value"`
}

type messageRequest struct {
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	Segment     string  `json:"segment"`
	ScheduledAt optTime `json:"scheduled_at"`
}

func registerMemberRoutes(mux *http.ServeMux, logger *slog.Logger, service campaign.Service) {
	mux.HandleFunc("GET /api/members", func(w http.ResponseWriter, r *http.Request) {
		filter := campaign.MemberFilter{Region: r.URL.Query().Get("region")}
		if v := strings.TrimSpace(r.URL.Query().Get("supporter")); v != "" {
			supporter, err := strconv.ParseBool(v)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid supporter parameter")
				return
			}
			filter.Supporter = &supporter
		}
		members, err := service.ListMembers(r.Context(), filter)
		if err != nil {
			respondServiceError(w, logger, "list members", err)
			return
		}
		respondList(w, members)
	})

	mux.HandleFunc("POST /api/members", func(w http.ResponseWriter, r *http.Request) {
		var req memberRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		member, err := service.CreateMember(r.Context(), campaign.MemberInput{
			Name:      req.Name,
			Kind:      req.Kind,
			School:    req.School,
			Phone:     req.Phone,
			Region:    req.Region,
			BallotBox: req.BallotBox,
			JoinedAt:  req.JoinedAt.at,
			Skills:    req.Skills,
			Tags:      req.Tags,
			Supporter: req.Supporter,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Notes:     req.Notes,
		})
		if err != nil {
			respondServiceError(w, logger, "create member", err)
			return
		}
		respondJSON(w, http.StatusCreated, member)
	})

	mux.HandleFunc("GET /api/members/summary", func(w http.ResponseWriter, r *http.Request) {
		summary, err := service.MemberSummary(r.Context())
		if err != nil {
			respondServiceError(w, logger, "member summary", err)
			return
		}
		respondJSON(w, http.StatusOK, summary)
	})

	mux.HandleFunc("GET /api/members/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		member, err := service.GetMember(r.Context(), id)
		if err != nil {
			respondServiceError(w, logger, "get member", err, "member_id", id)
			return
		}
		respondJSON(w, http.StatusOK, member)
	})

	mux.HandleFunc("GET /api/members/{id}/contacts", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		contacts, err := service.ListContacts(r.Context(), id)
		if err != nil {
			respondServiceError(w, logger, "list contacts", err, "member_id", id)
			return
		}
		respondList(w, contacts)
	})

	mux.HandleFunc("POST /api/members/{id}/contacts", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req contactRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		contact, err := service.RecordContact(r.Context(), id, campaign.ContactInput{
			At:          req.At.at,
			Channel:     req.Channel,
			Outcome:     req.Outcome,
			Notes:       req.Notes,
			Responsible: req.Responsible,
		})
		if err != nil {
			respondServiceError(w, logger, "record contact", err, "member_id", id)
			return
		}
		respondJSON(w, http.StatusCreated, contact)
	})
}

func registerCampaignRoutes(mux *http.ServeMux, logger *slog.Logger, service campaign.Service) {
	mux.HandleFunc("GET /api/events", func(w http.ResponseWriter, r *http.Request) {
		events, err := service.ListEvents(r.Context())
		if err != nil {
			respondServiceError(w, logger, "list events", err)
			return
		}
		respondList(w, events)
	})

	mux.HandleFunc("POST /api/events", func(w http.ResponseWriter, r *http.Request) {
		var req eventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		input := campaign.EventInput{
			Title:              req.Title,
			Description:        req.Description,
			EndsAt:             req.EndsAt.at,
			Kind:               req.Kind,
			Location:           req.Location,
			Region:             req.Region,
			ConfirmedAttendees: int(req.ConfirmedAttendees),
			ExpectedAttendees:  int(req.ExpectedAttendees),
			Responsible:        req.Responsible,
		}
		if req.StartsAt.at != nil {
			input.StartsAt = *req.StartsAt.at
		}
		event, err := service.CreateEvent(r.Context(), input)
		if err != nil {
			respondServiceError(w, logger, "create event", err)
			return
		}
		respondJSON(w, http.StatusCreated, event)
	})

	mux.HandleFunc("GET /api/calendar", func(w http.ResponseWriter, r *http.Request) {
		today := time.Now().UTC()
		year, ok := queryInt(w, r, "year", today.Year())
		if !ok {
			return
		}
		month, ok := queryInt(w, r, "month", int(today.Month()))
		if !ok {
			return
		}
		calendar, err := service.Calendar(r.Context(), year, time.Month(month))
		if err != nil {
			respondServiceError(w, logger, "calendar", err)
			return
		}
		respondJSON(w, http.StatusOK, calendar)
	})

	mux.HandleFunc("GET /api/goals", func(w http.ResponseWriter, r *http.Request) {
		goals, err := service.ListGoals(r.Context())
		if err != nil {
			respondServiceError(w, logger, "list goals", err)
			return
		}
		respondList(w, goals)
	})

	mux.HandleFunc("POST /api/goals", func(w http.ResponseWriter, r *http.Request) {
		var req goalRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		goal, err := service.CreateGoal(r.Context(), campaign.GoalInput{
			Title:       req.Title,
			Description: req.Description,
			Target:      int(req.Target),
			Current:     int(req.Current),
			Deadline:    req.Deadline.at,
			Kind:        req.Kind,
			Region:      req.Region,
		})
		if err != nil {
			respondServiceError(w, logger, "create goal", err)
			return
		}
		respondJSON(w, http.StatusCreated, goal)
	})

	mux.HandleFunc("PUT /api/goals/{id}/progress", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req goalProgressRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Current == nil {
			respondError(w, http.StatusBadRequest, "current_value is required")
			return
		}
		goal, err := service.UpdateGoalProgress(r.Context(), id, int(*req.Current))
		if err != nil {
			respondServiceError(w, logger, "update goal", err, "goal_id", id)
			return
		}
		respondJSON(w, http.StatusOK, goal)
	})

	mux.HandleFunc("GET /api/messages", func(w http.ResponseWriter, r *http.Request) {
		messages, err := service.ListMessages(r.Context())
		if err != nil {
			respondServiceError(w, logger, "list messages", err)
			return
		}
		respondList(w, messages)
	})

	mux.HandleFunc("POST /api/messages", func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		message, err := service.CreateMessage(r.Context(), campaign.MessageInput{
			Title:       req.Title,
			Body:        req.Body,
			Segment:     req.Segment,
			ScheduledAt: req.ScheduledAt.at,
		})
		if err != nil {
			respondServiceError(w, logger, "create message", err)
			return
		}
		respondJSON(w, http.StatusCreated, message)
	})

	mux.HandleFunc("POST /api/messages/{id}/send", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		message, err := service.SendMessage(r.Context(), id)
		if err != nil {
			respondServiceError(w, logger, "send message", err, "message_id", id)
			return
		}
		respondJSON(w, http.StatusOK, message)
	})

	mux.HandleFunc("GET /api/kpi", func(w http.ResponseWriter, r *http.Request) {
		kpi, err := service.KPI(r.Context())
		if err != nil {
			respondServiceError(w, logger, "kpi", err)
			return
		}
		respondJSON(w, http.StatusOK, kpi)
	})

	mux.HandleFunc("GET /api/territory", func(w http.ResponseWriter, r *http.Request) {
		points, err := service.Territory(r.Context())
		if err != nil {
			respondServiceError(w, logger, "territory", err)
			return
		}
		respondList(w, points)
	})

	mux.HandleFunc("GET /api/regions", func(w http.ResponseWriter, r *http.Request) {
		regions, err := service.Regions(r.Context())
		if err != nil {
			respondServiceError(w, logger, "regions", err)
			return
		}
		respondList(w, regions)
	})
}
