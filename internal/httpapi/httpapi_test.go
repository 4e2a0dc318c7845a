package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organizador/platform/internal/domain"
	"github.com/organizador/platform/internal/domain/campaign"
	"github.com/organizador/platform/internal/httpapi"
	"github.com/organizador/platform/internal/storage/memory"
)

var monday = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return monday }

type client struct {
	t       *testing.T
	handler http.Handler
	userID  string
}

func (c client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(c.t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if c.userID != "" {
		req.Header.Set(httpapi.UserHeader, c.userID)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func newTracker(t *testing.T, defaultUser int64) *http.ServeMux {
	t.Helper()
	store := memory.NewStore()
	services, err := domain.New(store.Options(clock))
	require.NoError(t, err)
	_, err = services.Users.EnsureDefaults(context.Background())
	require.NoError(t, err)

	mux := http.NewServeMux()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	httpapi.Register(mux, logger, services, httpapi.Options{
		DefaultUserID: defaultUser,
		Backend:       "memory",
		Now:           clock,
	})
	return mux
}

func id(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	v, ok := decode(t, rec)["id"].(float64)
	require.True(t, ok, rec.Body.String())
	return strconv.FormatInt(int64(v), 10)
}

func TestUserIdentification(t *testing.T) {
	mux := newTracker(t, 0)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not a number", "abc", http.StatusUnauthorized},
		{"unknown user", "99", http.StatusUnauthorized},
		{"known user", "2", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := client{t: t, handler: mux, userID: tc.header}.do(http.MethodGet, "/api/categories", nil)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"user not identified"}`, rec.Body.String())
			}
		})
	}

	fallback := client{t: t, handler: newTracker(t, 1)}
	assert.Equal(t, http.StatusOK, fallback.do(http.MethodGet, "/api/categories", nil).Code)
}

func TestTrackerFlow(t *testing.T) {
	c := client{t: t, handler: newTracker(t, 1)}

	rec := c.do(http.MethodPost, "/api/categories", map[string]any{"name": "Leitura"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	catID := id(t, rec)
	assert.Equal(t, "#3498db", decode(t, rec)["color"])

	rec = c.do(http.MethodPost, "/api/categories", map[string]any{"name": "Leitura"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = c.do(http.MethodPost, "/api/categories", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid JSON payload"}`, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/activities", map[string]any{
		"name":         "Ler Dom Casmurro",
		"category_id":  json.Number(catID),
		"target_value": 300,
		"target_unit":  "páginas",
		"start_date":   "",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	actID := id(t, rec)
	assert.Equal(t, "units", decode(t, rec)["measurement_type"])

	rec = c.do(http.MethodPost, "/api/progress", map[string]any{"activity_id": json.Number(actID), "value": 60})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode(t, rec)
	assert.EqualValues(t, 2, result["points_earned"])
	assert.EqualValues(t, 20, result["current_progress"])

	rec = c.do(http.MethodPost, "/api/progress", map[string]any{"activity_id": json.Number(actID), "value": 10})
	assert.Equal(t, http.StatusConflict, rec.Code, "one entry per day")

	rec = c.do(http.MethodGet, "/api/progress/recent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = c.do(http.MethodGet, "/api/progress/recent?since=ontem", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/rewards", map[string]any{"name": "Cinema", "points_required": "5"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rewardID := id(t, rec)
	assert.EqualValues(t, 5, decode(t, rec)["points_required"])

	rec = c.do(http.MethodPost, "/api/rewards/"+rewardID+"/purchase", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/points/add", map[string]any{"points": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 12, decode(t, rec)["total_points"])

	rec = c.do(http.MethodPost, "/api/rewards/"+rewardID+"/purchase", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 7, decode(t, rec)["remaining_points"])

	rec = c.do(http.MethodGet, "/api/points/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["count"])

	rec = c.do(http.MethodGet, "/api/dashboard/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/api/profile/historical?days=0", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = c.do(http.MethodGet, "/api/profile/historical?days=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	other := client{t: t, handler: c.handler, userID: "2"}
	rec = other.do(http.MethodGet, "/api/activities/"+actID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "activities are scoped to their owner")
}

func TestActivityParentCanBeCleared(t *testing.T) {
	c := client{t: t, handler: newTracker(t, 1)}

	catID := id(t, c.do(http.MethodPost, "/api/categories", map[string]any{"name": "Estudo"}))
	parentID := id(t, c.do(http.MethodPost, "/api/activities", map[string]any{"name": "Go", "category_id": json.Number(catID)}))
	rec := c.do(http.MethodPost, "/api/activities", map[string]any{
		"name":               "Generics",
		"category_id":        json.Number(catID),
		"parent_activity_id": json.Number(parentID),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	childID := id(t, rec)

	rec = c.do(http.MethodGet, "/api/activities/hierarchy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = c.do(http.MethodPut, "/api/activities/"+childID, map[string]any{"description": "type params"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode(t, rec)["parent_activity_id"], "absent field leaves the parent alone")

	rec = c.do(http.MethodPut, "/api/activities/"+childID, `{"parent_activity_id": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decode(t, rec)["parent_activity_id"])

	rec = c.do(http.MethodPut, "/api/activities/"+parentID, map[string]any{"parent_activity_id": json.Number(parentID)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleReplication(t *testing.T) {
	c := client{t: t, handler: newTracker(t, 1)}

	catID := id(t, c.do(http.MethodPost, "/api/categories", map[string]any{"name": "Exercício"}))
	actID := id(t, c.do(http.MethodPost, "/api/activities", map[string]any{"name": "Correr", "category_id": json.Number(catID)}))

	rec := c.do(http.MethodPost, "/api/schedules", map[string]any{
		"activity_id":    json.Number(actID),
		"scheduled_date": "2024-03-04",
		"scheduled_time": "07:30",
		"duration":       "45",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	scheduleID := id(t, rec)

	rec = c.do(http.MethodPost, "/api/schedules/"+scheduleID+"/replicate", map[string]any{
		"type":         "weekly",
		"until_date":   "2024-03-17",
		"days_of_week": []any{"0", 2},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, decode(t, rec)["created_count"])

	rec = c.do(http.MethodGet, "/api/schedules?week_start=2024-03-04", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	week := decode(t, rec)
	assert.Equal(t, "2024-03-10", week["week_end"])
	assert.Len(t, week["schedules"], 2)

	rec = c.do(http.MethodPost, "/api/schedules/"+scheduleID+"/replicate", map[string]any{"until_date": "2024-03-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/schedules/"+scheduleID+"/replicate", map[string]any{"until_date": "2024-03-10", "days_of_week": []any{"segunda"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperations(t *testing.T) {
	c := client{t: t, handler: newTracker(t, 1)}

	rec := c.do(http.MethodGet, "/api/health/check", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	check := decode(t, rec)
	assert.Equal(t, "online", check["status"], rec.Body.String())

	rec = c.do(http.MethodPost, "/api/account/reset", map[string]any{"profile": "sample"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = c.do(http.MethodGet, "/api/database/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode(t, rec)
	assert.Equal(t, "memory", info["backend"])
	assert.Equal(t, false, info["persistent"])
	assert.EqualValues(t, 2, info["users"])
	assert.EqualValues(t, 3, info["activities"])

	rec = c.do(http.MethodPost, "/api/account/reset", map[string]any{"profile": "starter"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["activities"])

	rec = c.do(http.MethodGet, "/api/categories", nil)
	assert.EqualValues(t, 3, decode(t, rec)["count"])

	rec = c.do(http.MethodPost, "/api/account/reset", map[string]any{"profile": "nenhum"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCampaignRoutes(t *testing.T) {
	store := memory.NewStore()
	mux := http.NewServeMux()
	httpapi.RegisterCampaign(mux, slog.New(slog.NewTextHandler(io.Discard, nil)), campaign.NewService(store.Campaign(), clock))
	c := client{t: t, handler: mux}

	rec := c.do(http.MethodPost, "/api/members", map[string]any{
		"name": "Maria", "kind": "Efetivo", "region": "Centro", "supporter": true,
		"latitude": -23.55, "longitude": -46.63,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	memberID := id(t, rec)

	rec = c.do(http.MethodPost, "/api/members", map[string]any{"name": "João", "kind": "Temporário"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/members/"+memberID+"/contacts", map[string]any{"channel": "WhatsApp", "outcome": "positivo"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.do(http.MethodGet, "/api/members/"+memberID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["contacted"])

	rec = c.do(http.MethodGet, "/api/members?supporter=true&region=Centro", nil)
	assert.EqualValues(t, 1, decode(t, rec)["count"])
	rec = c.do(http.MethodGet, "/api/members?supporter=talvez", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/events", map[string]any{
		"title": "Assembleia", "starts_at": "2024-03-10T19:00", "ends_at": "2024-03-10T18:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = c.do(http.MethodPost, "/api/events", map[string]any{"title": "Assembleia", "starts_at": "2024-03-10T19:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.do(http.MethodGet, "/api/calendar?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cal := decode(t, rec)
	assert.Equal(t, "March", cal["month_name"])
	assert.Len(t, cal["events"], 1)
	rec = c.do(http.MethodGet, "/api/calendar?year=2024&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/goals", map[string]any{"title": "Filiações", "target_value": "100", "current_value": 25})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	goalID := id(t, rec)
	assert.EqualValues(t, 25, decode(t, rec)["percent"])

	rec = c.do(http.MethodPut, "/api/goals/"+goalID+"/progress", map[string]any{"current_value": 100})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["completed"])

	rec = c.do(http.MethodPost, "/api/messages", map[string]any{"title": "Convite", "body": "Venha", "segment": "Centro"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	msgID := id(t, rec)

	rec = c.do(http.MethodPost, "/api/messages/"+msgID+"/send", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["recipients"])
	rec = c.do(http.MethodPost, "/api/messages/"+msgID+"/send", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = c.do(http.MethodGet, "/api/kpi", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	kpi := decode(t, rec)
	assert.EqualValues(t, 1, kpi["sent_messages"])
	assert.EqualValues(t, 1, kpi["upcoming_events"])
	assert.EqualValues(t, 0, kpi["open_goals"])

	rec = c.do(http.MethodGet, "/api/territory", nil)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = c.do(http.MethodGet, "/api/members/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = c.do(http.MethodGet, "/api/members/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCampaignRejectsNonNumericCounts(t *testing.T) {
	store := memory.NewStore()
	mux := http.NewServeMux()
	httpapi.RegisterCampaign(mux, slog.New(slog.NewTextHandler(io.Discard, nil)), campaign.NewService(store.Campaign(), clock))
	c := client{t: t, handler: mux}

	rec := c.do(http.MethodPost, "/api/goals", map[string]any{"title": "Filiações", "target_value": 100, "current_value": 10})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	goalID := id(t, rec)

	tests := []struct {
		name   string
		method string
		path   string
		body   map[string]any
	}{
		{"progress word", http.MethodPut, "/api/goals/" + goalID + "/progress", map[string]any{"current_value": "abc"}},
		{"progress fraction", http.MethodPut, "/api/goals/" + goalID + "/progress", map[string]any{"current_value": 2.5}},
		{"goal target", http.MethodPost, "/api/goals", map[string]any{"title": "Votos", "target_value": "muitos"}},
		{"event attendees", http.MethodPost, "/api/events", map[string]any{"title": "Assembleia", "starts_at": "2024-03-10T19:00", "expected_attendees": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec = c.do(http.MethodGet, "/api/goals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	goals := decode(t, rec)
	assert.EqualValues(t, 1, goals["count"])

	rec = c.do(http.MethodPut, "/api/goals/"+goalID+"/progress", map[string]any{"current_value": " 40 "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 40, decode(t, rec)["current_value"])
}
