package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/cognivia/internal/api"
	"github.com/vytor/cognivia/internal/events"
	"github.com/vytor/cognivia/internal/metrics"
	"github.com/vytor/cognivia/internal/models"
	"github.com/vytor/cognivia/internal/repository/sqlite"
	"github.com/vytor/cognivia/internal/services"
	"github.com/vytor/cognivia/internal/testutil"
)

const secret = "test-secret-0123456789"

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type APISuite struct {
	suite.Suite
	db     *sql.DB
	broker *events.Broker
	server *api.Server
	http   *httptest.Server
}

func (s *APISuite) SetupTest() {
	metrics.Init()
	s.db = testutil.NewTestDB(s.T())
	clock := testutil.NewClock(time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC))
	s.broker = events.NewBroker(64)

	sessions := sqlite.NewSessionRepository(s.db)
	calendar := services.NewCalendarService(sessions, sqlite.NewStreakRepository(s.db), sqlite.NewAnalyticsRepository(s.db), s.broker, services.CalendarOptions{
		Location: time.UTC,
		Now:      clock.Now,
	})
	s.server = &api.Server{
		Calendar:  calendar,
		Plans:     services.NewPlanService(sqlite.NewPlanRepository(s.db), clock.Now),
		Reminders: services.NewReminderService(sqlite.NewReminderRepository(s.db), sessions, s.broker, clock.Now),
		Goals:     services.NewGoalService(sqlite.NewGoalRepository(s.db), sessions, calendar, clock.Now),
		Broker:    s.broker,
		Auth:      api.NewAuthenticator(secret),
		DB:        fakePinger{},
	}
	s.http = httptest.NewServer(s.server.Routes())
}

func (s *APISuite) TearDownTest() {
	s.http.Close()
	testutil.MustClose(s.T(), s.db)
}

func (s *APISuite) token(userID, key string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(key))
	s.Require().NoError(err)
	return signed
}

func (s *APISuite) do(method, path, userID string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			s.Require().NoError(json.NewEncoder(&buf).Encode(b))
		}
	}
	req, err := http.NewRequest(method, s.http.URL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(userID, secret))
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *APISuite) decode(resp *http.Response, v any) {
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *APISuite) errorCode(resp *http.Response) string {
	var body errorBody
	s.decode(resp, &body)
	return body.Error.Code
}

func (s *APISuite) createSession(userID string) models.StudySession {
	resp := s.do(http.MethodPost, "/api/sessions", userID, models.NewSessionInput{
		Title:     "Calculus",
		Subject:   "Math",
		Type:      models.TypeStudy,
		Priority:  models.PriorityHigh,
		Date:      "2024-03-04",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var session models.StudySession
	s.decode(resp, &session)
	return session
}

func (s *APISuite) TestHealthAndReady() {
	resp := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodGet, "/ready", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	s.server.DB = fakePinger{err: stderrors.New("locked")}
	unready := httptest.NewServer(s.server.Routes())
	defer unready.Close()
	r, err := http.Get(unready.URL + "/ready")
	s.Require().NoError(err)
	defer r.Body.Close()
	s.Equal(http.StatusServiceUnavailable, r.StatusCode)
}

func (s *APISuite) TestMetricsEndpoint() {
	s.do(http.MethodGet, "/health", "", nil)
	resp := s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *APISuite) TestAuthentication() {
	resp := s.do(http.MethodGet, "/api/sessions", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("UNAUTHENTICATED", s.errorCode(resp))

	req, err := http.NewRequest(http.MethodGet, s.http.URL+"/api/sessions", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+s.token("user-1", "some-other-secret-value"))
	forged, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer forged.Body.Close()
	s.Equal(http.StatusUnauthorized, forged.StatusCode)

	req, err = http.NewRequest(http.MethodGet, s.http.URL+"/api/sessions", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	basic, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer basic.Body.Close()
	s.Equal(http.StatusUnauthorized, basic.StatusCode)
}

func (s *APISuite) TestSessionLifecycle() {
	created := s.createSession("user-1")
	s.Equal(models.StatusScheduled, created.Status)
	s.Equal(60, created.DurationMinutes)

	resp := s.do(http.MethodGet, "/api/sessions/"+created.ID, "user-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/sessions/"+created.ID+"/start", "user-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var started models.StudySession
	s.decode(resp, &started)
	s.Equal(models.StatusInProgress, started.Status)

	resp = s.do(http.MethodPost, "/api/sessions/"+created.ID+"/complete", "user-1", map[string]any{"score": 90, "notes": "solid"})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var completed models.StudySession
	s.decode(resp, &completed)
	s.Equal(models.StatusCompleted, completed.Status)
	s.Require().NotNil(completed.Score)
	s.Equal(90, *completed.Score)
	s.Equal("solid", completed.Notes)

	resp = s.do(http.MethodPost, "/api/sessions/"+created.ID+"/cancel", "user-1", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("VALIDATION_ERROR", s.errorCode(resp))

	resp = s.do(http.MethodGet, "/api/sessions/past", "user-1", nil)
	var past []models.StudySession
	s.decode(resp, &past)
	s.Len(past, 1)

	resp = s.do(http.MethodGet, "/api/streak", "user-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var streak models.StudyStreak
	s.decode(resp, &streak)
	s.Equal(1, streak.CurrentStreak)

	resp = s.do(http.MethodGet, "/api/analytics", "user-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var analytics models.StudyAnalytics
	s.decode(resp, &analytics)
	s.Equal(1, analytics.TotalSessions)
}

func (s *APISuite) TestCompleteAcceptsEmptyBodyOfUnknownLength() {
	created := s.createSession("user-1")

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+created.ID+"/complete", io.NopCloser(strings.NewReader("")))
	req.ContentLength = -1
	req.Header.Set("Authorization", "Bearer "+s.token("user-1", secret))
	rec := httptest.NewRecorder()
	s.server.Routes().ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var completed models.StudySession
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&completed))
	s.Equal(models.StatusCompleted, completed.Status)
	s.Nil(completed.Score)

	other := s.createSession("user-1")
	resp := s.do(http.MethodPost, "/api/sessions/"+other.ID+"/complete", "user-1", `{"score":`)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestListFiltersAndStatus() {
	first := s.createSession("user-1")
	s.createSession("user-1")

	resp := s.do(http.MethodPost, "/api/sessions/"+first.ID+"/cancel", "user-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/sessions?status=scheduled,in_progress", "user-1", nil)
	var open []models.StudySession
	s.decode(resp, &open)
	s.Len(open, 1)

	resp = s.do(http.MethodGet, "/api/sessions?status=bogus", "user-1", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/sessions/"+first.ID+"/status", "user-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var view map[string]json.RawMessage
	s.decode(resp, &view)
	s.Contains(view, "session")
	s.Contains(view, "display")
}

func (s *APISuite) TestUpdateAndDelete() {
	created := s.createSession("user-1")

	resp := s.do(http.MethodPatch, "/api/sessions/"+created.ID, "user-1", map[string]any{"end_time": "11:30"})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var updated models.StudySession
	s.decode(resp, &updated)
	s.Equal(90, updated.DurationMinutes)

	resp = s.do(http.MethodPatch, "/api/sessions/"+created.ID, "user-1", `{"title":`)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("BAD_REQUEST", s.errorCode(resp))

	resp = s.do(http.MethodDelete, "/api/sessions/"+created.ID, "user-1", nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.do(http.MethodDelete, "/api/sessions/"+created.ID, "user-1", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("NOT_FOUND", s.errorCode(resp))
}

func (s *APISuite) TestUsersAreIsolated() {
	created := s.createSession("user-1")

	resp := s.do(http.MethodGet, "/api/sessions/"+created.ID, "user-2", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/sessions", "user-2", nil)
	var sessions []models.StudySession
	s.decode(resp, &sessions)
	s.Empty(sessions)
}

func (s *APISuite) TestPlanningEndpoints() {
	resp := s.do(http.MethodPost, "/api/plans", "user-1", models.StudyPlan{
		Title:     "Finals",
		StartDate: "2024-03-04",
		EndDate:   "2024-03-10",
		Subjects:  []string{"Math"},
		Sessions:  []models.PlanSlot{{DayOfWeek: 1, Time: "09:00", Subject: "Math", DurationMinutes: 60}},
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var plan models.StudyPlan
	s.decode(resp, &plan)

	resp = s.do(http.MethodGet, "/api/plans/"+plan.ID+"/schedule", "user-1", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var occurrences []models.PlannedOccurrence
	s.decode(resp, &occurrences)
	s.Require().Len(occurrences, 1)
	s.Equal("2024-03-04", occurrences[0].Date)

	resp = s.do(http.MethodPost, "/api/goals", "user-1", models.StudyGoal{Title: "Math hours", Subject: "Math", TargetHours: 10})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/goals", "user-1", nil)
	var goals []models.StudyGoal
	s.decode(resp, &goals)
	s.Len(goals, 1)

	session := s.createSession("user-1")
	resp = s.do(http.MethodPost, "/api/reminders", "user-1", models.Reminder{
		SessionID: session.ID,
		Title:     "Calculus soon",
		RemindAt:  time.Date(2024, 3, 4, 9, 45, 0, 0, time.UTC),
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/reminders", "user-1", nil)
	var reminders []models.Reminder
	s.decode(resp, &reminders)
	s.Len(reminders, 1)
}

func (s *APISuite) TestEventStream() {
	wsURL := "ws" + strings.TrimPrefix(s.http.URL, "http") + "/api/events?token=" + s.token("user-1", secret)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().NoError(err)
	defer resp.Body.Close()
	defer conn.Close()

	s.Require().Eventually(func() bool { return s.broker.Subscribers("user-1") == 1 }, time.Second, 10*time.Millisecond)

	created := s.createSession("user-1")

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	for {
		var ev events.Event
		s.Require().NoError(conn.ReadJSON(&ev))
		s.Equal("user-1", ev.UserID)
		if ev.Type == events.SessionCreated {
			s.Equal(created.ID, ev.SessionID)
			break
		}
	}
}

func (s *APISuite) TestEventStreamRejectsMissingToken() {
	wsURL := "ws" + strings.TrimPrefix(s.http.URL, "http") + "/api/events"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().Error(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}
