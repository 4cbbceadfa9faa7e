package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"freshlife/internal/auth"
	"freshlife/internal/core"
	"freshlife/internal/docstore/memory"
	"freshlife/internal/services"
)

var testNow = time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)

type ServerSuite struct {
	suite.Suite
	store *memory.Store
	srv   *Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.store = memory.New()
	s.srv = newTestServer(s.store, nil, Options{})
}

func (s *ServerSuite) TearDownTest() {
	s.NoError(s.srv.Shutdown(context.Background()))
}

func newTestServer(store *memory.Store, identity auth.Provider, opts Options) *Server {
	clock := services.WithClock(func() time.Time { return testNow })
	loc := services.WithLocation(time.UTC)
	return NewServer(":0", Deps{
		Budgets:  services.NewBudgetResolver(store, clock, loc),
		Expenses: services.NewExpenseAggregator(store, clock, loc),
		Tasks:    services.NewTaskManager(store, clock, loc),
		Overview: services.NewOverviewCounter(store, clock, loc),
		Identity: identity,
		Store:    store,
	}, opts)
}

func (s *ServerSuite) do(method, path, body, user string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set(auth.HeaderUserID, user)
		req.Header.Set(auth.HeaderUserName, "User "+user)
	}
	rr := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (s *ServerSuite) decode(rr *httptest.ResponseRecorder, v any) {
	s.T().Helper()
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func (s *ServerSuite) errorCode(rr *httptest.ResponseRecorder) ErrorBody {
	var body struct {
		Error ErrorBody `json:"error"`
	}
	s.decode(rr, &body)
	return body.Error
}

func (s *ServerSuite) createMarchBudget() {
	rr := s.do(http.MethodPost, "/api/budget-periods",
		`{"title":"March","dateFrom":"01-03-2025","dateTo":"31-03-2025","budgetAmount":"500.000"}`, "alice")
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
}

func (s *ServerSuite) addTask(user, title string) string {
	rr := s.do(http.MethodPost, "/api/tasks",
		`{"title":"`+title+`","dueDate":"15-03-2025","priority":"high","tags":"Work"}`, user)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	var body map[string]string
	s.decode(rr, &body)
	s.Require().NotEmpty(body["id"])
	return body["id"]
}

func (s *ServerSuite) TestHealthAndReady() {
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := s.do(http.MethodGet, path, "", "")
		s.Equal(http.StatusOK, rr.Code, path)
		s.NotEmpty(rr.Header().Get("X-Request-Id"))
		s.Equal("nosniff", rr.Header().Get("X-Content-Type-Options"))
	}
}

func (s *ServerSuite) TestReadyFailsWhenStoreDown() {
	srv := newTestServer(s.store, nil, Options{})
	defer srv.Shutdown(context.Background())
	srv.deps.Store = downStore{}

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	s.Equal(http.StatusServiceUnavailable, rr.Code)
}

func (s *ServerSuite) TestMissingIdentityIsUnauthorized() {
	rr := s.do(http.MethodPost, "/api/tasks", `{"title":"x"}`, "")
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(CodeUnauthenticated, s.errorCode(rr).Code)
	s.Zero(s.store.Len("tasks"))
}

func (s *ServerSuite) TestUnresolvedIdentity() {
	srv := newTestServer(s.store, auth.Static{State: auth.Unresolved}, Options{})
	defer srv.Shutdown(context.Background())

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks/today", nil))
	s.Equal(http.StatusServiceUnavailable, rr.Code)
}

func (s *ServerSuite) TestBudgetToday() {
	rr := s.do(http.MethodGet, "/api/budget/today", "", "")
	s.Require().Equal(http.StatusOK, rr.Code)
	var status core.BudgetStatus
	s.decode(rr, &status)
	s.False(status.Found)

	s.createMarchBudget()

	rr = s.do(http.MethodGet, "/api/budget/today", "", "")
	s.decode(rr, &status)
	s.Require().True(status.Found)
	s.Equal("March", status.Period.Title)
	s.True(status.Period.BudgetAmount.Equal(decimal.NewFromInt(500000)))
}

func (s *ServerSuite) TestCreateBudgetPeriodNumericAmount() {
	rr := s.do(http.MethodPost, "/api/budget-periods",
		`{"title":"Spring","dateFrom":"01-03-2025","dateTo":"31-05-2025","budgetAmount":1500.5}`, "alice")
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var period core.BudgetPeriod
	s.decode(rr, &period)
	s.True(period.BudgetAmount.Equal(decimal.RequireFromString("1500.5")), period.BudgetAmount.String())
	s.Equal("/api/budget-periods/"+period.ID, rr.Header().Get("Location"))
}

func (s *ServerSuite) TestCreateBudgetPeriodValidation() {
	rr := s.do(http.MethodPost, "/api/budget-periods",
		`{"title":"Bad","dateFrom":"31-03-2025","dateTo":"01-03-2025","budgetAmount":"10"}`, "alice")
	s.Equal(http.StatusUnprocessableEntity, rr.Code)
	s.Equal("dateTo", s.errorCode(rr).Field)
	s.Zero(s.store.Len("budgetsPeriod"))
}

func (s *ServerSuite) TestExpenseSummary() {
	rr := s.do(http.MethodGet, "/api/expenses/summary", "", "alice")
	s.Equal(http.StatusNotFound, rr.Code, "no period covers today")

	s.createMarchBudget()
	for _, amount := range []string{"150.000", "100.000"} {
		rr := s.do(http.MethodPost, "/api/expenses",
			`{"title":"Groceries","tag":"Shopping","amount":"`+amount+`"}`, "alice")
		s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	}
	s.do(http.MethodPost, "/api/expenses", `{"title":"Other","tag":"Eating","amount":"1.000"}`, "bob")

	rr = s.do(http.MethodGet, "/api/expenses/summary", "", "alice")
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	var body summaryResponse
	s.decode(rr, &body)
	s.True(body.Summary.TotalExpenses.Equal(decimal.NewFromInt(250000)))
	s.True(body.Summary.RemainExpense.Equal(decimal.NewFromInt(250000)))
	s.Equal(50.0, body.Summary.UsedPercentage)

	rr = s.do(http.MethodGet, "/api/expenses/today", "", "alice")
	var list expenseListResponse
	s.decode(rr, &list)
	s.Len(list.Expenses, 2)
}

func (s *ServerSuite) TestAddExpenseValidation() {
	rr := s.do(http.MethodPost, "/api/expenses", `{"title":"Lunch","tag":"Food","amount":"10"}`, "alice")
	s.Equal(http.StatusUnprocessableEntity, rr.Code)
	s.Equal("tag", s.errorCode(rr).Field)

	rr = s.do(http.MethodPost, "/api/expenses", `{"title":"Lunch","tag":"Eating","amount":"12abc"}`, "alice")
	s.Equal(http.StatusUnprocessableEntity, rr.Code)
	s.Equal("amount", s.errorCode(rr).Field)

	for _, amount := range []string{`"1e2000000"`, `1e2000000`, `1.5e3`} {
		rr = s.do(http.MethodPost, "/api/expenses", `{"title":"Lunch","tag":"Eating","amount":`+amount+`}`, "alice")
		s.Equal(http.StatusUnprocessableEntity, rr.Code, amount)
		s.Equal("amount", s.errorCode(rr).Field, amount)
	}

	rr = s.do(http.MethodPost, "/api/expenses", `{"title":`, "alice")
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Zero(s.store.Len("expenses"))
}

func (s *ServerSuite) TestEmptyListsAreArrays() {
	rr := s.do(http.MethodGet, "/api/tasks/today", "", "alice")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{"tasks":[]}`, rr.Body.String())

	rr = s.do(http.MethodGet, "/api/expenses/today", "", "alice")
	s.JSONEq(`{"expenses":[]}`, rr.Body.String())
}

func (s *ServerSuite) TestTaskLifecycle() {
	id := s.addTask("alice", "Write report")

	rr := s.do(http.MethodGet, "/api/tasks/today", "", "alice")
	var list taskListResponse
	s.decode(rr, &list)
	s.Require().Len(list.Tasks, 1)
	s.Equal("Write report", list.Tasks[0].Title)
	s.False(list.Tasks[0].IsCompleted)

	rr = s.do(http.MethodPost, "/api/tasks/"+id+"/complete", "", "bob")
	s.Equal(http.StatusForbidden, rr.Code)

	rr = s.do(http.MethodPost, "/api/tasks/"+id+"/complete", "", "alice")
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.JSONEq(`{"success":true}`, rr.Body.String())

	rr = s.do(http.MethodPost, "/api/tasks/"+id+"/complete", "", "alice")
	s.Equal(http.StatusConflict, rr.Code)

	rr = s.do(http.MethodGet, "/api/tasks/today/completed", "", "alice")
	s.decode(rr, &list)
	s.Len(list.Tasks, 1)

	rr = s.do(http.MethodPost, "/api/tasks/missing/complete", "", "alice")
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *ServerSuite) TestTaskOverview() {
	s.addTask("alice", "One")
	done := s.addTask("alice", "Two")
	s.addTask("bob", "Three")
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/tasks/"+done+"/complete", "", "alice").Code)

	rr := s.do(http.MethodGet, "/api/tasks/overview", "", "alice")
	var counts core.TaskCounts
	s.decode(rr, &counts)
	s.Equal(core.TaskCounts{Total: 2, Pending: 1, Completed: 1}, counts)
}

func (s *ServerSuite) TestAddTaskValidation() {
	rr := s.do(http.MethodPost, "/api/tasks",
		`{"title":"x","dueDate":"15-03-2025","priority":"urgent","tags":"Work"}`, "alice")
	s.Equal(http.StatusUnprocessableEntity, rr.Code)
	s.Equal("priority", s.errorCode(rr).Field)
}

func (s *ServerSuite) TestDashboard() {
	s.createMarchBudget()
	s.addTask("alice", "One")

	rr := s.do(http.MethodGet, "/api/dashboard", "", "alice")
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var body map[string]json.RawMessage
	s.decode(rr, &body)
	for _, section := range []string{"budget", "summary", "tasks", "expenses"} {
		var snap struct {
			State string `json:"state"`
			Error string `json:"error"`
		}
		s.Require().NoError(json.Unmarshal(body[section], &snap), section)
		s.Equal("succeeded", snap.State, section)
		s.Empty(snap.Error, section)
	}
	s.Contains(string(body["user"]), `"id":"alice"`)
}

func (s *ServerSuite) TestDashboardReportsFailedSectionsSeparately() {
	rr := s.do(http.MethodGet, "/api/dashboard", "", "alice")
	s.Require().Equal(http.StatusOK, rr.Code)

	var body struct {
		Summary struct {
			State string `json:"state"`
			Error string `json:"error"`
		} `json:"summary"`
		Tasks struct {
			State string `json:"state"`
		} `json:"tasks"`
	}
	s.decode(rr, &body)
	s.Equal("failed", body.Summary.State)
	s.NotEmpty(body.Summary.Error)
	s.Equal("succeeded", body.Tasks.State)
}

func (s *ServerSuite) TestSuspiciousRequestBlocked() {
	rr := s.do(http.MethodGet, "/.env", "", "")
	s.Equal(http.StatusBadRequest, rr.Code)
}

func TestServer_RateLimitsWrites(t *testing.T) {
	srv := newTestServer(memory.New(), nil, Options{RateLimitPerMin: 1})
	defer srv.Shutdown(context.Background())

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/tasks",
			strings.NewReader(`{"title":"t","dueDate":"15-03-2025","priority":"low","tags":"Other"}`))
		req.Header.Set(auth.HeaderUserID, "alice")
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		return rr.Code
	}
	assert.Equal(t, http.StatusCreated, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks/today", nil)
	req.Header.Set(auth.HeaderUserID, "alice")
	srv.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "reads are not limited")
}

func TestServer_StoreFailureIs500(t *testing.T) {
	srv := NewServer(":0", Deps{
		Budgets:  services.NewBudgetResolver(memory.New()),
		Expenses: services.NewExpenseAggregator(memory.New()),
		Tasks:    failingTasks{},
		Overview: services.NewOverviewCounter(memory.New()),
		Identity: auth.StaticUser("alice"),
	}, Options{})
	defer srv.Shutdown(context.Background())

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks/today", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk on fire")
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("down") }

type failingTasks struct{ TaskService }

func (failingTasks) GetTodayTasks(context.Context, string) ([]core.Task, error) {
	return nil, core.NewPersistenceError("query tasks", errors.New("disk on fire"))
}
