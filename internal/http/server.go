package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"freshlife/internal/auth"
	"freshlife/internal/core"
	"freshlife/internal/log"
	"freshlife/internal/middleware/ratelimit"
	"freshlife/internal/middleware/security"
	"freshlife/internal/middleware/trace"
	"freshlife/internal/services"
)

// The handlers depend on these narrow views of the services.
type (
	BudgetService interface {
		CheckTodayBudget(ctx context.Context) (core.BudgetStatus, error)
		CreateBudgetPeriod(ctx context.Context, in services.NewBudgetPeriod, userID string) (core.BudgetPeriod, error)
	}

	ExpenseService interface {
		AddExpense(ctx context.Context, in services.NewExpense, userID string) (string, error)
		GetTodayExpenses(ctx context.Context, userID string) ([]core.Expense, error)
		Summarize(ctx context.Context, userID string, period core.BudgetPeriod) (core.ExpenseSummary, error)
	}

	TaskService interface {
		AddTask(ctx context.Context, in services.NewTask, userID string) (string, error)
		GetTodayTasks(ctx context.Context, userID string) ([]core.Task, error)
		GetTodayCompletedTasks(ctx context.Context, userID string) ([]core.Task, error)
		CompleteTask(ctx context.Context, taskID, userID string) (services.CompleteResult, error)
	}

	OverviewService interface {
		CountTasks(ctx context.Context, userID string) (core.TaskCounts, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Budgets  BudgetService
	Expenses ExpenseService
	Tasks    TaskService
	Overview OverviewService
	Identity auth.Provider
	Store    Pinger
}

type Options struct {
	RequestTimeout  time.Duration
	RateLimitPerMin int
}

func DefaultOptions() Options {
	return Options{RequestTimeout: 10 * time.Second, RateLimitPerMin: 60}
}

type Server struct {
	http.Server
	deps     Deps
	opts     Options
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	def := DefaultOptions()
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = def.RequestTimeout
	}
	if opts.RateLimitPerMin <= 0 {
		opts.RateLimitPerMin = def.RateLimitPerMin
	}
	if deps.Identity == nil {
		deps.Identity = auth.NewHeaderProvider()
	}

	s := &Server{
		deps:     deps,
		opts:     opts,
		detector: security.NewDetector(),
		logger:   log.WithComponent(log.ComponentHTTP),
	}
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMin,
		CleanupInterval:   5 * time.Minute,
	})
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/budget/today", s.handleTodayBudget)
	mux.HandleFunc("POST /api/budget-periods", s.handleCreateBudgetPeriod)

	mux.HandleFunc("POST /api/expenses", s.handleAddExpense)
	mux.HandleFunc("GET /api/expenses/today", s.handleTodayExpenses)
	mux.HandleFunc("GET /api/expenses/summary", s.handleExpenseSummary)

	mux.HandleFunc("POST /api/tasks", s.handleAddTask)
	mux.HandleFunc("GET /api/tasks/today", s.handleTodayTasks)
	mux.HandleFunc("GET /api/tasks/today/completed", s.handleTodayCompletedTasks)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.handleCompleteTask)
	mux.HandleFunc("GET /api/tasks/overview", s.handleTaskOverview)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.chain(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// chain wraps h with the middleware stack, outermost first.
func (s *Server) chain(h http.Handler) http.Handler {
	h = s.withTimeout(h)
	if mw, ok := s.deps.Identity.(interface {
		Middleware(http.Handler) http.Handler
	}); ok {
		h = mw.Middleware(h)
	}
	h = s.limitWrites(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.Middleware(s.logger, trace.RequestID)(h)
	return s.tracer.Middleware(h)
}

// limitWrites rate limits mutating requests only.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later").Write(w)
	})(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// userID resolves the acting user or writes the matching auth error.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := s.deps.Identity.CurrentUser(r.Context()).UserID()
	if err != nil {
		FromError(err).Write(w)
		return "", false
	}
	return id, true
}

// fail logs err at a level matching its status and writes the response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := FromError(err)
	logger := log.FromContext(r.Context())
	if resp.statusCode >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldOperation, op, log.FieldError, err)
	} else {
		logger.InfoContext(r.Context(), "Request rejected", log.FieldOperation, op, log.FieldError, err)
	}
	resp.Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, CodePersistence, "data store unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
