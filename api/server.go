/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RealIP:     Client address from proxy headers
  2. RequestID:  Unique ID per request for tracing
  3. Logger:     Structured request logging (zerolog)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Secure:     Security headers, HTTPS redirect in production
  6. RateLimit:  Per-IP requests per minute (disabled at 0)
  7. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/accounts/*        Chart of accounts and statements
  /api/journal/*         Journal entries
  /api/reports/*         Trial balance, P&L, balance sheet, aging
  /api/closing/*         Month-end closing
  /api/payroll/*         Payroll calculation and posting
  /api/departments       Departments
  /api/employees/*       Employees, attendance, time off
  /api/payroll-codes     Payroll codes and GL mapping
  /api/invoices, /api/expenses   Settlement triggers
  /api/scenarios/*       Demo scenarios
  /healthz               Liveness and database ping

SECURITY NOTE:
  No authentication middleware. Run behind an authenticating proxy.

SEE ALSO:
  - handlers.go, handlers_payroll.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"
	"github.com/warp/clinic-ledger/config"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := secureMiddleware.Process(w, r); err != nil {
				h.log.Warn().Err(err).Msg("secure headers blocked request")
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.Limit(cfg.RateLimitPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/tree", h.AccountTree)
			r.Delete("/{id}", h.DeleteAccount)
			r.Get("/{id}/statement", h.AccountStatement)
		})

		r.Route("/journal", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.PostEntry)
			r.Get("/{id}", h.GetEntry)
			r.Post("/{id}/revise", h.ReviseEntry)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/trial-balance", h.TrialBalance)
			r.Get("/profit-loss", h.ProfitAndLoss)
			r.Get("/balance-sheet", h.BalanceSheet)
			r.Get("/supplier-aging", h.SupplierAging)
		})

		r.Route("/closing", func(r chi.Router) {
			r.Get("/", h.ListClosedPeriods)
			r.Get("/{year}/{month}", h.PreviewClose)
			r.Post("/{year}/{month}", h.CloseMonth)
		})

		r.Route("/payroll/{year}/{month}", func(r chi.Router) {
			r.Post("/calculate", h.CalculatePayroll)
			r.Post("/close", h.ClosePayroll)
			r.Get("/slips", h.ListSlips)
		})

		r.Get("/departments", h.ListDepartments)
		r.Post("/departments", h.CreateDepartment)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.SaveEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Post("/{id}/attendance", h.SaveAttendance)
			r.Get("/{id}/time-off", h.GetTimeOff)
			r.Post("/{id}/time-off", h.RecordTimeOff)
		})

		r.Get("/payroll-codes", h.ListPayrollCodes)
		r.Post("/payroll-codes", h.SavePayrollCode)

		r.Post("/invoices/settle", h.SettleInvoice)
		r.Post("/expenses", h.RecordExpense)
		r.Post("/expenses/{id}/pay", h.PayExpense)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// requestLogger logs one line per request with status and latency.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := log.Info()
			if status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("request")
		})
	}
}
