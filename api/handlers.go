/*
handlers.go - HTTP API handlers for the clinic ledger

PURPOSE:
  Exposes the ledger, reporting, closing and payroll engines via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  engines built by package app.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                     List accounts by code
    GET    /api/accounts/tree                Chart of accounts as a tree
    POST   /api/accounts                     Create account
    DELETE /api/accounts/{id}                Delete unused leaf account
    GET    /api/accounts/{id}/statement      Statement with running balance

  Journal:
    GET    /api/journal                      List entries
    POST   /api/journal                      Post a balanced entry
    GET    /api/journal/{id}                 Entry with lines
    POST   /api/journal/{id}/revise          Change description with reason

  Reports:
    GET    /api/reports/trial-balance
    GET    /api/reports/profit-loss          ?start=&end=
    GET    /api/reports/balance-sheet        ?as_of=
    GET    /api/reports/supplier-aging       ?as_of=

  Closing:
    GET    /api/closing                      Closed months
    GET    /api/closing/{year}/{month}       Preview
    POST   /api/closing/{year}/{month}       Close

  Payroll, master data, time off, settlements, scenarios:
    see handlers_payroll.go

REQUEST FLOW:
  1. Decode JSON (unknown fields rejected)
  2. Validate shape with go-playground/validator
  3. Call the engine
  4. Convert to DTO and respond

ERROR HANDLING:
  Engine errors carry a category (package generic) that picks the status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (closed period, duplicate reference, account in use)
  - 500: Configuration and internal errors

SECURITY NOTE:
  No authentication. Run behind an authenticating proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/warp/clinic-ledger/app"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	App      *app.App
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time
}

// NewHandler creates a handler over the wired application.
func NewHandler(a *app.App, log zerolog.Logger) *Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		App:      a,
		validate: validate,
		log:      log.With().Str("component", "api").Logger(),
		now:      time.Now,
	}
}

// Health reports whether the database is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts ordered by code.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.App.Chart.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AccountTree returns the chart as a tree.
func (h *Handler) AccountTree(w http.ResponseWriter, r *http.Request) {
	roots, err := h.App.Chart.Tree(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountNodeDTOs(roots))
}

// CreateAccount adds an account to the chart.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	acct, err := h.App.Chart.CreateAccount(r.Context(), ledger.NewAccount{
		Code:       req.Code,
		Name:       req.Name,
		Type:       ledger.AccountType(req.Type),
		ParentCode: req.ParentCode,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(acct))
}

// DeleteAccount removes an account that has no lines and no children.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Chart.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AccountStatement returns the account's lines with running balance.
func (h *Handler) AccountStatement(w http.ResponseWriter, r *http.Request) {
	rng, err := dateRangeParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.App.Reports.AccountStatement(r.Context(), chi.URLParam(r, "id"), rng)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(st))
}

// =============================================================================
// JOURNAL HANDLERS
// =============================================================================

// ListEntries returns entries, optionally filtered by date and source.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	rng, err := dateRangeParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f := ledger.EntryFilter{Range: rng, Source: ledger.Source(r.URL.Query().Get("source"))}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.fail(w, r, generic.Field("limit", "must be a non-negative integer"))
			return
		}
		f.Limit = n
	}

	entries, err := h.App.Journal.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PostEntry posts a manual journal entry.
func (h *Handler) PostEntry(w http.ResponseWriter, r *http.Request) {
	var req PostEntryRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	in := ledger.PostingInput{
		Date:        date,
		Description: req.Description,
		Source:      ledger.Source(req.Source),
		Lines:       make([]ledger.PostingLine, len(req.Lines)),
	}
	for i, l := range req.Lines {
		in.Lines[i] = ledger.PostingLine{
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Department:  l.Department,
			Memo:        l.Memo,
		}
	}

	entry, err := h.App.Journal.Post(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// GetEntry returns one entry with its lines.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.App.Journal.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// ReviseEntry changes an entry's description. Lines never change.
func (h *Handler) ReviseEntry(w http.ResponseWriter, r *http.Request) {
	var req ReviseEntryRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	entry, err := h.App.Journal.Revise(r.Context(), chi.URLParam(r, "id"), req.Description, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// TrialBalance returns per-account totals over all posted lines.
func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	tb, err := h.App.Reports.TrialBalance(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrialBalanceDTO(tb))
}

// ProfitAndLoss returns revenue and expenses by department.
func (h *Handler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	rng, err := dateRangeParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pl, err := h.App.Reports.ProfitAndLoss(r.Context(), rng)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfitAndLossDTO(pl))
}

// BalanceSheet returns assets, liabilities and equity. Without as_of it
// covers every posted line.
func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := optionalDate(r, "as_of")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bs, err := h.App.Reports.BalanceSheet(r.Context(), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceSheetDTO(bs))
}

// SupplierAging buckets unpaid expenses by days past due. as_of defaults to
// today.
func (h *Handler) SupplierAging(w http.ResponseWriter, r *http.Request) {
	asOf, err := optionalDate(r, "as_of")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if asOf.IsZero() {
		asOf = generic.TruncateDay(h.now())
	}
	sa, err := h.App.Reports.SupplierAging(r.Context(), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSupplierAgingDTO(sa))
}

// =============================================================================
// CLOSING HANDLERS
// =============================================================================

// ListClosedPeriods returns the accounting months with a recorded state.
func (h *Handler) ListClosedPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.App.Closer.Periods(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	type periodDTO struct {
		Month          string     `json:"month"`
		Status         string     `json:"status"`
		ClosingEntryID string     `json:"closing_entry_id,omitempty"`
		ClosedAt       *time.Time `json:"closed_at,omitempty"`
	}
	dtos := make([]periodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = periodDTO{
			Month:          generic.Month{Year: p.Year, Month: p.Month}.Key(),
			Status:         string(p.Status),
			ClosingEntryID: p.ClosingEntryID,
			ClosedAt:       p.ClosedAt,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PreviewClose shows the closing entry a month would get.
func (h *Handler) PreviewClose(w http.ResponseWriter, r *http.Request) {
	m, err := monthParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.App.Closer.Preview(r.Context(), m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClosingPreviewDTO(p))
}

// CloseMonth posts the closing entry and closes the month.
func (h *Handler) CloseMonth(w http.ResponseWriter, r *http.Request) {
	m, err := monthParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.App.Closer.Close(r.Context(), m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ClosingResultDTO{
		Month:     res.Month.Key(),
		EntryID:   res.EntryID,
		Reference: res.Reference,
		NetProfit: money(res.NetProfit),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// requestError is a malformed or invalid request body.
type requestError struct {
	msg    string
	fields map[string]string
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return generic.ErrValidation }

// decode reads a JSON body into v and validates its shape.
func (h *Handler) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &requestError{msg: "invalid JSON body: " + err.Error()}
	}

	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &requestError{msg: err.Error()}
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			reason := fe.Tag()
			if fe.Param() != "" {
				reason += "=" + fe.Param()
			}
			// Drop the struct name: "lines[0].debit", not "PostEntryRequest.lines[0].debit".
			ns := fe.Namespace()
			if _, rest, ok := strings.Cut(ns, "."); ok {
				ns = rest
			}
			fields[ns] = reason
		}
		return &requestError{msg: "request validation failed", fields: fields}
	}
	return nil
}

// fail maps an engine error to a status and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case generic.IsValidation(err):
		status, code = http.StatusBadRequest, "validation_error"
	case generic.IsNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case generic.IsConflict(err):
		status, code = http.StatusConflict, "conflict"
	case generic.IsConfiguration(err):
		status, code = http.StatusInternalServerError, "configuration_error"
	}

	var details any
	var reqErr *requestError
	var fieldErr *generic.FieldError
	var unbalanced *ledger.UnbalancedError
	switch {
	case errors.As(err, &reqErr) && len(reqErr.fields) > 0:
		details = reqErr.fields
	case errors.As(err, &fieldErr):
		details = map[string]string{fieldErr.Field: fieldErr.Reason}
	case errors.As(err, &unbalanced):
		details = map[string]string{
			"debit":      money(unbalanced.Debit),
			"credit":     money(unbalanced.Credit),
			"difference": money(unbalanced.Debit.Sub(unbalanced.Credit)),
		}
	}

	msg := err.Error()
	if code == "internal_error" {
		h.log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		msg = "internal error"
	} else if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("configuration error")
	}
	writeError(w, status, code, msg, details)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}

func monthParams(r *http.Request) (generic.Month, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return generic.Month{}, generic.Field("year", "must be a number")
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return generic.Month{}, generic.Field("month", "must be a number")
	}
	return generic.MonthOf(year, time.Month(month))
}

func optionalDate(r *http.Request, name string) (time.Time, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return time.Time{}, nil
	}
	t, err := generic.ParseDate(s)
	if err != nil {
		return time.Time{}, generic.Field(name, fmt.Sprintf("expected YYYY-MM-DD, got %q", s))
	}
	return t, nil
}

func dateRangeParams(r *http.Request) (generic.DateRange, error) {
	start, err := optionalDate(r, "start")
	if err != nil {
		return generic.DateRange{}, err
	}
	end, err := optionalDate(r, "end")
	if err != nil {
		return generic.DateRange{}, err
	}
	rng := generic.DateRange{Start: start, End: end}
	return rng, rng.Validate()
}
