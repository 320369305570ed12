// Package handler wires the policy HTTP surface to the policy service and
// the claim evaluator.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Easycoder-lin/flight-delay-insurance/internal/claims"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/platform/middleware"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/models"
	"github.com/Easycoder-lin/flight-delay-insurance/internal/policy/service"
	id "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain"
	dErrors "github.com/Easycoder-lin/flight-delay-insurance/pkg/domain-errors"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/platform/httputil"
	"github.com/Easycoder-lin/flight-delay-insurance/pkg/requestcontext"
)

// Service defines the interface for policy operations.
type Service interface {
	CreatePolicy(ctx context.Context, params service.CreateParams) (*models.Policy, error)
	GetPolicy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)
	GetPoliciesByHolder(ctx context.Context, holder id.Holder) ([]id.PolicyID, error)
	UpdateFlightInfo(ctx context.Context, policyID id.PolicyID, actualArrival *time.Time, status models.FlightStatus) (*models.Policy, error)
}

// Evaluator defines the interface for claim evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context, policyID id.PolicyID) (*claims.Result, error)
	EvaluateOpen(ctx context.Context) (*claims.SweepReport, error)
}

// Treasury defines the interface for draining the settlement pool.
type Treasury interface {
	WithdrawAll(ctx context.Context, destination string) (int64, error)
}

// Handler wires policy endpoints to their services.
type Handler struct {
	service   Service
	evaluator Evaluator
	treasury  Treasury
	logger    *slog.Logger
}

// New constructs a policy handler with its dependencies.
func New(service Service, evaluator Evaluator, treasury Treasury, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		evaluator: evaluator,
		treasury:  treasury,
		logger:    logger,
	}
}

// Register mounts the policy endpoints on the router. Callers must have
// passed authentication already; role checks are applied per route group.
func (h *Handler) Register(r chi.Router) {
	r.Post("/policies", h.HandleCreatePolicy)
	r.Get("/policies/{policyID}", h.HandleGetPolicy)
	r.Get("/holders/{holder}/policies", h.HandleListByHolder)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.logger, middleware.RoleOracle, middleware.RoleAdmin))
		r.Put("/policies/{policyID}/flight-info", h.HandleUpdateFlightInfo)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(h.logger, middleware.RoleAdmin))
		r.Post("/policies/{policyID}/evaluate", h.HandleEvaluate)
		r.Post("/claims/sweep", h.HandleSweep)
		r.Post("/settlement/withdraw", h.HandleWithdraw)
	})
}

// HandleCreatePolicy handles POST /policies requests. The holder is the
// authenticated subject, never a body field.
func (h *Handler) HandleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	subject := requestcontext.Subject(ctx)
	if subject == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreatePolicyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.CreatePolicy(ctx, service.CreateParams{
		Holder:             id.Holder(subject),
		FlightCode:         req.FlightCode,
		ScheduledDeparture: req.ParsedDeparture(),
		ScheduledArrival:   req.ParsedArrival(),
		PaidAmountCents:    req.PaidAmountCents,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "policy creation failed",
			"request_id", requestID,
			"holder", subject,
			"flight_code", req.FlightCode,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "policy purchase handled",
		"request_id", requestID,
		"policy_id", p.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromPolicy(p))
}

// HandleGetPolicy handles GET /policies/{policyID} requests.
func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	policyID, ok := h.policyIDFromURL(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetPolicy(ctx, policyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(p))
}

// HandleListByHolder handles GET /holders/{holder}/policies requests.
func (h *Handler) HandleListByHolder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	holder := id.Holder(chi.URLParam(r, "holder"))
	if holder == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "holder is required"))
		return
	}

	ids, err := h.service.GetPoliciesByHolder(ctx, holder)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if ids == nil {
		ids = []id.PolicyID{}
	}
	httputil.WriteJSON(w, http.StatusOK, &HolderPoliciesResponse{Holder: holder, Policies: ids})
}

// HandleUpdateFlightInfo handles PUT /policies/{policyID}/flight-info requests.
func (h *Handler) HandleUpdateFlightInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	policyID, ok := h.policyIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateFlightInfoRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.UpdateFlightInfo(ctx, policyID, req.ParsedArrival(), req.ParsedStatus())
	if err != nil {
		h.logger.ErrorContext(ctx, "flight info update failed",
			"request_id", requestID,
			"policy_id", policyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(p))
}

// HandleEvaluate handles POST /policies/{policyID}/evaluate requests. The
// optional "now" query parameter pins the evaluation clock, used for
// deterministic runs against historical data.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	policyID, ok := h.policyIDFromURL(w, r)
	if !ok {
		return
	}

	ctx, ok = pinClock(w, r, ctx)
	if !ok {
		return
	}

	res, err := h.evaluator.Evaluate(ctx, policyID)
	if err != nil {
		h.logger.ErrorContext(ctx, "claim evaluation failed",
			"request_id", requestID,
			"policy_id", policyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResult(res))
}

// HandleSweep handles POST /claims/sweep requests, evaluating every active
// policy once. Accepts the same optional "now" pin as single evaluation.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	ctx, ok := pinClock(w, r, ctx)
	if !ok {
		return
	}

	report, err := h.evaluator.EvaluateOpen(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "claims sweep failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claims sweep finished",
		"request_id", requestID,
		"evaluated", report.Evaluated,
		"settled", report.Settled,
		"failed", report.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleWithdraw handles POST /settlement/withdraw requests.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[WithdrawRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	amount, err := h.treasury.WithdrawAll(ctx, req.Destination)
	if err != nil {
		h.logger.ErrorContext(ctx, "pool withdrawal failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "pool withdrawn",
		"request_id", requestID,
		"subject", requestcontext.Subject(ctx),
		"withdrawn_cents", amount,
	)
	httputil.WriteJSON(w, http.StatusOK, &WithdrawResponse{
		Destination:    req.Destination,
		WithdrawnCents: amount,
	})
}

// pinClock applies the optional "now" query parameter to the request clock.
func pinClock(w http.ResponseWriter, r *http.Request, ctx context.Context) (context.Context, bool) {
	raw := r.URL.Query().Get("now")
	if raw == "" {
		return ctx, true
	}
	now, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "now must be RFC 3339"))
		return ctx, false
	}
	return requestcontext.WithTime(ctx, now), true
}

func (h *Handler) policyIDFromURL(w http.ResponseWriter, r *http.Request) (id.PolicyID, bool) {
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "policy id must be a positive integer"))
		return 0, false
	}
	return policyID, true
}
