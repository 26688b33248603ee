package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verifdesk/internal/verification/models"
	"verifdesk/internal/verification/queue"
	"verifdesk/internal/verification/service"
	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
	"verifdesk/pkg/platform/httputil"
	"verifdesk/pkg/platform/middleware/admin"
	authmw "verifdesk/pkg/platform/middleware/auth"
	"verifdesk/pkg/requestcontext"
)

// Service defines the verification operations exposed over HTTP.
type Service interface {
	ApplyDecision(ctx context.Context, reviewer id.ReviewerID, decision models.Decision) (*service.DecisionResult, error)
	Get(ctx context.Context, requestID id.VerificationID) (*models.VerificationRequest, error)
	Query(ctx context.Context, spec queue.Spec) ([]*models.VerificationRequest, error)
	Stats(ctx context.Context, reviewer id.ReviewerID) (*models.ControllerStats, error)
	CreateRequest(ctx context.Context, request *models.VerificationRequest) (*models.VerificationRequest, error)
	AppendDocument(ctx context.Context, requestID id.VerificationID, doc models.Document) (*models.VerificationRequest, error)
	AppendCheck(ctx context.Context, requestID id.VerificationID, check models.VerificationCheck) (*models.VerificationRequest, error)
	AppendNote(ctx context.Context, requestID id.VerificationID, note models.Note) (*models.VerificationRequest, error)
}

// Handler wires the reviewer desk and intake endpoints to the service.
type Handler struct {
	service     Service
	logger      *slog.Logger
	validator   authmw.JWTValidator
	intakeToken string
}

// New constructs a verification handler. Reviewer routes require a bearer
// token accepted by validator; intake routes require intakeToken.
func New(service Service, logger *slog.Logger, validator authmw.JWTValidator, intakeToken string) *Handler {
	return &Handler{
		service:     service,
		logger:      logger,
		validator:   validator,
		intakeToken: intakeToken,
	}
}

// Register mounts the verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/controller", func(r chi.Router) {
		r.Use(authmw.RequireReviewer(h.validator, h.logger))
		r.Get("/queue", h.HandleQueue)
		r.Get("/history", h.HandleHistory)
		r.Get("/stats", h.HandleStats)
		r.Get("/requests/{id}", h.HandleGet)
		r.Post("/requests/{id}/decision", h.HandleDecision)
	})
	r.Route("/intake", func(r chi.Router) {
		r.Use(admin.RequireAdminToken(h.intakeToken, h.logger))
		r.Post("/requests", h.HandleIntake)
		r.Post("/requests/{id}/documents", h.HandleAppendDocument)
		r.Post("/requests/{id}/checks", h.HandleAppendCheck)
		r.Post("/requests/{id}/notes", h.HandleAppendNote)
	})
}

// HandleQueue handles GET /controller/queue.
func (h *Handler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	h.handleQuery(w, r, queue.ViewQueue)
}

// HandleHistory handles GET /controller/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	h.handleQuery(w, r, queue.ViewHistory)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request, view queue.View) {
	ctx := r.Context()
	q := r.URL.Query()
	spec, err := queue.ParseSpec(queue.RawSpec{
		View:         string(view),
		Search:       q.Get("search"),
		Status:       q.Get("status"),
		DocumentType: q.Get("document_type"),
		Risk:         q.Get("risk"),
		Overdue:      q.Get("overdue"),
		SortBy:       q.Get("sort_by"),
		SortOrder:    q.Get("sort_order"),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "invalid queue query",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	spec.AsOf = requestcontext.Now(ctx)

	requests, err := h.service.Query(ctx, spec)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromQueue(requests, spec.AsOf))
}

// HandleStats handles GET /controller/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snapshot, err := h.service.Stats(ctx, requestcontext.ReviewerID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

// HandleGet handles GET /controller/requests/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	request, err := h.service.Get(ctx, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequest(request, requestcontext.Now(ctx)))
}

// HandleDecision handles POST /controller/requests/{id}/decision.
func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	reviewer := requestcontext.ReviewerID(ctx)
	if reviewer.IsNil() {
		// RequireReviewer guarantees this; a miss means the route was mounted without it
		h.logger.ErrorContext(ctx, "reviewer missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	verificationID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ApplyDecision(ctx, reviewer, req.ToDecision(verificationID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDecisionResult(result, requestcontext.Now(ctx)))
}

// HandleIntake handles POST /intake/requests.
func (h *Handler) HandleIntake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[IntakeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	created, err := h.service.CreateRequest(ctx, req.ToModel())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRequest(created, requestcontext.Now(ctx)))
}

// HandleAppendDocument handles POST /intake/requests/{id}/documents.
func (h *Handler) HandleAppendDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	verificationID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AppendDocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.service.AppendDocument(ctx, verificationID, req.ToModel())
	h.writeAppended(w, r, updated, err)
}

// HandleAppendCheck handles POST /intake/requests/{id}/checks.
func (h *Handler) HandleAppendCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	verificationID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AppendCheckRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.service.AppendCheck(ctx, verificationID, req.ToModel())
	h.writeAppended(w, r, updated, err)
}

// HandleAppendNote handles POST /intake/requests/{id}/notes.
func (h *Handler) HandleAppendNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	verificationID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AppendNoteRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.service.AppendNote(ctx, verificationID, req.ToModel())
	h.writeAppended(w, r, updated, err)
}

func (h *Handler) writeAppended(w http.ResponseWriter, r *http.Request, updated *models.VerificationRequest, err error) {
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRequest(updated, requestcontext.Now(r.Context())))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (id.VerificationID, bool) {
	verificationID, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		ctx := r.Context()
		h.logger.WarnContext(ctx, "invalid verification id in path",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return "", false
	}
	return verificationID, true
}
