package responsibility

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the responsibility aggregate.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a responsibility handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers responsibility aggregate routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Post("/tree", h.handleCreateTree)
	r.Get("/{code}/details", h.handleDetails)
	r.Post("/details", h.handleCreateDetail)
	r.Get("/details/{code}/obligations", h.handleObligations)
	r.Post("/obligations", h.handleCreateObligation)
	r.Get("/obligations/{code}/manuals", h.handleManuals)
	r.Post("/manuals", h.handleCreateManual)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.URL.Query().Get("orderId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "orderId must be an integer")
		return
	}
	out, err := h.service.ListByOrder(r.Context(), orderID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in CreateResponsibilityInput
	if !h.decode(w, r, &in) {
		return
	}
	created, err := h.service.CreateResponsibility(r.Context(), in)
	if err != nil {
		h.logger.Error("create responsibility", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleCreateTree(w http.ResponseWriter, r *http.Request) {
	var in TreeInput
	if !h.decode(w, r, &in) {
		return
	}
	created, err := h.service.CreateWithChildren(r.Context(), in)
	if err != nil {
		h.logger.Error("create responsibility tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDetails(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Details(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateDetail(w http.ResponseWriter, r *http.Request) {
	var in CreateDetailInput
	if !h.decode(w, r, &in) {
		return
	}
	created, err := h.service.CreateDetail(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleObligations(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Obligations(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateObligation(w http.ResponseWriter, r *http.Request) {
	var in CreateObligationInput
	if !h.decode(w, r, &in) {
		return
	}
	created, err := h.service.CreateObligation(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleManuals(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Manuals(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateManual(w http.ResponseWriter, r *http.Request) {
	var in CreateManualInput
	if !h.decode(w, r, &in) {
		return
	}
	created, err := h.service.CreateManual(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// decode reads, decodes and validates the request payload, responding on
// failure. Returns false when the caller should stop.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}
