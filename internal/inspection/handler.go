package inspection

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

// Handler wires HTTP endpoints for inspection plans and items.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs an inspection handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers inspection routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/plans", h.handleListPlans)
	r.Post("/plans", h.handleCreatePlan)
	r.Get("/plans/{code}/items", h.handleItems)
	r.Post("/items", h.handleAddItem)
	r.Post("/items/{code}/approve", h.handleApprove)
	r.Post("/items/{code}/reject", h.handleReject)
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.URL.Query().Get("orderId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "orderId must be an integer")
		return
	}
	plans, err := h.service.ListPlans(r.Context(), orderID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, plans)
}

func (h *Handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var in CreatePlanInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.CreatePlan(r.Context(), in)
	if err != nil {
		h.logger.Error("create inspection plan", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Items(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var in AddItemInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.AddItem(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ApproveItem(r.Context(), chi.URLParam(r, "code")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "item approved"})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RejectItem(r.Context(), chi.URLParam(r, "code")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "item rejected"})
}
