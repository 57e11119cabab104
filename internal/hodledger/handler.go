package hodledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the sub-ledger lifecycle.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a sub-ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers sub-ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/options", h.handleOptions)
	r.Get("/{id}", h.handleGet)
	r.Post("/generate", h.handleGenerate)
	r.Post("/{id}/confirm", h.handleConfirm)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ledgers, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list hod ledgers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledgers)
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.SelectOptions(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, options)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be an integer")
		return
	}
	l, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, l)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Generate(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be an integer")
		return
	}
	if err := h.service.Confirm(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "hod ledger confirmed"})
}
