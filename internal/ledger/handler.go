package ledger

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the ledger order lifecycle.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers ledger order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/status", h.handleStatus)
	r.Post("/generate", h.handleGenerate)
	r.Get("/{title}/id", h.handleResolveID)
	r.Post("/{title}/confirm", h.transitionHandler((*Service).Confirm))
	r.Post("/{title}/cancel-confirm", h.transitionHandler((*Service).CancelConfirm))
	r.Post("/{title}/confirm-responsibility", h.transitionHandler((*Service).ConfirmResponsibility))
	r.Post("/{title}/cancel-responsibility", h.transitionHandler((*Service).CancelResponsibility))
	r.Post("/{title}/confirm-executive", h.transitionHandler((*Service).ConfirmExecutive))
	r.Post("/{title}/cancel-executive", h.transitionHandler((*Service).CancelExecutive))
	r.Post("/{title}/final-confirm", h.transitionHandler((*Service).FinalConfirmExecutive))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.CheckGenerationStatus(r.Context())
	if err != nil {
		h.logger.Error("generation status", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GenerateNext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleResolveID(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	id, err := h.service.GetIDByTitle(r.Context(), title)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "title": title})
}

func (h *Handler) transitionHandler(op func(*Service, context.Context, string) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title := chi.URLParam(r, "title")
		msg, err := op(h.service, r.Context(), title)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"message": msg})
	}
}
