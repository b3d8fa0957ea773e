package adaptor

import (
	"net/http"

	"smart-bus/internal/dto/request"
	"smart-bus/internal/usecase"
	"smart-bus/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type LocationHandler struct {
	service usecase.LocationService
	log     *zap.Logger
}

func NewLocationHandler(service usecase.LocationService, log *zap.Logger) *LocationHandler {
	return &LocationHandler{
		service: service,
		log:     log.With(zap.String("handler", "location")),
	}
}

// RecordPosition handles POST /api/runs/{runID}/position (driver)
func (h *LocationHandler) RecordPosition(w http.ResponseWriter, r *http.Request) {
	var req request.RecordPositionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pos, err := h.service.RecordPosition(r.Context(), chi.URLParam(r, "runID"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "record position")
		return
	}

	utils.ResponseCreated(w, "Position recorded", pos)
}

// GetPosition handles GET /api/runs/{runID}/position (public)
func (h *LocationHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := h.service.GetPosition(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		handleServiceError(w, h.log, err, "get position")
		return
	}

	utils.ResponseSuccess(w, "success", pos)
}
