package adaptor

import (
	"net/http"

	"smart-bus/internal/dto/request"
	"smart-bus/internal/usecase"
	"smart-bus/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SeatHandler struct {
	service usecase.SeatService
	log     *zap.Logger
}

func NewSeatHandler(service usecase.SeatService, log *zap.Logger) *SeatHandler {
	return &SeatHandler{
		service: service,
		log:     log.With(zap.String("handler", "seat")),
	}
}

// GetSeatMap handles GET /api/runs/{runID}/seats (public)
func (h *SeatHandler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	seats, err := h.service.GetSeatMap(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		handleServiceError(w, h.log, err, "get seat map")
		return
	}

	utils.ResponseSuccess(w, "success", seats)
}

// GetOccupancy handles GET /api/runs/{runID}/occupancy (public)
func (h *SeatHandler) GetOccupancy(w http.ResponseWriter, r *http.Request) {
	occupancy, err := h.service.GetOccupancy(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		handleServiceError(w, h.log, err, "get occupancy")
		return
	}

	utils.ResponseSuccess(w, "success", occupancy)
}

// ProvisionSeats handles POST /api/admin/runs/{runID}/seats
func (h *SeatHandler) ProvisionSeats(w http.ResponseWriter, r *http.Request) {
	var req request.ProvisionSeatsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	seats, err := h.service.ProvisionSeats(r.Context(), chi.URLParam(r, "runID"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "provision seats")
		return
	}

	utils.ResponseCreated(w, "Seats provisioned", seats)
}
