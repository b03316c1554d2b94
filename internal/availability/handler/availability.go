package handler

import (
	"net/http"

	"gymsched/internal/availability/service"
	apperrors "gymsched/pkg/errors"
	httputil "gymsched/pkg/http"
	"gymsched/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

// DaySchedule returns a trainer's slot grid for one date. The optional
// user_id attaches that member's weekly usage to the response.
func (h *AvailabilityHandler) DaySchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	trainerID := ps.ByName("id")

	query := r.URL.Query()
	date := query.Get("date")
	userID := query.Get("user_id")

	if date == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("date query parameter is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DaySchedule", "error", writeErr)
		}
		return
	}

	day, err := h.service.DaySchedule(r.Context(), trainerID, date, userID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DaySchedule", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, day); err != nil {
		h.log.Error("failed to write success response", "handler", "DaySchedule", "error", err)
	}
}

func (h *AvailabilityHandler) AvailableTrainers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	date := query.Get("date")
	start := query.Get("start")
	end := query.Get("end")

	if date == "" || start == "" || end == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("date, start and end query parameters are required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "AvailableTrainers", "error", writeErr)
		}
		return
	}

	trainers, err := h.service.AvailableTrainers(r.Context(), date, start, end)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "AvailableTrainers", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, trainers); err != nil {
		h.log.Error("failed to write success response", "handler", "AvailableTrainers", "error", err)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/trainers/available", h.AvailableTrainers)
	router.GET("/api/v1/trainers/id/:id/availability", h.DaySchedule)
}
