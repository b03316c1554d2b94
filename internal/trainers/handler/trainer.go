package handler

import (
	"errors"
	"net/http"
	"sync"

	trainerserrors "gymsched/internal/trainers/errors"
	"gymsched/internal/trainers/repository"
	apperrors "gymsched/pkg/errors"
	httputil "gymsched/pkg/http"
	"gymsched/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type TrainerHandler struct {
	repo repository.TrainerRepository
	log  *logger.Logger
}

func NewTrainerHandler(repo repository.TrainerRepository, log *logger.Logger) *TrainerHandler {
	return &TrainerHandler{
		repo: repo,
		log:  log,
	}
}

func (h *TrainerHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "error", writeErr)
		}
		return
	}

	var (
		wg       sync.WaitGroup
		trainers []interface{}
		count    int64
		errFind  error
		errCount error
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		found, err := h.repo.FindAll(r.Context(), limit, offset)
		if err != nil {
			errFind = apperrors.Internal("Failed to retrieve trainers", err)
			return
		}
		trainers = make([]interface{}, len(found))
		for i, t := range found {
			trainers[i] = t
		}
	}()

	go func() {
		defer wg.Done()
		count, errCount = h.repo.Count(r.Context())
		if errCount != nil {
			errCount = apperrors.Internal("Failed to count trainers", errCount)
		}
	}()

	wg.Wait()
	if errFind != nil {
		if writeErr := httputil.WriteError(w, errFind); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "error", writeErr)
		}
		return
	}
	if errCount != nil {
		if writeErr := httputil.WriteError(w, errCount); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, trainers, count, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *TrainerHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	trainer, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, trainerserrors.ErrNotFound):
			err = apperrors.NotFoundWithID("Trainer", id)
		case errors.Is(err, trainerserrors.ErrInvalidID):
			err = apperrors.InvalidInput("Invalid trainer ID format")
		default:
			err = apperrors.Internal("Failed to retrieve trainer", err)
		}
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, trainer); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *TrainerHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/trainers", h.GetAll)
	router.GET("/api/v1/trainers/id/:id", h.GetByID)
}
