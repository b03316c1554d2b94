package handler

import (
	"encoding/json"
	"net/http"

	"gymsched/internal/blocks/service"
	httputil "gymsched/pkg/http"
	"gymsched/pkg/logger"
	"gymsched/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BlockHandler struct {
	service service.BlockService
	log     *logger.Logger
}

func NewBlockHandler(service service.BlockService, log *logger.Logger) *BlockHandler {
	return &BlockHandler{
		service: service,
		log:     log,
	}
}

func (h *BlockHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var block model.Block
	if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "error", writeErr)
		}
		return
	}

	result, err := h.service.Create(r.Context(), &block)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BlockHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "error", writeErr)
		}
		return
	}

	query := r.URL.Query()
	trainerID := query.Get("trainer_id")
	date := query.Get("date")

	blocks, total, err := h.service.List(r.Context(), trainerID, date, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, blocks, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "error", err)
	}
}

func (h *BlockHandler) Remove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	result, err := h.service.Remove(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Remove", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Remove", "error", err)
	}
}

type bulkRemoveResponse struct {
	Deleted int64 `json:"deleted"`
}

func (h *BlockHandler) BulkRemove(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload model.BulkRemove
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "BulkRemove", "error", writeErr)
		}
		return
	}

	deleted, err := h.service.BulkRemove(r.Context(), &payload)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "BulkRemove", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, bulkRemoveResponse{Deleted: deleted}); err != nil {
		h.log.Error("failed to write success response", "handler", "BulkRemove", "error", err)
	}
}

func (h *BlockHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/blocks", h.Create)
	router.GET("/api/v1/blocks", h.List)
	router.DELETE("/api/v1/blocks/id/:id", h.Remove)
	router.POST("/api/v1/blocks/remove/bulk", h.BulkRemove)
}
