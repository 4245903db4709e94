package handlers

import (
	"net/http"

	"caretrack/internal/service"
)

// ProgressHandler handles progress tracking requests
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// UpdateProgressRequest is the body for progress updates
type UpdateProgressRequest struct {
	CompletionCount int `json:"completion_count"`
}

// UpdateProgress sets a worker's completion count for a task within a package
// @Summary Update task progress
// @Description Set the completion count for a worker's task in one package. The new count is synchronized to every other package the pair is actively linked through.
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workerID path int true "Worker ID"
// @Param packageID path int true "Care package ID"
// @Param taskID path int true "Care task ID"
// @Param request body UpdateProgressRequest true "New completion count"
// @Success 200 {object} models.ProgressRecord
// @Failure 400 {object} map[string]string "Invalid count"
// @Failure 404 {object} map[string]string "Worker or task not found"
// @Failure 409 {object} map[string]string "Worker or task not linked to package"
// @Router /workers/{workerID}/packages/{packageID}/tasks/{taskID}/progress [put]
func (h *ProgressHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r, "workerID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}
	packageID, err := pathID(r, "packageID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req UpdateProgressRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	record, err := h.progressService.UpdateProgress(workerID, packageID, taskID, req.CompletionCount, actorFromRequest(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

// ResetProgress zeroes one progress record
// @Summary Reset task progress
// @Description Zero the completion count for one (worker, package, task) record without touching other packages
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param workerID path int true "Worker ID"
// @Param packageID path int true "Care package ID"
// @Param taskID path int true "Care task ID"
// @Success 200 {object} models.ProgressRecord
// @Failure 404 {object} map[string]string "No progress record"
// @Router /workers/{workerID}/packages/{packageID}/tasks/{taskID}/progress [delete]
func (h *ProgressHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r, "workerID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}
	packageID, err := pathID(r, "packageID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	record, err := h.progressService.ResetProgress(workerID, packageID, taskID, actorFromRequest(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

// ListWorkerProgress returns a worker's full progress matrix
// @Summary List worker progress
// @Description Get all progress records for one worker across their active packages
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param workerID path int true "Worker ID"
// @Success 200 {array} models.ProgressRecordWithDetails
// @Failure 404 {object} map[string]string "Worker not found"
// @Router /workers/{workerID}/progress [get]
func (h *ProgressHandler) ListWorkerProgress(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r, "workerID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	records, err := h.progressService.ListWorkerProgress(workerID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}

// ListPackageProgress returns all progress records within one package
// @Summary List package progress
// @Description Get all progress records within one care package
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param packageID path int true "Care package ID"
// @Success 200 {array} models.ProgressRecordWithDetails
// @Failure 404 {object} map[string]string "Package not found"
// @Router /packages/{packageID}/progress [get]
func (h *ProgressHandler) ListPackageProgress(w http.ResponseWriter, r *http.Request) {
	packageID, err := pathID(r, "packageID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	records, err := h.progressService.ListPackageProgress(packageID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}
