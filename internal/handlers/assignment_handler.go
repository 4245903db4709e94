package handlers

import (
	"net/http"

	"caretrack/internal/service"
)

// AssignmentHandler handles link management between workers, tasks and packages
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// LinkWorker adds a worker to a care package
// @Summary Link worker to package
// @Description Add a worker to a care package. Progress records for every task in the package are seeded from the worker's best existing counts.
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param packageID path int true "Care package ID"
// @Param workerID path int true "Worker ID"
// @Success 201 {array} models.ProgressRecord "Seeded progress records"
// @Failure 404 {object} map[string]string "Worker or package not found"
// @Router /packages/{packageID}/workers/{workerID} [post]
func (h *AssignmentHandler) LinkWorker(w http.ResponseWriter, r *http.Request) {
	packageID, err := pathID(r, "packageID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}
	workerID, err := pathID(r, "workerID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	seeded, err := h.assignmentService.LinkWorker(workerID, packageID, actorFromRequest(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, seeded)
}

// UnlinkWorker removes a worker from a care package
// @Summary Unlink worker from package
// @Description Deactivate a worker's membership in a package. Their progress records are retained but stop synchronizing.
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param packageID path int true "Care package ID"
// @Param workerID path int true "Worker ID"
// @Success 204 "Unlinked"
// @Failure 409 {object} map[string]string "No active link"
// @Router /packages/{packageID}/workers/{workerID} [delete]
func (h *AssignmentHandler) UnlinkWorker(w http.ResponseWriter, r *http.Request) {
	packageID, err := pathID(r, "packageID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}
	workerID, err := pathID(r, "workerID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	if err := h.assignmentService.UnlinkWorker(workerID, packageID, actorFromRequest(r)); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LinkTask adds a task to a care package
// @Summary Link task to package
// @Description Add a care task to a package. Progress records are seeded for every worker already in the package.
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param packageID path int true "Care package ID"
// @Param taskID path int true "Care task ID"
// @Success 201 {array} models.ProgressRecord "Seeded progress records"
// @Failure 404 {object} map[string]string "Task or package not found"
// @Router /packages/{packageID}/tasks/{taskID} [post]
func (h *AssignmentHandler) LinkTask(w http.ResponseWriter, r *http.Request) {
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

	seeded, err := h.assignmentService.LinkTask(taskID, packageID, actorFromRequest(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, seeded)
}

// UnlinkTask removes a task from a care package
// @Summary Unlink task from package
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param packageID path int true "Care package ID"
// @Param taskID path int true "Care task ID"
// @Success 204 "Unlinked"
// @Failure 409 {object} map[string]string "No active link"
// @Router /packages/{packageID}/tasks/{taskID} [delete]
func (h *AssignmentHandler) UnlinkTask(w http.ResponseWriter, r *http.Request) {
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

	if err := h.assignmentService.UnlinkTask(taskID, packageID, actorFromRequest(r)); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
