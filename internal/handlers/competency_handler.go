package handlers

import (
	"net/http"
	"strconv"

	"caretrack/internal/middleware"
	"caretrack/internal/models"
	"caretrack/internal/service"
)

// CompetencyHandler handles rating and confirmation requests
type CompetencyHandler struct {
	competencyService *service.CompetencyService
	assessmentService *service.AssessmentService
}

// NewCompetencyHandler creates a new competency handler
func NewCompetencyHandler(competencyService *service.CompetencyService, assessmentService *service.AssessmentService) *CompetencyHandler {
	return &CompetencyHandler{
		competencyService: competencyService,
		assessmentService: assessmentService,
	}
}

// SetRatingRequest is the body for manual rating changes
type SetRatingRequest struct {
	Level            string  `json:"level"`
	Notes            *string `json:"notes,omitempty"`
	SkipConfirmation bool    `json:"skip_confirmation,omitempty"`
}

// SetRating applies a manual rating change for a (worker, task) pair
// @Summary Set competency rating
// @Description Set the global competency level for a worker on a task. First-time ratings queue a confirmation for the worker unless skip_confirmation is set. NOT_ASSESSED resets the rating and all progress for the pair.
// @Tags Competency
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workerID path int true "Worker ID"
// @Param taskID path int true "Care task ID"
// @Param request body SetRatingRequest true "New level"
// @Success 200 {object} service.SetRatingResult
// @Failure 400 {object} map[string]string "Unknown level"
// @Failure 404 {object} map[string]string "Worker or task not found"
// @Router /workers/{workerID}/tasks/{taskID}/competency [put]
func (h *CompetencyHandler) SetRating(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r, "workerID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req SetRatingRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	level, err := models.ParseCompetencyLevel(req.Level)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.competencyService.SetRating(workerID, taskID, level, models.SourceManual, actorFromRequest(r), req.Notes, req.SkipConfirmation)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetRating retrieves the rating for a pair
// @Summary Get competency rating
// @Tags Competency
// @Produce json
// @Security BearerAuth
// @Param workerID path int true "Worker ID"
// @Param taskID path int true "Care task ID"
// @Success 200 {object} models.CompetencyRating
// @Failure 404 {object} map[string]string "No rating for pair"
// @Router /workers/{workerID}/tasks/{taskID}/competency [get]
func (h *CompetencyHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r, "workerID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}
	taskID, err := pathID(r, "taskID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	rating, err := h.competencyService.GetRating(workerID, taskID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, rating)
}

// ListWorkerRatings retrieves all ratings for one worker
// @Summary List worker ratings
// @Tags Competency
// @Produce json
// @Security BearerAuth
// @Param workerID path int true "Worker ID"
// @Success 200 {array} models.CompetencyRatingWithDetails
// @Failure 404 {object} map[string]string "Worker not found"
// @Router /workers/{workerID}/competencies [get]
func (h *CompetencyHandler) ListWorkerRatings(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r, "workerID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	ratings, err := h.competencyService.ListWorkerRatings(workerID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ratings)
}

// SubmitAssessmentRequest is the body for assessment submissions
type SubmitAssessmentRequest struct {
	WorkerID uint                        `json:"worker_id"`
	Outcomes []service.AssessmentOutcome `json:"outcomes"`
}

// SubmitAssessment applies a completed skills assessment
// @Summary Submit assessment outcomes
// @Description Apply every per-task outcome of a completed assessment for one worker. Outcomes are processed independently; per-task failures are reported in the response without aborting the rest.
// @Tags Competency
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitAssessmentRequest true "Assessment outcomes"
// @Success 200 {array} service.OutcomeResult
// @Failure 400 {object} map[string]string "Empty or duplicated outcomes"
// @Router /assessments [post]
func (h *CompetencyHandler) SubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var req SubmitAssessmentRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	results, err := h.assessmentService.SubmitOutcomes(req.WorkerID, req.Outcomes, actorFromRequest(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}

// ListConfirmations retrieves pending confirmations
// @Summary List pending confirmations
// @Description Get unresolved, unexpired confirmations. Workers see their own; coordinators and admins may pass worker_id to scope, or omit it for all.
// @Tags Confirmations
// @Produce json
// @Security BearerAuth
// @Param worker_id query int false "Filter by worker ID"
// @Success 200 {array} models.PendingConfirmation
// @Router /confirmations [get]
func (h *CompetencyHandler) ListConfirmations(w http.ResponseWriter, r *http.Request) {
	var workerFilter *uint

	if hasRole(r, RoleAdmin) || hasRole(r, RoleCoordinator) {
		if raw := r.URL.Query().Get("worker_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid worker_id")
				return
			}
			workerID := uint(id)
			workerFilter = &workerID
		}
	} else {
		// non-privileged callers only ever see their own queue
		workerID, ok := middleware.GetWorkerID(r)
		if !ok {
			respondWithError(w, http.StatusForbidden, "No worker record linked to this account")
			return
		}
		workerFilter = &workerID
	}

	confirmations, err := h.competencyService.ListPendingConfirmations(workerFilter)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, confirmations)
}

// GetConfirmation retrieves one confirmation with its lifecycle state
// @Summary Get confirmation
// @Tags Confirmations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Confirmation ID"
// @Success 200 {object} map[string]interface{} "Confirmation plus derived state"
// @Failure 404 {object} map[string]string "Unknown confirmation"
// @Router /confirmations/{id} [get]
func (h *CompetencyHandler) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	confirmation, state, err := h.competencyService.GetConfirmation(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if !h.mayAccessConfirmation(r, confirmation.WorkerID) {
		respondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"confirmation": confirmation,
		"state":        state,
	})
}

// ResolveConfirmationRequest is the body for confirmation decisions
type ResolveConfirmationRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ResolveConfirmation records the worker's decision on a pending confirmation
// @Summary Resolve confirmation
// @Description Confirm or reject a pending first-time rating. Confirming installs the proposed rating; rejecting leaves the pair unrated. Only the worker the confirmation belongs to (or an admin) may resolve it.
// @Tags Confirmations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Confirmation ID"
// @Param request body ResolveConfirmationRequest true "Decision"
// @Success 200 {object} models.CompetencyRating "Installed rating (confirm) or empty body (reject)"
// @Failure 404 {object} map[string]string "Unknown confirmation"
// @Failure 409 {object} map[string]string "Already resolved"
// @Failure 410 {object} map[string]string "Confirmation expired"
// @Router /confirmations/{id}/resolve [post]
func (h *CompetencyHandler) ResolveConfirmation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req ResolveConfirmationRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	confirmation, _, err := h.competencyService.GetConfirmation(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if !h.mayAccessConfirmation(r, confirmation.WorkerID) {
		respondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	rating, err := h.competencyService.ResolveConfirmation(id, req.Confirmed, actorFromRequest(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if rating == nil {
		respondWithJSON(w, http.StatusOK, map[string]bool{"confirmed": false})
		return
	}
	respondWithJSON(w, http.StatusOK, rating)
}

// mayAccessConfirmation allows admins and the worker the entry belongs to
func (h *CompetencyHandler) mayAccessConfirmation(r *http.Request, ownerID uint) bool {
	if hasRole(r, RoleAdmin) {
		return true
	}
	workerID, ok := middleware.GetWorkerID(r)
	return ok && workerID == ownerID
}
