package handlers

import (
	"net/http"
	"strings"

	"caretrack/internal/models"
	"caretrack/internal/repository"
)

// MasterDataHandler handles the worker, task and package registries
type MasterDataHandler struct {
	workerRepo  *repository.WorkerRepository
	taskRepo    *repository.TaskRepository
	packageRepo *repository.PackageRepository
}

// NewMasterDataHandler creates a new master data handler
func NewMasterDataHandler(
	workerRepo *repository.WorkerRepository,
	taskRepo *repository.TaskRepository,
	packageRepo *repository.PackageRepository,
) *MasterDataHandler {
	return &MasterDataHandler{
		workerRepo:  workerRepo,
		taskRepo:    taskRepo,
		packageRepo: packageRepo,
	}
}

// CreateWorkerRequest is the body for worker registration
type CreateWorkerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CreateWorker registers a care worker
// @Summary Create worker
// @Tags MasterData
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateWorkerRequest true "Worker names"
// @Success 201 {object} models.Worker
// @Failure 400 {object} map[string]string "Missing name"
// @Router /workers [post]
func (h *MasterDataHandler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		respondWithError(w, http.StatusBadRequest, "First and last name are required")
		return
	}

	worker := &models.Worker{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		IsActive:  true,
	}
	if err := h.workerRepo.Create(worker); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create worker")
		return
	}

	respondWithJSON(w, http.StatusCreated, worker)
}

// ListWorkers lists all workers
// @Summary List workers
// @Tags MasterData
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Worker
// @Router /workers [get]
func (h *MasterDataHandler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.workerRepo.List()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list workers")
		return
	}
	respondWithJSON(w, http.StatusOK, workers)
}

// GetWorker retrieves one worker
// @Summary Get worker
// @Tags MasterData
// @Produce json
// @Security BearerAuth
// @Param workerID path int true "Worker ID"
// @Success 200 {object} models.Worker
// @Failure 404 {object} map[string]string "Unknown worker"
// @Router /workers/{workerID} [get]
func (h *MasterDataHandler) GetWorker(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r, "workerID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}
	worker, err := h.workerRepo.GetByID(workerID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load worker")
		return
	}
	if worker == nil {
		respondWithError(w, http.StatusNotFound, "Worker not found")
		return
	}
	respondWithJSON(w, http.StatusOK, worker)
}

// SetWorkerActiveRequest toggles a worker's active flag
type SetWorkerActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetWorkerActive activates or deactivates a worker
// @Summary Set worker active flag
// @Tags MasterData
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workerID path int true "Worker ID"
// @Param request body SetWorkerActiveRequest true "Active flag"
// @Success 204 "Updated"
// @Router /workers/{workerID}/active [patch]
func (h *MasterDataHandler) SetWorkerActive(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r, "workerID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}
	var req SetWorkerActiveRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if err := h.workerRepo.SetActive(workerID, req.IsActive); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update worker")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateTaskRequest is the body for task registration
type CreateTaskRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	TargetCount int     `json:"target_count"`
}

// CreateTask registers a care task
// @Summary Create task
// @Tags MasterData
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task definition"
// @Success 201 {object} models.CareTask
// @Failure 400 {object} map[string]string "Missing name or non-positive target"
// @Router /tasks [post]
func (h *MasterDataHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondWithError(w, http.StatusBadRequest, "Task name is required")
		return
	}
	if req.TargetCount <= 0 {
		respondWithError(w, http.StatusBadRequest, "Target count must be positive")
		return
	}

	task := &models.CareTask{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		TargetCount: req.TargetCount,
		IsActive:    true,
	}
	if err := h.taskRepo.Create(task); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	respondWithJSON(w, http.StatusCreated, task)
}

// ListTasks lists all tasks
// @Summary List tasks
// @Tags MasterData
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.CareTask
// @Router /tasks [get]
func (h *MasterDataHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskRepo.List()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list tasks")
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

// CreatePackageRequest is the body for package registration
type CreatePackageRequest struct {
	Name string `json:"name"`
}

// CreatePackage registers a care package
// @Summary Create care package
// @Tags MasterData
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePackageRequest true "Package name"
// @Success 201 {object} models.CarePackage
// @Failure 400 {object} map[string]string "Missing name"
// @Router /packages [post]
func (h *MasterDataHandler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var req CreatePackageRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondWithError(w, http.StatusBadRequest, "Package name is required")
		return
	}

	pkg := &models.CarePackage{
		Name:     strings.TrimSpace(req.Name),
		IsActive: true,
	}
	if err := h.packageRepo.Create(pkg); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create package")
		return
	}

	respondWithJSON(w, http.StatusCreated, pkg)
}

// ListPackages lists all care packages
// @Summary List care packages
// @Tags MasterData
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.CarePackage
// @Router /packages [get]
func (h *MasterDataHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.packageRepo.List()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list packages")
		return
	}
	respondWithJSON(w, http.StatusOK, packages)
}
