package service

import (
	"sync"
	"testing"
	"time"

	"caretrack/internal/audit"
	"caretrack/internal/repository"
	"caretrack/internal/securenotes"
	"caretrack/internal/testutil"
)

// memoryRecorder captures audit events for assertions
type memoryRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *memoryRecorder) Record(event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *memoryRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, len(r.events))
	for i, e := range r.events {
		actions[i] = e.Action
	}
	return actions
}

func (r *memoryRecorder) count(action string) int {
	n := 0
	for _, a := range r.actions() {
		if a == action {
			n++
		}
	}
	return n
}

// testEnv wires the full service graph against a containerized database
type testEnv struct {
	tc         *testutil.TestContainers
	fx         *testutil.Fixtures
	recorder   *memoryRecorder
	progress   *ProgressService
	assignment *AssignmentService
	competency *CompetencyService
	assessment *AssessmentService

	confirmationRepo *repository.ConfirmationRepository
	competencyRepo   *repository.CompetencyRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tc := testutil.SetupPostgres(t)
	t.Cleanup(func() { tc.Cleanup(t) })

	workerRepo := repository.NewWorkerRepository(tc.DB)
	taskRepo := repository.NewTaskRepository(tc.DB)
	packageRepo := repository.NewPackageRepository(tc.DB)
	linkRepo := repository.NewLinkRepository(tc.DB)
	progressRepo := repository.NewProgressRepository(tc.DB)
	competencyRepo := repository.NewCompetencyRepository(tc.DB)
	confirmationRepo := repository.NewConfirmationRepository(tc.DB)

	notes, err := securenotes.NewService(nil, "")
	if err != nil {
		t.Fatalf("Failed to create notes service: %v", err)
	}

	recorder := &memoryRecorder{}
	inheritance := NewInheritanceService(progressRepo, linkRepo)
	competency := NewCompetencyService(tc.DB, competencyRepo, confirmationRepo, progressRepo, workerRepo, taskRepo, notes, recorder, 7*24*time.Hour)

	return &testEnv{
		tc:               tc,
		fx:               testutil.NewFixtures(tc.DB),
		recorder:         recorder,
		progress:         NewProgressService(tc.DB, progressRepo, linkRepo, workerRepo, taskRepo, packageRepo, recorder),
		assignment:       NewAssignmentService(tc.DB, linkRepo, workerRepo, taskRepo, packageRepo, inheritance, recorder),
		competency:       competency,
		assessment:       NewAssessmentService(competency),
		confirmationRepo: confirmationRepo,
		competencyRepo:   competencyRepo,
	}
}

func testActor() audit.Actor {
	id := uint(99)
	return audit.Actor{
		ID:        &id,
		Name:      "Test Admin",
		IPAddress: "127.0.0.1",
		UserAgent: "go-test",
	}
}

// expireConfirmation pushes a confirmation's expiry into the past
func (e *testEnv) expireConfirmation(t *testing.T, id string) {
	t.Helper()
	_, err := e.tc.DB.Exec(`UPDATE pending_confirmations SET expires_at = NOW() - INTERVAL '1 hour' WHERE id = $1`, id)
	if err != nil {
		t.Fatalf("Failed to expire confirmation: %v", err)
	}
}
