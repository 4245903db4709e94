package service

import (
	"errors"
	"testing"

	"caretrack/internal/audit"
	"caretrack/internal/models"
)

func TestFirstRatingQueuesConfirmation(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Nora", "Haddad")
	task := env.fx.CreateTask(t, "Tracheostomy care", 10)

	result, err := env.competency.SetRating(worker.ID, task.ID, models.LevelCompetent, models.SourceManual, testActor(), nil, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Pending || result.Confirmation == nil {
		t.Fatalf("Expected pending confirmation, got %+v", result)
	}
	if result.Confirmation.NewLevel != models.LevelCompetent {
		t.Errorf("Expected proposed level COMPETENT, got %s", result.Confirmation.NewLevel)
	}

	// no rating row until the worker confirms
	if _, err := env.competency.GetRating(worker.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected no rating before confirmation, got %v", err)
	}

	if env.recorder.count(audit.ActionCreateConfirmation) != 1 {
		t.Errorf("Expected confirmation audit event, got %v", env.recorder.actions())
	}
}

func TestSkipConfirmationWritesImmediately(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Omar", "Diallo")
	task := env.fx.CreateTask(t, "Epilepsy response", 5)

	notes := "observed during induction week"
	result, err := env.competency.SetRating(worker.ID, task.ID, models.LevelProficient, models.SourceManual, testActor(), &notes, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Pending || result.Rating == nil {
		t.Fatalf("Expected direct rating, got %+v", result)
	}
	if result.Rating.SetByAdminName == nil || *result.Rating.SetByAdminName != "Test Admin" {
		t.Errorf("Expected manual rating attributed to admin, got %+v", result.Rating)
	}

	rating, err := env.competency.GetRating(worker.ID, task.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rating.Level != models.LevelProficient || rating.Source != models.SourceManual {
		t.Errorf("Unexpected stored rating: %+v", rating)
	}
	if rating.Notes == nil || *rating.Notes != notes {
		t.Errorf("Expected notes round-trip, got %v", rating.Notes)
	}
}

func TestReRatingBypassesConfirmation(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Priya", "Shah")
	task := env.fx.CreateTask(t, "Mobility assessment", 8)

	if _, err := env.competency.SetRating(worker.ID, task.ID, models.LevelCompetent, models.SourceManual, testActor(), nil, true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// the pair is already rated, so the queue is not consulted again
	result, err := env.competency.SetRating(worker.ID, task.ID, models.LevelExpert, models.SourceManual, testActor(), nil, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Pending {
		t.Fatal("Expected direct update for already-rated pair")
	}

	rating, err := env.competency.GetRating(worker.ID, task.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rating.Level != models.LevelExpert {
		t.Errorf("Expected EXPERT, got %s", rating.Level)
	}
}

func TestRatingStaysSingleton(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Quinn", "Byrne")
	task := env.fx.CreateTask(t, "Falls prevention", 5)

	for _, level := range []models.CompetencyLevel{models.LevelNotCompetent, models.LevelCompetent, models.LevelExpert} {
		if _, err := env.competency.SetRating(worker.ID, task.ID, level, models.SourceManual, testActor(), nil, true); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	var count int
	if err := env.tc.DB.QueryRow(`SELECT COUNT(*) FROM competency_ratings WHERE worker_id = $1 AND task_id = $2`, worker.ID, task.ID).Scan(&count); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly one rating row, got %d", count)
	}
}

func TestResolveConfirmationConfirm(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Rosa", "Mendes")
	task := env.fx.CreateTask(t, "Insulin administration", 12)

	result, err := env.competency.SetRating(worker.ID, task.ID, models.LevelCompetent, models.SourceAssessment, testActor(), nil, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rating, err := env.competency.ResolveConfirmation(result.Confirmation.ID, true, testActor())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rating == nil || rating.Level != models.LevelCompetent || rating.Source != models.SourceAssessment {
		t.Fatalf("Expected installed assessment rating, got %+v", rating)
	}

	// terminal: a second decision is rejected
	if _, err := env.competency.ResolveConfirmation(result.Confirmation.ID, false, testActor()); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("Expected ErrAlreadyResolved, got %v", err)
	}

	if env.recorder.count(audit.ActionResolveConfirmation) != 1 {
		t.Errorf("Expected one resolve audit event, got %v", env.recorder.actions())
	}
}

func TestResolveConfirmationReject(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Sam", "Walker")
	task := env.fx.CreateTask(t, "PEG care", 6)

	result, err := env.competency.SetRating(worker.ID, task.ID, models.LevelCompetent, models.SourceManual, testActor(), nil, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rating, err := env.competency.ResolveConfirmation(result.Confirmation.ID, false, testActor())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rating != nil {
		t.Errorf("Expected no rating on rejection, got %+v", rating)
	}

	if _, err := env.competency.GetRating(worker.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected pair to stay unrated, got %v", err)
	}

	_, state, err := env.competency.GetConfirmation(result.Confirmation.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if state != models.ConfirmationRejected {
		t.Errorf("Expected rejected state, got %s", state)
	}
}

func TestExpiredConfirmationCannotBeResolved(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Tessa", "Brandt")
	task := env.fx.CreateTask(t, "Suctioning", 10)

	result, err := env.competency.SetRating(worker.ID, task.ID, models.LevelCompetent, models.SourceManual, testActor(), nil, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	env.expireConfirmation(t, result.Confirmation.ID)

	if _, err := env.competency.ResolveConfirmation(result.Confirmation.ID, true, testActor()); !errors.Is(err, ErrExpired) {
		t.Errorf("Expected ErrExpired, got %v", err)
	}

	// the lapsed entry no longer shows up as pending
	pending, err := env.competency.ListPendingConfirmations(&worker.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending confirmations, got %d", len(pending))
	}

	// the pair stays unrated either way
	if _, err := env.competency.GetRating(worker.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected unrated pair, got %v", err)
	}
}

func TestNewRequestSupersedesOutstandingConfirmation(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Uli", "Schmid")
	task := env.fx.CreateTask(t, "Pressure area care", 8)

	first, err := env.competency.SetRating(worker.ID, task.ID, models.LevelCompetent, models.SourceManual, testActor(), nil, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := env.competency.SetRating(worker.ID, task.ID, models.LevelProficient, models.SourceManual, testActor(), nil, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// the earlier request is dead
	if _, err := env.competency.ResolveConfirmation(first.Confirmation.ID, true, testActor()); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("Expected superseded confirmation unresolvable, got %v", err)
	}

	// only the newest one is pending
	pending, err := env.competency.ListPendingConfirmations(&worker.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.Confirmation.ID {
		t.Fatalf("Expected exactly the new confirmation pending, got %+v", pending)
	}

	rating, err := env.competency.ResolveConfirmation(second.Confirmation.ID, true, testActor())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rating.Level != models.LevelProficient {
		t.Errorf("Expected PROFICIENT from superseding request, got %s", rating.Level)
	}

	if env.recorder.count(audit.ActionSupersedeConfirmation) != 1 {
		t.Errorf("Expected supersede audit event, got %v", env.recorder.actions())
	}
}

func TestNotAssessedCascadingReset(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Vera", "Kovac")
	task := env.fx.CreateTask(t, "Breathing support", 10)
	pkgA := env.fx.CreatePackage(t, "Package A")
	pkgB := env.fx.CreatePackage(t, "Package B")

	env.fx.LinkWorker(t, worker.ID, pkgA.ID)
	env.fx.LinkWorker(t, worker.ID, pkgB.ID)
	env.fx.LinkTask(t, task.ID, pkgA.ID)
	env.fx.LinkTask(t, task.ID, pkgB.ID)

	if _, err := env.progress.UpdateProgress(worker.ID, pkgA.ID, task.ID, 9, testActor()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := env.competency.SetRating(worker.ID, task.ID, models.LevelExpert, models.SourceManual, testActor(), nil, true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// freeze package B so the reset has to reach records under inactive links
	if err := env.assignment.UnlinkWorker(worker.ID, pkgB.ID, testActor()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	result, err := env.competency.SetRating(worker.ID, task.ID, models.LevelNotAssessed, models.SourceManual, testActor(), nil, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Reset {
		t.Fatalf("Expected reset result, got %+v", result)
	}

	if _, err := env.competency.GetRating(worker.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected rating removed, got %v", err)
	}
	if got := env.fx.ProgressCount(t, worker.ID, pkgA.ID, task.ID); got != 0 {
		t.Errorf("Expected package A zeroed, got %d", got)
	}
	if got := env.fx.ProgressCount(t, worker.ID, pkgB.ID, task.ID); got != 0 {
		t.Errorf("Expected frozen package B zeroed too, got %d", got)
	}

	if env.recorder.count(audit.ActionResetCompetencyProgress) != 1 {
		t.Errorf("Expected cascade audit event, got %v", env.recorder.actions())
	}
}

func TestNotAssessedRejectsOutstandingConfirmations(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Wes", "Nilsen")
	task := env.fx.CreateTask(t, "Seizure monitoring", 4)

	queued, err := env.competency.SetRating(worker.ID, task.ID, models.LevelCompetent, models.SourceManual, testActor(), nil, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := env.competency.SetRating(worker.ID, task.ID, models.LevelNotAssessed, models.SourceManual, testActor(), nil, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := env.competency.ResolveConfirmation(queued.Confirmation.ID, true, testActor()); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("Expected queued confirmation killed by reset, got %v", err)
	}
}

func TestSetRatingValidation(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Xena", "Aliyeva")
	task := env.fx.CreateTask(t, "First aid", 3)

	if _, err := env.competency.SetRating(worker.ID, task.ID, "GURU", models.SourceManual, testActor(), nil, true); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown level, got %v", err)
	}
	if _, err := env.competency.SetRating(worker.ID, task.ID, models.LevelCompetent, "INTUITION", testActor(), nil, true); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown source, got %v", err)
	}
	if _, err := env.competency.SetRating(9999, task.ID, models.LevelCompetent, models.SourceManual, testActor(), nil, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown worker, got %v", err)
	}
	if _, err := env.competency.SetRating(worker.ID, 9999, models.LevelCompetent, models.SourceManual, testActor(), nil, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown task, got %v", err)
	}
}

func TestResolveUnknownConfirmation(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.competency.ResolveConfirmation("5f0c9e9e-0000-4000-8000-000000000000", true, testActor()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListPendingConfirmationsPopulatesNames(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Yara", "Fofana")
	task := env.fx.CreateTask(t, "Palliative care", 6)

	if _, err := env.competency.SetRating(worker.ID, task.ID, models.LevelCompetent, models.SourceManual, testActor(), nil, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	pending, err := env.competency.ListPendingConfirmations(&worker.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected one pending confirmation, got %d", len(pending))
	}
	if pending[0].WorkerName != "Yara Fofana" || pending[0].TaskName != "Palliative care" {
		t.Errorf("Expected populated names, got %+v", pending[0])
	}
}
