package service

import (
	"errors"
	"testing"

	"caretrack/internal/audit"
)

func TestLinkWorkerSeedsFromBestCount(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Grace", "Adeyemi")
	task := env.fx.CreateTask(t, "Stoma care", 10)
	pkgA := env.fx.CreatePackage(t, "Package A")
	pkgB := env.fx.CreatePackage(t, "Package B")

	env.fx.LinkWorker(t, worker.ID, pkgA.ID)
	env.fx.LinkTask(t, task.ID, pkgA.ID)
	env.fx.LinkTask(t, task.ID, pkgB.ID)

	if _, err := env.progress.UpdateProgress(worker.ID, pkgA.ID, task.ID, 7, testActor()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	seeded, err := env.assignment.LinkWorker(worker.ID, pkgB.ID, testActor())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(seeded) != 1 {
		t.Fatalf("Expected one seeded record, got %d", len(seeded))
	}
	if seeded[0].CompletionCount != 7 || seeded[0].CompletionPercentage != 70 {
		t.Errorf("Expected inherited count 7 at 70%%, got %d at %d%%", seeded[0].CompletionCount, seeded[0].CompletionPercentage)
	}

	if env.recorder.count(audit.ActionLinkWorkerPackage) != 1 {
		t.Errorf("Expected link audit event, got %v", env.recorder.actions())
	}
	if env.recorder.count(audit.ActionInheritTaskProgress) != 1 {
		t.Errorf("Expected inherit audit event, got %v", env.recorder.actions())
	}
}

func TestLinkWorkerSeedsZeroWithoutHistory(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Hana", "Kimura")
	task := env.fx.CreateTask(t, "Oral care", 4)
	pkg := env.fx.CreatePackage(t, "Package A")
	env.fx.LinkTask(t, task.ID, pkg.ID)

	seeded, err := env.assignment.LinkWorker(worker.ID, pkg.ID, testActor())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(seeded) != 1 || seeded[0].CompletionCount != 0 {
		t.Fatalf("Expected one zero-count seed, got %+v", seeded)
	}
}

func TestLinkTaskSeedsForExistingWorkers(t *testing.T) {
	env := newTestEnv(t)

	worker1 := env.fx.CreateWorker(t, "Ines", "Costa")
	worker2 := env.fx.CreateWorker(t, "Jon", "Berg")
	task := env.fx.CreateTask(t, "Blood glucose monitoring", 6)
	pkgA := env.fx.CreatePackage(t, "Package A")
	pkgB := env.fx.CreatePackage(t, "Package B")

	env.fx.LinkWorker(t, worker1.ID, pkgA.ID)
	env.fx.LinkWorker(t, worker1.ID, pkgB.ID)
	env.fx.LinkWorker(t, worker2.ID, pkgB.ID)
	env.fx.LinkTask(t, task.ID, pkgA.ID)

	// worker1 brings history from package A, worker2 starts fresh
	if _, err := env.progress.UpdateProgress(worker1.ID, pkgA.ID, task.ID, 4, testActor()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	seeded, err := env.assignment.LinkTask(task.ID, pkgB.ID, testActor())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(seeded) != 2 {
		t.Fatalf("Expected two seeded records, got %d", len(seeded))
	}

	if got := env.fx.ProgressCount(t, worker1.ID, pkgB.ID, task.ID); got != 4 {
		t.Errorf("Expected worker1 seeded at 4, got %d", got)
	}
	if got := env.fx.ProgressCount(t, worker2.ID, pkgB.ID, task.ID); got != 0 {
		t.Errorf("Expected worker2 seeded at 0, got %d", got)
	}
}

func TestUnlinkRequiresActiveLink(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Kai", "Novak")
	task := env.fx.CreateTask(t, "Nutrition support", 5)
	pkg := env.fx.CreatePackage(t, "Package A")

	if err := env.assignment.UnlinkWorker(worker.ID, pkg.ID, testActor()); !errors.Is(err, ErrNotLinked) {
		t.Errorf("Expected ErrNotLinked, got %v", err)
	}
	if err := env.assignment.UnlinkTask(task.ID, pkg.ID, testActor()); !errors.Is(err, ErrNotLinked) {
		t.Errorf("Expected ErrNotLinked, got %v", err)
	}
}

func TestLinkWorkerUnknownEntities(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.fx.CreatePackage(t, "Package A")

	if _, err := env.assignment.LinkWorker(9999, pkg.ID, testActor()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown worker, got %v", err)
	}

	worker := env.fx.CreateWorker(t, "Lea", "Meier")
	if _, err := env.assignment.LinkWorker(worker.ID, 9999, testActor()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown package, got %v", err)
	}
}

// Full lifecycle: history earned in one package is inherited on link, and
// the next update converges every active package to the same count.
func TestInheritThenConvergeToTarget(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Noor", "Haddad")
	task := env.fx.CreateTask(t, "Catheter care", 10)
	pkgA := env.fx.CreatePackage(t, "Package A")
	pkgB := env.fx.CreatePackage(t, "Package B")

	env.fx.LinkWorker(t, worker.ID, pkgA.ID)
	env.fx.LinkTask(t, task.ID, pkgA.ID)
	env.fx.LinkTask(t, task.ID, pkgB.ID)

	if _, err := env.progress.UpdateProgress(worker.ID, pkgA.ID, task.ID, 7, testActor()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	seeded, err := env.assignment.LinkWorker(worker.ID, pkgB.ID, testActor())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(seeded) != 1 || seeded[0].CompletionCount != 7 || seeded[0].CompletionPercentage != 70 {
		t.Fatalf("Expected seed at 7/70%%, got %+v", seeded)
	}

	if _, err := env.progress.UpdateProgress(worker.ID, pkgB.ID, task.ID, 10, testActor()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	records, err := env.progress.ListWorkerProgress(worker.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected records in both packages, got %d", len(records))
	}
	for _, rec := range records {
		if rec.CompletionCount != 10 || rec.CompletionPercentage != 100 {
			t.Errorf("Expected 10 at 100%% in package %d, got %d at %d%%", rec.PackageID, rec.CompletionCount, rec.CompletionPercentage)
		}
	}
}

// Relinking a worker must never regress their count: the seed takes the
// maximum across active links, and a frozen record from the inactive spell
// participates again once the link is reactivated.
func TestRelinkDoesNotRegressProgress(t *testing.T) {
	env := newTestEnv(t)

	worker := env.fx.CreateWorker(t, "Mia", "Svensson")
	task := env.fx.CreateTask(t, "Dementia support", 10)
	pkgA := env.fx.CreatePackage(t, "Package A")
	pkgB := env.fx.CreatePackage(t, "Package B")

	env.fx.LinkWorker(t, worker.ID, pkgA.ID)
	env.fx.LinkWorker(t, worker.ID, pkgB.ID)
	env.fx.LinkTask(t, task.ID, pkgA.ID)
	env.fx.LinkTask(t, task.ID, pkgB.ID)

	if _, err := env.progress.UpdateProgress(worker.ID, pkgB.ID, task.ID, 7, testActor()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := env.assignment.UnlinkWorker(worker.ID, pkgB.ID, testActor()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// work continues in package A at a lower count; B stays frozen at 7
	if _, err := env.progress.UpdateProgress(worker.ID, pkgA.ID, task.ID, 3, testActor()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	seeded, err := env.assignment.LinkWorker(worker.ID, pkgB.ID, testActor())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(seeded) != 1 || seeded[0].CompletionCount != 7 {
		t.Fatalf("Expected relink seed at best count 7, got %+v", seeded)
	}

	// the pair converges again on the next update
	if _, err := env.progress.UpdateProgress(worker.ID, pkgB.ID, task.ID, 8, testActor()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := env.fx.ProgressCount(t, worker.ID, pkgA.ID, task.ID); got != 8 {
		t.Errorf("Expected package A converged to 8, got %d", got)
	}
}
