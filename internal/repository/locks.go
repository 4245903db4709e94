package repository

import "database/sql"

// LockWorkerTask takes a transaction-scoped advisory lock on a
// (worker, task) pair. It serializes the check-then-act sequences in the
// rating gatekeeper and the progress fan-out against concurrent writers for
// the same pair; the lock releases automatically at commit or rollback.
func LockWorkerTask(tx *sql.Tx, workerID, taskID uint) error {
	_, err := tx.Exec(`SELECT pg_advisory_xact_lock($1, $2)`, int32(workerID), int32(taskID))
	return err
}
