// Package track derives which records of a snapshot carry an unconfirmed
// local mutation. Pure functions, no side effects; the sync engine invokes
// them after every local write to drive its status transitions.
package track

import "github.com/cliniclink/recordsync/models"

// IsPending reports whether the record carries an unconfirmed local mutation.
func IsPending[T any](rec models.Record[T]) bool {
	return rec.Marker != models.Clean
}

// CountPending returns the number of records in the snapshot with a pending
// marker. A nil snapshot has no pending records.
func CountPending[T any](snap *models.Snapshot[T]) int {
	if snap == nil {
		return 0
	}

	count := 0
	for _, rec := range snap.All() {
		if IsPending(rec) {
			count++
		}
	}
	return count
}

// PendingRecords returns the pending records of the snapshot in insertion
// order.
func PendingRecords[T any](snap *models.Snapshot[T]) []models.Record[T] {
	if snap == nil {
		return nil
	}

	var pending []models.Record[T]
	for _, rec := range snap.All() {
		if IsPending(rec) {
			pending = append(pending, rec)
		}
	}
	return pending
}
