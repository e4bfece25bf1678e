package booking

import (
	"sort"
	"sync"
)

// lockTable serializes committing operations per logical key: one key per
// patient and one per (doctor, date). Advisory checks never take these
// locks; only the commit paths do, so two concurrent attempts for the same
// patient-day or doctor-slot cannot both pass the re-check.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*entryLock)}
}

// acquire locks every key and returns the release function. Keys are locked
// in sorted order so overlapping key sets cannot deadlock.
func (t *lockTable) acquire(keys ...string) func() {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			sorted = append(sorted, k)
		}
	}
	sort.Strings(sorted)

	held := make([]*entryLock, 0, len(sorted))
	for _, k := range sorted {
		t.mu.Lock()
		l, ok := t.locks[k]
		if !ok {
			l = &entryLock{}
			t.locks[k] = l
		}
		l.refs++
		t.mu.Unlock()

		l.mu.Lock()
		held = append(held, l)
	}

	names := sorted
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()

			t.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(t.locks, names[i])
			}
			t.mu.Unlock()
		}
	}
}

func patientKey(patientID string) string {
	return "patient:" + patientID
}

func doctorDayKey(doctorID string, date string) string {
	return "doctor:" + doctorID + ":" + date
}
