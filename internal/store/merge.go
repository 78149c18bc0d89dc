package store

import (
	"math"

	"github.com/Tiliavir/fichajes/internal/model"
)

// MergeResult counts what happened to each remote key during a merge.
type MergeResult struct {
	Adopted   int // not dirty; remote value taken
	Confirmed int // dirty and echoed back; flag cleared
	Kept      int // dirty and contradicted; local value kept
	Stale     int // edited after the snapshot was requested; local value kept
	Expired   int // dirty mark gave up; remote value taken
	Swept     int // dirty marks dropped by age with no remote value
}

// Changed reports whether the merge altered any local entry.
func (r MergeResult) Changed() bool {
	return r.Adopted > 0 || r.Expired > 0
}

// ApplyRemoteSnapshot merges remote into local and returns the new map;
// local is not modified. Keys that are not dirty take the remote value.
// Dirty keys keep their local value until a snapshot echoes it back, at
// which point the dirty flag is cleared.
func ApplyRemoteSnapshot(local, remote map[model.Key]model.DayEntry, dirty *DirtySet) map[model.Key]model.DayEntry {
	merged, _ := applySnapshot(local, remote, dirty, math.MaxUint64)
	return merged
}

func applySnapshot(local, remote map[model.Key]model.DayEntry, dirty *DirtySet, fetchSeq uint64) (map[model.Key]model.DayEntry, MergeResult) {
	var res MergeResult
	merged := make(map[model.Key]model.DayEntry, len(local)+len(remote))
	for k, v := range local {
		merged[k] = v
	}
	for k, rv := range remote {
		switch dirty.check(k, rv, fetchSeq) {
		case notDirty:
			if lv, ok := local[k]; !ok || !lv.Equal(rv) {
				res.Adopted++
			}
			merged[k] = rv
		case confirmed:
			res.Confirmed++
			merged[k] = rv
		case keepLocal:
			res.Kept++
		case stale:
			res.Stale++
		case expired:
			res.Expired++
			merged[k] = rv
		}
	}
	res.Swept = dirty.sweep()
	return merged, res
}
