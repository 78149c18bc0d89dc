package store

import (
	"sort"
	"time"

	"github.com/Tiliavir/fichajes/internal/model"
)

// Policy bounds how long a dirty mark may hold off remote values.
type Policy struct {
	// MaxMismatches is the number of snapshots that may contradict a pending
	// value before the mark is dropped. Zero disables the limit.
	MaxMismatches int
	// TTL is how long a key may stay dirty. Zero disables the limit.
	TTL time.Duration
}

// DefaultPolicy is used when no policy is configured.
var DefaultPolicy = Policy{MaxMismatches: 5, TTL: 2 * time.Minute}

type mark struct {
	value      model.DayEntry
	seq        uint64
	since      time.Time
	mismatches int
	failed     bool
}

// DirtySet tracks keys with local edits that the remote store has not yet
// echoed back. It is not safe for concurrent use; Store serialises access.
type DirtySet struct {
	policy Policy
	now    func() time.Time
	marks  map[model.Key]*mark
}

// NewDirtySet returns an empty set enforcing p.
func NewDirtySet(p Policy) *DirtySet {
	return &DirtySet{policy: p, now: time.Now, marks: make(map[model.Key]*mark)}
}

// Mark records value as the pending local value for key, written at seq.
func (d *DirtySet) Mark(key model.Key, value model.DayEntry, seq uint64) {
	d.marks[key] = &mark{value: value, seq: seq, since: d.now()}
}

// Failed notes that the push for the write at seq did not reach the remote
// store. The mark stays under the normal mismatch and TTL limits. A later
// write to the same key resets the flag.
func (d *DirtySet) Failed(key model.Key, seq uint64) {
	if m, ok := d.marks[key]; ok && m.seq == seq {
		m.failed = true
	}
}

// Pushed clears the failed flag once the write at seq reached the remote store.
func (d *DirtySet) Pushed(key model.Key, seq uint64) {
	if m, ok := d.marks[key]; ok && m.seq == seq {
		m.failed = false
	}
}

// Has reports whether key is dirty.
func (d *DirtySet) Has(key model.Key) bool {
	_, ok := d.marks[key]
	return ok
}

// Len returns the number of dirty keys.
func (d *DirtySet) Len() int {
	return len(d.marks)
}

// PendingWrite describes a dirty key.
type PendingWrite struct {
	Key        model.Key
	Since      time.Time
	Mismatches int
	Failed     bool
}

// Pending lists dirty keys in key order.
func (d *DirtySet) Pending() []PendingWrite {
	out := make([]PendingWrite, 0, len(d.marks))
	for k, m := range d.marks {
		out = append(out, PendingWrite{Key: k, Since: m.since, Mismatches: m.mismatches, Failed: m.failed})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// verdict is the outcome of checking a remote value against a dirty mark.
type verdict int

const (
	notDirty verdict = iota
	confirmed
	keepLocal
	stale
	expired
)

// check compares a remote value for key against the pending local value.
// fetchSeq is the last local write sequence issued before the snapshot was
// requested; marks written after it cannot be reflected in the snapshot.
func (d *DirtySet) check(key model.Key, remote model.DayEntry, fetchSeq uint64) verdict {
	m, ok := d.marks[key]
	if !ok {
		return notDirty
	}
	if m.value.Equal(remote) {
		delete(d.marks, key)
		return confirmed
	}
	if m.seq > fetchSeq {
		return stale
	}
	m.mismatches++
	if d.expired(m) {
		delete(d.marks, key)
		return expired
	}
	return keepLocal
}

func (d *DirtySet) expired(m *mark) bool {
	if d.policy.MaxMismatches > 0 && m.mismatches >= d.policy.MaxMismatches {
		return true
	}
	return d.policy.TTL > 0 && d.now().Sub(m.since) >= d.policy.TTL
}

// sweep drops marks older than the TTL whose keys the remote store never
// returned, keeping the local value.
func (d *DirtySet) sweep() int {
	if d.policy.TTL <= 0 {
		return 0
	}
	n := 0
	for k, m := range d.marks {
		if d.now().Sub(m.since) >= d.policy.TTL {
			delete(d.marks, k)
			n++
		}
	}
	return n
}

// savedMark is the cached form of a mark. Sequence numbers are per process
// and are not kept.
type savedMark struct {
	Value      model.DayEntry `json:"val"`
	Since      time.Time      `json:"since"`
	Mismatches int            `json:"mismatches,omitempty"`
	Failed     bool           `json:"failed,omitempty"`
}

func (d *DirtySet) save() map[model.Key]savedMark {
	out := make(map[model.Key]savedMark, len(d.marks))
	for k, m := range d.marks {
		out[k] = savedMark{Value: m.value, Since: m.since, Mismatches: m.mismatches, Failed: m.failed}
	}
	return out
}

// restore adds cached marks that no write in this process has superseded.
func (d *DirtySet) restore(saved map[model.Key]savedMark) {
	for k, sm := range saved {
		if _, ok := d.marks[k]; ok {
			continue
		}
		d.marks[k] = &mark{value: sm.Value, since: sm.Since, mismatches: sm.Mismatches, failed: sm.Failed}
	}
}
