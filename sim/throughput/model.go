// Package throughput implements the fair throughput-sharing model used to
// split one shared resource (disk bandwidth, or any similarly-modeled
// resource) fairly across concurrently active activities.
package throughput

import (
	"container/heap"
	"fmt"
)

// ThroughputFn returns the aggregate work rate of the resource when n
// activities are concurrently active. Called with n >= 1.
type ThroughputFn func(n int) float64

// FactorFn returns a per-activity multiplier applied to its remaining
// work. Most callers use ConstantFactor(1).
type FactorFn func(a *Activity) float64

// ConstantFactor returns a FactorFn that always yields v.
func ConstantFactor(v float64) FactorFn {
	return func(*Activity) float64 { return v }
}

// ConstantThroughput returns a ThroughputFn that ignores concurrency and
// always yields v (the common case — a resource with a fixed bandwidth).
func ConstantThroughput(v float64) ThroughputFn {
	return func(int) float64 { return v }
}

// Activity is one unit of work competing for the shared resource.
type Activity struct {
	RequestID   int64
	RequesterID string
	WorkUnits   float64

	factor     float64
	admissionW float64
	credit     float64 // WorkUnits * factor; this activity's key is admissionW + credit
	insertSeq  uint64
}

// Key returns the admission-time work-time key used to order completions.
// Exposed for tests that want to assert on the algorithm directly.
func (a *Activity) Key() float64 { return a.admissionW + a.credit }

// Model fairly schedules a set of concurrently active Activities against
// one resource described by a ThroughputFn and a FactorFn. It maintains a
// virtual work-time counter W that advances at rate T(N)/N (the
// per-activity fair share) for as long as N activities are active; each
// activity's absolute completion time is recovered by inverting that
// piecewise-linear function. Concurrency changes alter W's forward slope
// but never the ordering of stored (admissionW + credit) keys.
type Model struct {
	throughputFn ThroughputFn
	factorFn     FactorFn

	active    activityHeap
	w         float64 // virtual work-time counter, valid as of lastTime
	lastTime  int64
	nextSeq   uint64
	nextReqID int64
}

// NewModel creates a Model with the given throughput and factor functions.
// Both must be non-nil.
func NewModel(throughputFn ThroughputFn, factorFn FactorFn) *Model {
	if throughputFn == nil || factorFn == nil {
		panic("throughput: NewModel requires non-nil throughputFn and factorFn")
	}
	return &Model{throughputFn: throughputFn, factorFn: factorFn}
}

// advanceTo moves the virtual work-time counter forward to now, using the
// concurrency level that was in effect since the last advance. Must be
// called before any mutation that changes the active count, and before
// computing Peek, so that the stored key (admissionW + credit) always
// means "work-time remaining is zero at this value" under the rate in
// effect up to now.
func (m *Model) advanceTo(now int64) {
	n := m.active.Len()
	if n > 0 {
		elapsed := now - m.lastTime
		if elapsed > 0 {
			rate := m.throughputFn(n) / float64(n)
			m.w += rate * float64(elapsed)
		}
	}
	m.lastTime = now
}

// Insert admits a new activity with the given work (must be positive;
// the caller guarantees this, per the model's precondition). now is the
// current virtual time (from a Context.Now() or equivalent clock read).
// Returns the admitted Activity, stamped with its admission-time residual
// work and a fresh RequestID.
func (m *Model) Insert(requesterID string, workUnits float64, now int64) *Activity {
	if workUnits <= 0 {
		panic(fmt.Sprintf("throughput: Insert requires workUnits > 0, got %g", workUnits))
	}
	m.advanceTo(now)

	m.nextReqID++
	m.nextSeq++
	a := &Activity{
		RequestID:   m.nextReqID,
		RequesterID: requesterID,
		WorkUnits:   workUnits,
		insertSeq:   m.nextSeq,
	}
	a.factor = m.factorFn(a)
	a.credit = workUnits * a.factor
	a.admissionW = m.w
	heap.Push(&m.active, a)
	return a
}

// Peek returns the time and activity of the earliest projected completion
// under the current mix, without mutating any state. ok is false when no
// activities are active. Peek is only accurate as of the last Insert/Pop
// (i.e. the last time the model observed the clock) — callers re-derive
// it immediately after every mutation, matching the disk model's
// cancel-and-reschedule discipline.
func (m *Model) Peek() (t int64, a *Activity, ok bool) {
	if m.active.Len() == 0 {
		return 0, nil, false
	}
	n := m.active.Len()
	rate := m.throughputFn(n) / float64(n)
	top := m.active[0]
	key := top.admissionW + top.credit
	remaining := key - m.w
	if remaining <= 0 {
		return m.lastTime, top, true
	}
	if rate <= 0 {
		// Resource makes no progress; completion is never reached.
		return 0, nil, false
	}
	deltaT := remaining / rate
	return m.lastTime + int64(deltaT), top, true
}

// Pop removes and returns the earliest-completing activity, advancing the
// model's internal work-time accounting to that completion time. ok is
// false when no activities are active.
func (m *Model) Pop() (t int64, a *Activity, ok bool) {
	t, a, ok = m.Peek()
	if !ok {
		return 0, nil, false
	}
	m.advanceTo(t)
	heap.Pop(&m.active)
	return t, a, true
}

// Len returns the number of currently active activities.
func (m *Model) Len() int { return m.active.Len() }

// activityHeap orders Activities by (key, insertion sequence) ascending.
type activityHeap []*Activity

func (h activityHeap) Len() int { return len(h) }

func (h activityHeap) Less(i, j int) bool {
	ki, kj := h[i].admissionW+h[i].credit, h[j].admissionW+h[j].credit
	if ki != kj {
		return ki < kj
	}
	return h[i].insertSeq < h[j].insertSeq
}

func (h activityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *activityHeap) Push(x any) { *h = append(*h, x.(*Activity)) }

func (h *activityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
