package faas

import (
	"fmt"
	"sort"
)

// FuncStats accumulates the per-function observations a run needs to
// report: queueing delay, cold-start counts, and resources wasted to
// over-provisioned deploys. Samples are rolled up into running sums
// rather than retained individually.
type FuncStats struct {
	Invocations  int64
	ColdStarts   int64
	QueueingTime int64 // sum of (admission_time - ArrivalTime), i.e. time spent waiting for a decision

	// ActivationLatency sums end-to-end activation latency: queue wait
	// plus, for Cold admissions, the deploy/remaining-deploy delay.
	// Recorded for every admission, warm or cold.
	ActivationLatency int64

	WastedCoreTicks int64 // idle-container core-time that served nothing
	WastedMemTicks  int64
}

// MeanQueueingTime returns the average queueing delay, or 0 if no
// invocations have been recorded yet.
func (s *FuncStats) MeanQueueingTime() float64 {
	if s.Invocations == 0 {
		return 0
	}
	return float64(s.QueueingTime) / float64(s.Invocations)
}

// MeanActivationLatency returns the average end-to-end activation
// latency, or 0 if no invocations have been recorded yet.
func (s *FuncStats) MeanActivationLatency() float64 {
	if s.Invocations == 0 {
		return 0
	}
	return float64(s.ActivationLatency) / float64(s.Invocations)
}

// ColdStartRate returns the fraction of invocations that incurred a cold
// start.
func (s *FuncStats) ColdStartRate() float64 {
	if s.Invocations == 0 {
		return 0
	}
	return float64(s.ColdStarts) / float64(s.Invocations)
}

// Stats aggregates FuncStats across every function observed during a run,
// keyed by function id. One Stats instance is shared by every Host so
// cross-host totals are available without a separate merge step.
type Stats struct {
	perFunc map[int64]*FuncStats
}

// NewStats creates an empty Stats aggregator.
func NewStats() *Stats {
	return &Stats{perFunc: make(map[int64]*FuncStats)}
}

func (s *Stats) entry(funcID int64) *FuncStats {
	fs, ok := s.perFunc[funcID]
	if !ok {
		fs = &FuncStats{}
		s.perFunc[funcID] = fs
	}
	return fs
}

// RecordAdmission accounts one admission: its queueing delay, its
// activation latency, and whether it was a cold start. Call this once per
// invocation, at the moment the admission decision is made (now), not
// when it eventually starts running.
// coldDelay is the deploy/remaining-deploy wait for a Cold decision, or 0
// for Warm -- the caller reads it off the container chosen for this
// admission before the deploy completes.
func (s *Stats) RecordAdmission(funcID int64, decision Decision, arrivalTime, now, coldDelay int64) {
	fs := s.entry(funcID)
	fs.Invocations++
	queueingTime := now - arrivalTime
	fs.QueueingTime += queueingTime
	fs.ActivationLatency += queueingTime + coldDelay
	if decision == Cold {
		fs.ColdStarts++
	}
}

// RecordWaste adds coreTicks/memTicks of container-idle resource-time that
// served no invocation, e.g. the time a container sat Idle before a warm
// reuse, or until the end of the run.
func (s *Stats) RecordWaste(funcID int64, coreTicks, memTicks int64) {
	fs := s.entry(funcID)
	fs.WastedCoreTicks += coreTicks
	fs.WastedMemTicks += memTicks
}

// FuncStats returns the stats recorded for funcID, or a zero-value
// FuncStats if none were ever recorded.
func (s *Stats) FuncStats(funcID int64) FuncStats {
	if fs, ok := s.perFunc[funcID]; ok {
		return *fs
	}
	return FuncStats{}
}

// TotalInvocations sums Invocations across every function.
func (s *Stats) TotalInvocations() int64 {
	var total int64
	for _, fs := range s.perFunc {
		total += fs.Invocations
	}
	return total
}

// TotalColdStarts sums ColdStarts across every function.
func (s *Stats) TotalColdStarts() int64 {
	var total int64
	for _, fs := range s.perFunc {
		total += fs.ColdStarts
	}
	return total
}

// Print displays aggregated stats at the end of a run: run-wide totals
// followed by per-function invocation counts, cold-start rate,
// queueing/activation latency, and wasted resource-time.
func (s *Stats) Print() {
	fmt.Println("=== FaaS Simulation Stats ===")
	fmt.Printf("Total Invocations    : %d\n", s.TotalInvocations())
	fmt.Printf("Total Cold Starts    : %d\n", s.TotalColdStarts())

	ids := make([]int64, 0, len(s.perFunc))
	for id := range s.perFunc {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		fs := s.perFunc[id]
		fmt.Printf("--- function %d ---\n", id)
		fmt.Printf("  invocations           : %d\n", fs.Invocations)
		fmt.Printf("  cold start rate       : %.2f\n", fs.ColdStartRate())
		fmt.Printf("  mean queueing time    : %.2f ticks\n", fs.MeanQueueingTime())
		fmt.Printf("  mean activation time  : %.2f ticks\n", fs.MeanActivationLatency())
		fmt.Printf("  wasted core-ticks     : %d\n", fs.WastedCoreTicks)
		fmt.Printf("  wasted mem-byte-ticks : %d\n", fs.WastedMemTicks)
	}
}
