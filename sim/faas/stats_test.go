package faas

import "testing"

func TestStats_RecordAdmissionAccumulates(t *testing.T) {
	s := NewStats()
	s.RecordAdmission(1, Warm, 0, 0, 0)
	s.RecordAdmission(1, Cold, 10, 12, 3) // queued for 2, then a 3-tick deploy

	fs := s.FuncStats(1)
	if fs.Invocations != 2 {
		t.Errorf("Invocations = %d, want 2", fs.Invocations)
	}
	if fs.ColdStarts != 1 {
		t.Errorf("ColdStarts = %d, want 1", fs.ColdStarts)
	}
	if fs.QueueingTime != 2 {
		t.Errorf("QueueingTime = %d, want 2", fs.QueueingTime)
	}
	if fs.ActivationLatency != 5 {
		t.Errorf("ActivationLatency = %d, want 5 (2 queueing + 3 deploy)", fs.ActivationLatency)
	}
	if got := fs.MeanQueueingTime(); got != 1 {
		t.Errorf("MeanQueueingTime() = %v, want 1", got)
	}
	if got := fs.MeanActivationLatency(); got != 2.5 {
		t.Errorf("MeanActivationLatency() = %v, want 2.5", got)
	}
	if got := fs.ColdStartRate(); got != 0.5 {
		t.Errorf("ColdStartRate() = %v, want 0.5", got)
	}
}

func TestStats_WarmAdmissionHasNoActivationDelayBeyondQueueing(t *testing.T) {
	s := NewStats()
	s.RecordAdmission(1, Warm, 0, 4, 0) // queued 4 ticks, then warm-started with no further delay

	fs := s.FuncStats(1)
	if fs.QueueingTime != 4 {
		t.Errorf("QueueingTime = %d, want 4", fs.QueueingTime)
	}
	if fs.ActivationLatency != 4 {
		t.Errorf("ActivationLatency = %d, want 4 (no cold delay on top of queueing)", fs.ActivationLatency)
	}
}

func TestStats_UnseenFunctionReturnsZeroValue(t *testing.T) {
	s := NewStats()
	fs := s.FuncStats(42)
	if fs.Invocations != 0 || fs.MeanQueueingTime() != 0 || fs.MeanActivationLatency() != 0 || fs.ColdStartRate() != 0 {
		t.Errorf("expected zero-value stats for unseen function, got %+v", fs)
	}
}

func TestStats_TotalsAggregateAcrossFunctions(t *testing.T) {
	s := NewStats()
	s.RecordAdmission(1, Warm, 0, 0, 0)
	s.RecordAdmission(2, Cold, 0, 0, 5)
	s.RecordAdmission(2, Cold, 0, 0, 5)

	if got := s.TotalInvocations(); got != 3 {
		t.Errorf("TotalInvocations() = %d, want 3", got)
	}
	if got := s.TotalColdStarts(); got != 2 {
		t.Errorf("TotalColdStarts() = %d, want 2", got)
	}
}
