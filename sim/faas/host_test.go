package faas

import (
	"testing"

	"github.com/inference-sim/faas-sim/sim"
)

func TestHost_ColdStartThenWarmReuse(t *testing.T) {
	k := sim.NewKernel()
	stats := NewStats()
	h := NewHost(k, "host-0", 1, Resources{Cores: 4, MemoryBytes: 4000}, "FIFOInvoker", stats)
	h.RegisterApplication(&Application{ID: 1, Resources: Resources{Cores: 1, MemoryBytes: 1000}, ContainerDeployTime: 10})

	d1 := h.Submit(1, 1, 5 /* duration */, 0)
	if d1 != Cold {
		t.Fatalf("first invocation decision = %v, want Cold", d1)
	}

	// Stop short of the keep-alive expiry (t=15+120) so the container is
	// still around for the warm reuse below.
	k.Run(100)

	fs := stats.FuncStats(1)
	if fs.Invocations != 1 {
		t.Fatalf("Invocations = %d, want 1", fs.Invocations)
	}
	if fs.ColdStarts != 1 {
		t.Errorf("ColdStarts = %d, want 1", fs.ColdStarts)
	}
	// Deploy takes 10 ticks, then runs 5 more -> completes at t=15, well
	// within the keep-alive window, so the container should be Idle, not
	// yet terminated.
	var idleContainer *Container
	for id := range h.cm.containers {
		idleContainer = h.cm.containers[id]
	}
	if idleContainer == nil || idleContainer.Status != Idle {
		t.Fatalf("expected the container to be Idle after completion, got %+v", idleContainer)
	}

	d2 := h.Submit(1, 1, 5, 16)
	if d2 != Warm {
		t.Fatalf("second invocation decision = %v, want Warm (should reuse the idle container)", d2)
	}

	k.Run(1000)

	fs = stats.FuncStats(1)
	if fs.Invocations != 2 {
		t.Fatalf("Invocations = %d, want 2", fs.Invocations)
	}
	if fs.ColdStarts != 1 {
		t.Errorf("ColdStarts = %d, want 1 (second call was warm)", fs.ColdStarts)
	}
	// The container sat Idle from t=15 until the warm reuse at t=16: one
	// tick of 1 core / 1000 bytes wasted, attributed to this function.
	if fs.WastedCoreTicks != 1 {
		t.Errorf("WastedCoreTicks = %d, want 1", fs.WastedCoreTicks)
	}
	if fs.WastedMemTicks != 1000 {
		t.Errorf("WastedMemTicks = %d, want 1000", fs.WastedMemTicks)
	}
}

func TestHost_QueuedInvocationAdmittedOnceContainerFrees(t *testing.T) {
	k := sim.NewKernel()
	stats := NewStats()
	h := NewHost(k, "host-0", 1, Resources{Cores: 1, MemoryBytes: 1000}, "FIFOInvoker", stats)
	h.RegisterApplication(&Application{ID: 1, Resources: Resources{Cores: 1, MemoryBytes: 1000}, ContainerDeployTime: 5})

	d1 := h.Submit(1, 1, 20, 0) // runs from t=5 (after deploy) to t=25
	if d1 != Cold {
		t.Fatalf("first invocation decision = %v, want Cold", d1)
	}

	d2 := h.Submit(1, 1, 5, 1) // arrives while the only container is busy
	if d2 != Queued {
		t.Fatalf("second invocation decision = %v, want Queued", d2)
	}

	k.Run(1000)

	fs := stats.FuncStats(1)
	if fs.Invocations != 2 {
		t.Fatalf("Invocations = %d, want 2 (both should eventually run)", fs.Invocations)
	}
	if fs.ColdStarts != 1 {
		t.Errorf("ColdStarts = %d, want 1 (the queued one reused the freed container, no redeploy)", fs.ColdStarts)
	}
}
