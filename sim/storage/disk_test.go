package storage

import (
	"testing"

	"github.com/inference-sim/faas-sim/sim"
)

// readingHandler collects every payload delivered to it.
type readingHandler struct {
	received []any
}

func (r *readingHandler) Handle(ctx *sim.Context, now int64, payload any) {
	r.received = append(r.received, payload)
}

// A SimpleDisk(c, r, w) build produces a disk whose capacity and
// read/write bandwidths are exactly c/r/w.
func TestSimpleDisk_RoundTripsBandwidthAndCapacity(t *testing.T) {
	k := sim.NewKernel()
	d := SimpleDisk(1000, 100, 50).Build(k, "disk")

	if d.Capacity() != 1000 {
		t.Errorf("Capacity() = %d, want 1000", d.Capacity())
	}
	if d.FreeSpace() != 1000 {
		t.Errorf("FreeSpace() = %d, want 1000", d.FreeSpace())
	}

	requester := &readingHandler{}
	k.RegisterHandler("client", requester)
	d.Read(100, "client") // 100 bytes at 100 bytes/tick => completes at t=1

	k.Run(100)
	if len(requester.received) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(requester.received))
	}
	completed, ok := requester.received[0].(DataReadCompleted)
	if !ok {
		t.Fatalf("expected DataReadCompleted, got %T", requester.received[0])
	}
	if completed.Size != 100 {
		t.Errorf("completed size = %d, want 100", completed.Size)
	}
}

func TestDisk_ReadExceedingCapacityFailsImmediately(t *testing.T) {
	k := sim.NewKernel()
	d := SimpleDisk(100, 10, 10).Build(k, "disk")
	requester := &readingHandler{}
	k.RegisterHandler("client", requester)

	d.Read(200, "client")
	k.Run(100)

	if len(requester.received) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(requester.received))
	}
	if _, ok := requester.received[0].(DataReadFailed); !ok {
		t.Fatalf("expected DataReadFailed, got %T", requester.received[0])
	}
}

func TestDisk_WriteExceedingFreeSpaceFailsImmediately(t *testing.T) {
	k := sim.NewKernel()
	d := SimpleDisk(100, 10, 10).Build(k, "disk")
	requester := &readingHandler{}
	k.RegisterHandler("client", requester)

	d.Write(50, "client")
	k.Run(1) // the first write is admitted, used=50, still in flight

	d.Write(60, "client") // 60 > 50 free
	k.Run(100)

	var failed int
	for _, p := range requester.received {
		if _, ok := p.(DataWriteFailed); ok {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly 1 DataWriteFailed, got %d (payloads: %+v)", failed, requester.received)
	}
}

// After any sequence of paired writes and frees, used space returns to
// its initial value, and used + free == capacity throughout.
func TestDisk_UsedSpaceAccounting(t *testing.T) {
	k := sim.NewKernel()
	d := SimpleDisk(1000, 1000, 1000).Build(k, "disk")
	requester := &readingHandler{}
	k.RegisterHandler("client", requester)

	d.Write(300, "client")
	if d.UsedSpace() != 300 {
		t.Fatalf("UsedSpace() = %d, want 300 (incremented on admission, not completion)", d.UsedSpace())
	}
	if d.UsedSpace()+d.FreeSpace() != d.Capacity() {
		t.Fatal("used + free != capacity")
	}

	if err := d.MarkFree(300); err != nil {
		t.Fatalf("MarkFree: %v", err)
	}
	if d.UsedSpace() != 0 {
		t.Errorf("UsedSpace() = %d, want 0 after freeing everything written", d.UsedSpace())
	}
	if d.UsedSpace()+d.FreeSpace() != d.Capacity() {
		t.Fatal("used + free != capacity")
	}
}

func TestDisk_MarkFreeMoreThanUsedFails(t *testing.T) {
	k := sim.NewKernel()
	d := SimpleDisk(1000, 1000, 1000).Build(k, "disk")
	if err := d.MarkFree(1); err == nil {
		t.Fatal("expected an error freeing more than used")
	}
}

// TestDisk_ConcurrentReadsFromSameRequesterCompleteIndependently guards
// against keying pending-activity bookkeeping by requester name (which
// would collide when one requester has multiple reads in flight at once).
func TestDisk_ConcurrentReadsFromSameRequesterCompleteIndependently(t *testing.T) {
	k := sim.NewKernel()
	d := SimpleDisk(1000, 10, 10).Build(k, "disk")
	requester := &readingHandler{}
	k.RegisterHandler("client", requester)

	id1 := d.Read(50, "client")
	id2 := d.Read(100, "client")

	k.Run(1000)

	if len(requester.received) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(requester.received))
	}
	seen := map[int64]int64{}
	for _, p := range requester.received {
		c, ok := p.(DataReadCompleted)
		if !ok {
			t.Fatalf("expected DataReadCompleted, got %T", p)
		}
		seen[c.RequestID] = c.Size
	}
	if seen[id1] != 50 {
		t.Errorf("request %d size = %d, want 50", id1, seen[id1])
	}
	if seen[id2] != 100 {
		t.Errorf("request %d size = %d, want 100", id2, seen[id2])
	}
}

func TestDiskBuilder_BuildPanicsWithoutCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic building a disk with no capacity set")
		}
	}()
	k := sim.NewKernel()
	NewDiskBuilder().ConstantReadBW(1).ConstantWriteBW(1).Build(k, "disk")
}
