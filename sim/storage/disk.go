// Package storage implements the disk storage model: the concrete
// consumer of the throughput-sharing model (sim/throughput), exposing
// read/write/free-space accounting over the simulation kernel.
package storage

import (
	"fmt"

	"github.com/inference-sim/faas-sim/sim"
	"github.com/inference-sim/faas-sim/sim/throughput"
)

// DataReadCompleted is delivered to a read's requester once its activity
// finishes.
type DataReadCompleted struct {
	RequestID int64
	Size      int64
}

// DataReadFailed is delivered immediately (same tick) when a read is
// rejected because its size exceeds capacity.
type DataReadFailed struct {
	RequestID int64
	Error     string
}

// DataWriteCompleted is delivered to a write's requester once its
// activity finishes.
type DataWriteCompleted struct {
	RequestID int64
	Size      int64
}

// DataWriteFailed is delivered immediately when a write is rejected
// because its size exceeds free space.
type DataWriteFailed struct {
	RequestID int64
	Error     string
}

type readActivityCompleted struct{}
type writeActivityCompleted struct{}

// Info is the disk's space accounting snapshot.
type Info struct {
	Capacity  int64
	UsedSpace int64
	FreeSpace int64
}

// DiskBuilder is a fluent setup type for Disk. Fill in the fields that
// matter, then call Build with the kernel to register on and the name to
// register under.
type DiskBuilder struct {
	capacity        int64
	haveCapacity    bool
	readThroughput  throughput.ThroughputFn
	writeThroughput throughput.ThroughputFn
	readFactor      throughput.FactorFn
	writeFactor     throughput.FactorFn
}

// NewDiskBuilder creates a builder with constant unit factor functions.
func NewDiskBuilder() *DiskBuilder {
	return &DiskBuilder{
		readFactor:  throughput.ConstantFactor(1),
		writeFactor: throughput.ConstantFactor(1),
	}
}

// SimpleDisk is the convenience constructor for the common case: a
// capacity plus constant read/write bandwidths.
func SimpleDisk(capacity int64, readBW, writeBW float64) *DiskBuilder {
	return NewDiskBuilder().Capacity(capacity).ConstantReadBW(readBW).ConstantWriteBW(writeBW)
}

// Capacity sets the disk's total capacity.
func (b *DiskBuilder) Capacity(c int64) *DiskBuilder {
	b.capacity = c
	b.haveCapacity = true
	return b
}

// ConstantReadBW sets a fixed read bandwidth.
func (b *DiskBuilder) ConstantReadBW(bw float64) *DiskBuilder {
	b.readThroughput = throughput.ConstantThroughput(bw)
	return b
}

// ConstantWriteBW sets a fixed write bandwidth.
func (b *DiskBuilder) ConstantWriteBW(bw float64) *DiskBuilder {
	b.writeThroughput = throughput.ConstantThroughput(bw)
	return b
}

// ReadThroughputFn sets a custom read throughput function, e.g. to model
// degradation under concurrency.
func (b *DiskBuilder) ReadThroughputFn(fn throughput.ThroughputFn) *DiskBuilder {
	b.readThroughput = fn
	return b
}

// WriteThroughputFn sets a custom write throughput function.
func (b *DiskBuilder) WriteThroughputFn(fn throughput.ThroughputFn) *DiskBuilder {
	b.writeThroughput = fn
	return b
}

// ReadFactorFn sets a custom per-activity read factor function.
func (b *DiskBuilder) ReadFactorFn(fn throughput.FactorFn) *DiskBuilder {
	b.readFactor = fn
	return b
}

// WriteFactorFn sets a custom per-activity write factor function.
func (b *DiskBuilder) WriteFactorFn(fn throughput.FactorFn) *DiskBuilder {
	b.writeFactor = fn
	return b
}

// Build constructs the Disk and registers its handler under name on
// kernel. Panics on incomplete settings (no capacity or throughput
// functions).
func (b *DiskBuilder) Build(kernel *sim.Kernel, name string) *Disk {
	if !b.haveCapacity {
		panic("storage: DiskBuilder.Build: capacity not set")
	}
	if b.readThroughput == nil || b.writeThroughput == nil {
		panic("storage: DiskBuilder.Build: read/write throughput function not set")
	}
	d := &Disk{
		name:         name,
		capacity:     b.capacity,
		readModel:    throughput.NewModel(b.readThroughput, b.readFactor),
		writeModel:   throughput.NewModel(b.writeThroughput, b.writeFactor),
		readPending:  make(map[int64]diskActivity),
		writePending: make(map[int64]diskActivity),
	}
	d.ctx = kernel.RegisterHandler(name, sim.HandlerFunc(d.handle))
	return d
}

// diskActivity is the payload each admitted read/write activity carries
// through the throughput model.
type diskActivity struct {
	requestID int64
	requester string
	size      int64
}

// Disk models one disk's capacity and read/write bandwidth via two
// independent fair throughput-sharing models (sim/throughput). Every
// mutation — a new read/write admitted, or the previously-scheduled
// completion firing — cancels whatever completion delivery was
// previously scheduled and reschedules from Peek, so there is never more
// than one pending completion delivery per direction.
type Disk struct {
	name     string
	ctx      *sim.Context
	capacity int64
	used     int64

	readModel  *throughput.Model
	writeModel *throughput.Model

	// readPending/writePending map the throughput model's own internal
	// activity RequestID (assigned by Model.Insert) to the disk-level
	// request id and size the caller should see on completion. Keying on
	// the model's activity identity (rather than requester name) is what
	// keeps this correct when one requester has multiple concurrent
	// activities outstanding.
	readPending  map[int64]diskActivity
	writePending map[int64]diskActivity

	nextRequestID  int64
	nextReadEvent  uint64
	nextWriteEvent uint64
}

// Name returns the recipient name this disk is registered under.
func (d *Disk) Name() string { return d.name }

func (d *Disk) makeRequestID() int64 {
	d.nextRequestID++
	return d.nextRequestID
}

func (d *Disk) scheduleNextRead() {
	if t, a, ok := d.readModel.Peek(); ok {
		d.nextReadEvent = d.ctx.Emit(readActivityCompleted{}, d.name, t-d.ctx.Now())
		_ = a
	}
}

func (d *Disk) scheduleNextWrite() {
	if t, a, ok := d.writeModel.Peek(); ok {
		d.nextWriteEvent = d.ctx.Emit(writeActivityCompleted{}, d.name, t-d.ctx.Now())
		_ = a
	}
}

// Read admits a read of size bytes on behalf of requester and returns a
// fresh request id. If size exceeds capacity, a DataReadFailed is
// delivered to requester at the current time and no activity is
// admitted; otherwise a DataReadCompleted follows once the fair-share
// model finishes the activity.
func (d *Disk) Read(size int64, requester string) int64 {
	requestID := d.makeRequestID()
	if size > d.capacity {
		d.ctx.Emit(DataReadFailed{
			RequestID: requestID,
			Error:     fmt.Sprintf("requested read size is %d but only %d is available", size, d.capacity),
		}, requester, 0)
		return requestID
	}
	act := d.readModel.Insert(requester, float64(size), d.ctx.Now())
	d.readPending[act.RequestID] = diskActivity{requestID: requestID, requester: requester, size: size}
	d.ctx.Cancel(d.nextReadEvent)
	d.scheduleNextRead()
	return requestID
}

// Write admits a write of size bytes on behalf of requester. If size
// exceeds free space, DataWriteFailed is delivered immediately; otherwise
// used space is incremented right away (on admission, not on completion)
// and DataWriteCompleted follows once the activity finishes.
func (d *Disk) Write(size int64, requester string) int64 {
	requestID := d.makeRequestID()
	available := d.capacity - d.used
	if available < size {
		d.ctx.Emit(DataWriteFailed{
			RequestID: requestID,
			Error:     fmt.Sprintf("requested write size is %d but only %d is available", size, available),
		}, requester, 0)
		return requestID
	}
	d.used += size
	act := d.writeModel.Insert(requester, float64(size), d.ctx.Now())
	d.writePending[act.RequestID] = diskActivity{requestID: requestID, requester: requester, size: size}
	d.ctx.Cancel(d.nextWriteEvent)
	d.scheduleNextWrite()
	return requestID
}

// MarkFree releases size bytes of previously-written space. Fails if
// size exceeds the currently used space.
func (d *Disk) MarkFree(size int64) error {
	if size > d.used {
		return fmt.Errorf("storage: invalid free size %d, only %d used", size, d.used)
	}
	d.used -= size
	return nil
}

// UsedSpace returns the currently used space.
func (d *Disk) UsedSpace() int64 { return d.used }

// FreeSpace returns capacity minus UsedSpace.
func (d *Disk) FreeSpace() int64 { return d.capacity - d.used }

// Capacity returns the disk's total capacity.
func (d *Disk) Capacity() int64 { return d.capacity }

// Info returns a snapshot of the disk's space accounting.
func (d *Disk) Info() Info {
	return Info{Capacity: d.capacity, UsedSpace: d.used, FreeSpace: d.FreeSpace()}
}

func (d *Disk) handle(ctx *sim.Context, now int64, payload any) {
	switch payload.(type) {
	case readActivityCompleted:
		d.onReadCompleted(now)
	case writeActivityCompleted:
		d.onWriteCompleted(now)
	}
}

func (d *Disk) onReadCompleted(now int64) {
	_, a, ok := d.readModel.Pop()
	if !ok {
		return
	}
	info := d.popReadPending(a.RequestID)
	d.ctx.Emit(DataReadCompleted{RequestID: info.requestID, Size: info.size}, info.requester, 0)
	d.scheduleNextRead()
}

func (d *Disk) onWriteCompleted(now int64) {
	_, a, ok := d.writeModel.Pop()
	if !ok {
		return
	}
	info := d.popWritePending(a.RequestID)
	d.ctx.Emit(DataWriteCompleted{RequestID: info.requestID, Size: info.size}, info.requester, 0)
	d.scheduleNextWrite()
}

// popReadPending looks up and removes the bookkeeping record for the
// throughput model's internal activity id (not the disk-level request id
// or requester name, either of which could collide across concurrent
// activities).
func (d *Disk) popReadPending(activityID int64) diskActivity {
	info, ok := d.readPending[activityID]
	if !ok {
		panic("storage: Disk: completed read activity has no pending request record")
	}
	delete(d.readPending, activityID)
	return info
}

func (d *Disk) popWritePending(activityID int64) diskActivity {
	info, ok := d.writePending[activityID]
	if !ok {
		panic("storage: Disk: completed write activity has no pending request record")
	}
	delete(d.writePending, activityID)
	return info
}
