// Package sim implements the discrete-event simulation kernel: a virtual
// clock, an event heap, and a name-keyed handler registry. Everything else
// in this module (sim/faas, sim/throughput, sim/storage, sim/mc) is built
// as a collaborator that only ever touches time through a *Context.
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Handler reacts to a delivered payload. now is the kernel's clock at
// delivery time, which always equals the delivery's deliverAt.
type Handler interface {
	Handle(ctx *Context, now int64, payload any)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx *Context, now int64, payload any)

func (f HandlerFunc) Handle(ctx *Context, now int64, payload any) { f(ctx, now, payload) }

// Kernel is the virtual-clock event loop. It never runs handlers
// concurrently; Run drives everything from a single goroutine.
type Kernel struct {
	clock    int64
	queue    deliveryHeap
	handlers map[string]Handler
	canceled map[uint64]struct{}
	nextID   uint64
	nextSeq  uint64
}

// NewKernel creates an empty kernel with its clock at zero.
func NewKernel() *Kernel {
	return &Kernel{
		handlers: make(map[string]Handler),
		canceled: make(map[uint64]struct{}),
	}
}

// Now returns the kernel's current virtual time.
func (k *Kernel) Now() int64 { return k.clock }

// RegisterHandler binds a handler under name and returns a Context through
// which that handler (and only that handler) may emit, self-emit, and
// cancel events. Registering the same name twice overwrites the handler
// but callers keep using their original *Context.
func (k *Kernel) RegisterHandler(name string, h Handler) *Context {
	k.handlers[name] = h
	return &Context{kernel: k, name: name}
}

// emit is the shared implementation behind Context.Emit/Context.EmitSelf.
// Delay must be nonnegative: no event may fire before now()+delay.
func (k *Kernel) emit(payload any, recipient string, delay int64) uint64 {
	if delay < 0 {
		panic(fmt.Sprintf("sim: negative delay %d for recipient %q", delay, recipient))
	}
	k.nextID++
	id := k.nextID
	k.nextSeq++
	k.queue.schedule(&delivery{
		id:        id,
		deliverAt: k.clock + delay,
		seq:       k.nextSeq,
		recipient: recipient,
		payload:   payload,
	})
	return id
}

// cancel marks a previously scheduled delivery as dead. Popping a
// canceled delivery later is a silent no-op — this is cheaper than
// rebalancing the heap and matches the disk model's cancel-then-reschedule
// discipline (every mutation cancels the old completion before scheduling
// a new one).
func (k *Kernel) cancel(id uint64) {
	if id > k.nextID {
		return
	}
	k.canceled[id] = struct{}{}
}

// Run pops deliveries in (time, insertion) order until the queue drains or
// the next delivery's timestamp exceeds horizon. The clock only ever moves
// forward; a regression is a kernel bug and aborts the simulation.
func (k *Kernel) Run(horizon int64) {
	for k.queue.Len() > 0 {
		next := k.queue.peek()
		if next.deliverAt > horizon {
			break
		}
		d := k.queue.popNext()
		if _, dead := k.canceled[d.id]; dead {
			delete(k.canceled, d.id)
			continue
		}
		if d.deliverAt < k.clock {
			panic(fmt.Sprintf("sim: clock went backwards: %d < %d", d.deliverAt, k.clock))
		}
		k.clock = d.deliverAt
		h, ok := k.handlers[d.recipient]
		if !ok {
			logrus.Warnf("sim: no handler registered for recipient %q, dropping event", d.recipient)
			continue
		}
		ctx := &Context{kernel: k, name: d.recipient}
		h.Handle(ctx, k.clock, d.payload)
	}
}

// Context is a handler's private capability to interact with the kernel:
// read the clock, emit to others, emit to itself, and cancel a pending
// delivery it previously scheduled.
type Context struct {
	kernel *Kernel
	name   string
}

// Now returns the kernel's current virtual time.
func (c *Context) Now() int64 { return c.kernel.Now() }

// Emit schedules payload for delivery to recipient after delay ticks and
// returns the id of the scheduled delivery (usable with Cancel).
func (c *Context) Emit(payload any, recipient string, delay int64) uint64 {
	return c.kernel.emit(payload, recipient, delay)
}

// EmitSelf schedules payload for delivery back to this handler after delay
// ticks.
func (c *Context) EmitSelf(payload any, delay int64) uint64 {
	return c.kernel.emit(payload, c.name, delay)
}

// Cancel marks a previously scheduled delivery as dead; it will be
// silently dropped if it is later popped. Canceling an id that already
// fired or was never issued is a harmless no-op.
func (c *Context) Cancel(id uint64) {
	if id == 0 {
		return
	}
	c.kernel.cancel(id)
}

// Name returns the recipient name this Context is bound to.
func (c *Context) Name() string { return c.name }
