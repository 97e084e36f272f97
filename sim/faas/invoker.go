package faas

import "fmt"

// Decision is the outcome of an admission attempt.
type Decision int

const (
	// Warm: an Idle container was reserved immediately; the invocation
	// starts running at the current time.
	Warm Decision = iota
	// Cold: no Idle container was available, but a new one was deployed
	// (or an already-Deploying one was reserved); the invocation starts
	// once the container finishes deploying.
	Cold
	// Queued: no container is available and none could be deployed
	// (resources exhausted); the invocation was appended to the queue.
	Queued
	// Rejected: no Idle container, no Deploying container, and deploying
	// a new one failed for lack of resources. tryInvoke reports this;
	// TryInvoke materializes it as Queued.
	Rejected
)

func (d Decision) String() string {
	switch d {
	case Warm:
		return "Warm"
	case Cold:
		return "Cold"
	case Queued:
		return "Queued"
	case Rejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// QueuedInvocation pairs a queued Invocation with the app it targets, so a
// later dequeue attempt doesn't need to look the application back up by id.
type QueuedInvocation struct {
	Invocation *Invocation
	App        *Application
}

// Admission is one queued invocation placed by a Dequeue call, together
// with the container it was bound to and whether the placement was Warm
// or Cold.
type Admission struct {
	Item        *QueuedInvocation
	ContainerID int64
	Decision    Decision
}

// Invoker owns one host's ContainerManager and the backlog of invocations
// it could not immediately place. TryInvoke implements the admission
// decision; Dequeue implements the policy-specific re-offer of queued
// invocations once resources free up.
type Invoker interface {
	// TryInvoke attempts to place inv (targeting app) on this invoker's
	// host at time now. Returns the decision and, for Warm/Cold, the
	// container id the invocation was bound to.
	TryInvoke(app *Application, inv *Invocation, now int64) (Decision, int64)
	// Dequeue is called whenever a container becomes available (an Idle
	// transition, a deployment completing, a termination freeing
	// resources) to give backlogged invocations another chance at
	// admission. It returns every invocation placed by this call, in
	// admission order.
	Dequeue(now int64) []Admission
	// QueueLen reports the number of currently backlogged invocations.
	QueueLen() int
	// ContainerManager exposes the underlying container manager for
	// callers (the host orchestrator) that need container lifecycle
	// events.
	ContainerManager() *ContainerManager
}

// baseInvoker holds the state and admission logic shared by every queueing
// policy; policies differ only in which backlogged invocations Dequeue
// offers for re-admission and in what order.
type baseInvoker struct {
	cm    *ContainerManager
	queue []*QueuedInvocation
}

func newBaseInvoker(cm *ContainerManager) baseInvoker {
	return baseInvoker{cm: cm}
}

func (b *baseInvoker) ContainerManager() *ContainerManager { return b.cm }

func (b *baseInvoker) QueueLen() int { return len(b.queue) }

// tryInvoke is the shared admission algorithm:
//  1. look for an Idle container of app — if found, reserve it and return Warm.
//  2. otherwise look for a Deploying container of app with no reservation —
//     if found, reserve the invocation against it (it starts once
//     deployment completes) and return Cold.
//  3. otherwise try to deploy a brand new container — if resources allow,
//     reserve the invocation against it and return Cold.
//  4. otherwise return Rejected; the caller decides whether to queue.
//
// tryInvoke never returns Queued — queueing is the caller's move, not an
// admission outcome.
func (b *baseInvoker) tryInvoke(app *Application, inv *Invocation, now int64) (Decision, int64) {
	idle := b.cm.GetPossibleContainers(app.ID, false, now)
	if len(idle) > 0 {
		c := idle[0]
		b.cm.ReserveContainer(c.ID, inv.ID)
		return Warm, c.ID
	}

	deploying := b.cm.GetPossibleContainers(app.ID, true, now)
	for _, c := range deploying {
		if c.Status == Deploying && c.NumInvocations() == 0 {
			b.cm.ReserveContainer(c.ID, inv.ID)
			return Cold, c.ID
		}
	}

	if id, _, ok := b.cm.TryDeploy(app, now); ok {
		b.cm.ReserveContainer(id, inv.ID)
		return Cold, id
	}

	return Rejected, 0
}

// admit runs tryInvoke and converts a Rejected outcome into an enqueue,
// returning Queued to the caller. A Queued outcome from tryInvoke itself
// is a programming error and aborts the simulation.
func (b *baseInvoker) admit(app *Application, inv *Invocation, now int64) (Decision, int64) {
	d, cid := b.tryInvoke(app, inv, now)
	switch d {
	case Warm, Cold:
		return d, cid
	case Rejected:
		b.queue = append(b.queue, &QueuedInvocation{Invocation: inv, App: app})
		return Queued, 0
	default:
		panic(fmt.Sprintf("faas: tryInvoke returned %v for invocation %d", d, inv.ID))
	}
}

// NaiveInvoker re-scans its entire backlog on every Dequeue call, admitting
// everything that now fits in one sweep and retaining (in original order)
// whatever still doesn't — so an invocation near the back of the queue can
// be admitted ahead of one at the front if the front one still doesn't fit.
type NaiveInvoker struct {
	baseInvoker
}

// NewNaiveInvoker creates a NaiveInvoker over cm.
func NewNaiveInvoker(cm *ContainerManager) *NaiveInvoker {
	return &NaiveInvoker{baseInvoker: newBaseInvoker(cm)}
}

func (n *NaiveInvoker) TryInvoke(app *Application, inv *Invocation, now int64) (Decision, int64) {
	return n.admit(app, inv, now)
}

func (n *NaiveInvoker) Dequeue(now int64) []Admission {
	var admitted []Admission
	retained := n.queue[:0]
	for _, qi := range n.queue {
		d, cid := n.tryInvoke(qi.App, qi.Invocation, now)
		if d == Warm || d == Cold {
			admitted = append(admitted, Admission{Item: qi, ContainerID: cid, Decision: d})
		} else {
			retained = append(retained, qi)
		}
	}
	n.queue = retained
	return admitted
}

// FIFOInvoker only ever attempts to admit the invocation at the head of
// its backlog: Dequeue pops admissible heads until the head no longer
// fits, then stops — so a later invocation is never served while an
// earlier one is still waiting, even if the later one would fit right now.
type FIFOInvoker struct {
	baseInvoker
}

// NewFIFOInvoker creates a FIFOInvoker over cm.
func NewFIFOInvoker(cm *ContainerManager) *FIFOInvoker {
	return &FIFOInvoker{baseInvoker: newBaseInvoker(cm)}
}

func (f *FIFOInvoker) TryInvoke(app *Application, inv *Invocation, now int64) (Decision, int64) {
	return f.admit(app, inv, now)
}

func (f *FIFOInvoker) Dequeue(now int64) []Admission {
	var admitted []Admission
	for len(f.queue) > 0 {
		head := f.queue[0]
		d, cid := f.tryInvoke(head.App, head.Invocation, now)
		if d != Warm && d != Cold {
			break
		}
		f.queue = f.queue[1:]
		admitted = append(admitted, Admission{Item: head, ContainerID: cid, Decision: d})
	}
	return admitted
}

// NewInvoker accepts exactly the literal names "NaiveInvoker" or
// "FIFOInvoker" and produces a fresh invoker instance over cm. Any other
// name is a fatal configuration error, surfaced at startup rather than at
// simulation time. sim/config's ResolveInvoker calls this directly
// rather than duplicating the mapping.
func NewInvoker(policy string, cm *ContainerManager) Invoker {
	switch policy {
	case "NaiveInvoker":
		return NewNaiveInvoker(cm)
	case "FIFOInvoker":
		return NewFIFOInvoker(cm)
	default:
		panic(fmt.Sprintf("faas: unknown invoker policy %q (want \"NaiveInvoker\" or \"FIFOInvoker\")", policy))
	}
}
