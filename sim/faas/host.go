package faas

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/faas-sim/sim"
)

// KeepAliveTicks is how long an Idle container is kept around before
// being torn down. The same value applies to every application.
const KeepAliveTicks = 120

// Host binds one ContainerManager/Invoker pair to the kernel, translating
// admission decisions into scheduled events and routing those events back
// into invoker/container-manager state transitions. One Host is registered
// under one kernel recipient name per simulated machine.
type Host struct {
	name  string
	ctx   *sim.Context
	cm    *ContainerManager
	inv   Invoker
	stats *Stats

	apps         map[int64]*Application
	invocations  map[int64]*Invocation
	containerEnd map[int64]uint64 // container id -> pending ContainerEndEvent delivery id
	durations    map[int64]int64  // invocation id -> configured execution duration

	invocationSeq int64
}

// NewHost creates a Host with its own ContainerManager sized to capacity,
// using the named invoker policy, reporting into stats.
func NewHost(kernel *sim.Kernel, name string, hostID int64, capacity Resources, invokerPolicy string, stats *Stats) *Host {
	cm := NewContainerManager(hostID, capacity)
	h := &Host{
		name:         name,
		cm:           cm,
		inv:          NewInvoker(invokerPolicy, cm),
		stats:        stats,
		apps:         make(map[int64]*Application),
		invocations:  make(map[int64]*Invocation),
		containerEnd: make(map[int64]uint64),
		durations:    make(map[int64]int64),
	}
	h.ctx = kernel.RegisterHandler(name, sim.HandlerFunc(h.handle))
	return h
}

// RegisterApplication makes app known to this host so future invocations
// targeting it can be admitted.
func (h *Host) RegisterApplication(app *Application) {
	h.apps[app.ID] = app
}

// ContainerManager exposes the host's container manager for inspection
// (metrics, tests).
func (h *Host) ContainerManager() *ContainerManager { return h.cm }

// Name returns the kernel recipient name this host is registered under.
func (h *Host) Name() string { return h.name }

// Submit is the entry point for a new invocation arriving at this host.
// duration is how long the invocation runs once started (a workload
// input, not something this package derives). It runs the admission
// decision immediately, schedules the invocation's start and the
// container's lifecycle events accordingly, and returns the decision that
// was made.
func (h *Host) Submit(appID, funcID, duration, now int64) Decision {
	app, ok := h.apps[appID]
	if !ok {
		panic(fmt.Sprintf("faas: host %s: Submit: unknown application %d", h.name, appID))
	}
	h.invocationSeq++
	inv := &Invocation{ID: h.invocationSeq, FuncID: funcID, AppID: appID, ArrivalTime: now}
	h.invocations[inv.ID] = inv
	h.durations[inv.ID] = duration

	decision, containerID := h.inv.TryInvoke(app, inv, now)
	h.onDecision(inv, containerID, decision, now)
	return decision
}

func (h *Host) onDecision(inv *Invocation, containerID int64, decision Decision, now int64) {
	switch decision {
	case Warm:
		inv.ContainerID = containerID
		inv.StartTime = now
		h.recordWarmReuse(inv.FuncID, containerID, now)
		h.stats.RecordAdmission(inv.FuncID, Warm, inv.ArrivalTime, now, 0)
		h.startInvocation(inv, now)
	case Cold:
		inv.ContainerID = containerID
		c, _ := h.cm.GetContainer(containerID)
		c.LastFunc = inv.FuncID
		delay := c.RemainingDeployTime(now)
		h.stats.RecordAdmission(inv.FuncID, Cold, inv.ArrivalTime, now, delay)
		h.ctx.Emit(ContainerStartEvent{ID: containerID}, h.name, delay)
	case Queued:
		logrus.Debugf("faas: host %s: invocation %d queued (app %d)", h.name, inv.ID, inv.AppID)
	case Rejected:
		logrus.Debugf("faas: host %s: invocation %d rejected (app %d)", h.name, inv.ID, inv.AppID)
	}
}

// recordWarmReuse charges wasted-resource accounting when a Warm decision
// reuses a container that was Idle: the time it sat Idle served nothing,
// and is recorded before last_change is advanced to now.
// By the time this runs, the container manager has
// already flipped the container's status to Running (ReserveContainer is
// synchronous inside TryInvoke), but LastChange still holds the moment it
// became Idle.
func (h *Host) recordWarmReuse(funcID, containerID, now int64) {
	c, ok := h.cm.GetContainer(containerID)
	if !ok {
		return
	}
	c.LastFunc = funcID
	idleTicks := now - c.LastChange
	if idleTicks > 0 {
		h.stats.RecordWaste(funcID, c.Resources.Cores*idleTicks, c.Resources.MemoryBytes*idleTicks)
	}
	c.LastChange = now
}

// startInvocation transitions a reserved invocation into execution and
// schedules its completion. Execution duration is a workload input
// (supplied to Submit), not derived here.
func (h *Host) startInvocation(inv *Invocation, now int64) {
	h.ctx.Emit(InvocationStartEvent{ID: inv.ID, FuncID: inv.FuncID}, h.name, 0)
}

func (h *Host) handle(ctx *sim.Context, now int64, payload any) {
	switch e := payload.(type) {
	case ContainerStartEvent:
		h.handleContainerStart(e, now)
	case ContainerEndEvent:
		h.handleContainerEnd(e, now)
	case IdleDeployEvent:
		h.handleIdleDeploy(e, now)
	case InvocationStartEvent:
		h.handleInvocationStart(e, now)
	case InvocationEndEvent:
		h.handleInvocationEnd(e, now)
	case SimulationEndEvent:
		h.handleSimulationEnd(now)
	default:
		logrus.Warnf("faas: host %s: unrecognized event payload %T", h.name, payload)
	}
}

func (h *Host) handleContainerStart(e ContainerStartEvent, now int64) {
	h.cm.CompleteDeployment(e.ID, now)
	c, _ := h.cm.GetContainer(e.ID)
	for _, invID := range c.Invocations() {
		inv := h.invocations[invID]
		inv.StartTime = now
		h.startInvocation(inv, now)
	}
}

func (h *Host) handleIdleDeploy(e IdleDeployEvent, now int64) {
	c, ok := h.cm.GetContainer(e.ID)
	if !ok || c.Status != Deploying || c.NumInvocations() != 0 {
		// An admission reserved this container while it was still
		// deploying; its ContainerStartEvent completes the deployment.
		return
	}
	h.cm.CompleteDeployment(e.ID, now)
	h.drainQueue(now)
}

func (h *Host) handleInvocationStart(e InvocationStartEvent, now int64) {
	inv := h.invocations[e.ID]
	duration := h.duration(inv)
	h.ctx.Emit(InvocationEndEvent{ID: inv.ID}, h.name, duration)
}

func (h *Host) duration(inv *Invocation) int64 {
	if d, ok := h.durations[inv.ID]; ok {
		return d
	}
	return 1
}

func (h *Host) handleInvocationEnd(e InvocationEndEvent, now int64) {
	inv := h.invocations[e.ID]
	inv.EndTime = now
	c, ok := h.cm.GetContainer(inv.ContainerID)
	if !ok {
		return
	}
	c.EndInvocation(inv.ID)
	delete(h.invocations, inv.ID)

	if c.NumInvocations() == 0 {
		h.cm.MarkIdle(c.ID, now)
		h.ctx.Emit(ContainerEndEvent{ID: c.ID, ExpectedCount: int(c.Epoch)}, h.name, KeepAliveTicks)
	}

	h.drainQueue(now)
}

// drainQueue re-offers backlogged invocations whenever resources free up.
// Each admission is accounted and scheduled exactly as a direct admission
// would be.
func (h *Host) drainQueue(now int64) {
	for _, adm := range h.inv.Dequeue(now) {
		adm.Item.Invocation.ContainerID = adm.ContainerID
		h.onDequeued(adm.Item.Invocation, adm.ContainerID, adm.Decision, now)
	}
}

func (h *Host) onDequeued(inv *Invocation, containerID int64, decision Decision, now int64) {
	switch decision {
	case Warm:
		inv.StartTime = now
		h.recordWarmReuse(inv.FuncID, containerID, now)
		h.stats.RecordAdmission(inv.FuncID, Warm, inv.ArrivalTime, now, 0)
		h.startInvocation(inv, now)
	case Cold:
		c, _ := h.cm.GetContainer(containerID)
		c.LastFunc = inv.FuncID
		delay := c.RemainingDeployTime(now)
		h.stats.RecordAdmission(inv.FuncID, Cold, inv.ArrivalTime, now, delay)
		h.ctx.Emit(ContainerStartEvent{ID: containerID}, h.name, delay)
	}
}

func (h *Host) handleContainerEnd(e ContainerEndEvent, now int64) {
	c, ok := h.cm.GetContainer(e.ID)
	if !ok || c.Status != Idle || int64(e.ExpectedCount) != c.Epoch {
		return // container was reused since this timer was scheduled
	}
	h.cm.Terminate(e.ID, now)
	h.drainQueue(now)
}

func (h *Host) handleSimulationEnd(now int64) {
	for _, c := range h.cm.containers {
		if c.Status == Idle {
			h.stats.RecordWaste(c.LastFunc, c.Resources.Cores*(now-c.LastChange), c.Resources.MemoryBytes*(now-c.LastChange))
		}
	}
}
