package faas

import (
	"fmt"
	"sort"
)

// ContainerManager tracks per-host container lifecycle. One instance owns
// exactly one host's resources; cross-host placement is a scheduler
// concern, not handled here. Used resources are maintained as incremental
// counters rather than recomputed from the container table each call.
type ContainerManager struct {
	hostID   int64
	capacity Resources
	used     Resources

	containers map[int64]*Container
	byApp      map[int64]map[int64]struct{} // appID -> set of container ids

	nextContainerID int64
}

// NewContainerManager creates an empty manager for one host with the
// given total resource capacity.
func NewContainerManager(hostID int64, capacity Resources) *ContainerManager {
	return &ContainerManager{
		hostID:     hostID,
		capacity:   capacity,
		containers: make(map[int64]*Container),
		byApp:      make(map[int64]map[int64]struct{}),
	}
}

// HostID returns the id of the host this manager owns.
func (cm *ContainerManager) HostID() int64 { return cm.hostID }

// UsedResources returns the resources currently reserved across all live
// (non-Terminated) containers. Never exceeds capacity.
func (cm *ContainerManager) UsedResources() Resources { return cm.used }

// FreeResources returns capacity minus UsedResources.
func (cm *ContainerManager) FreeResources() Resources { return cm.capacity.Sub(cm.used) }

// GetContainer looks up a container by id.
func (cm *ContainerManager) GetContainer(id int64) (*Container, bool) {
	c, ok := cm.containers[id]
	return c, ok
}

// GetPossibleContainers returns containers of the given app in states
// {Idle} ∪ ({Deploying} if includeDeploying), ordered by increasing
// time-to-availability (Idle = 0 first; Deploying ordered by remaining
// deploy time), ties broken by container id (insertion order, since ids
// are assigned monotonically).
func (cm *ContainerManager) GetPossibleContainers(appID int64, includeDeploying bool, now int64) []*Container {
	ids := cm.byApp[appID]
	candidates := make([]*Container, 0, len(ids))
	for id := range ids {
		c := cm.containers[id]
		if c.Status == Idle || (includeDeploying && c.Status == Deploying) {
			candidates = append(candidates, c)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		wi, wj := waitOf(candidates[i], now), waitOf(candidates[j], now)
		if wi != wj {
			return wi < wj
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates
}

func waitOf(c *Container, now int64) int64 {
	if c.Status == Idle {
		return 0
	}
	return c.RemainingDeployTime(now)
}

// TryDeploy attempts to allocate a new Deploying container for app on this
// host. Succeeds only when the host has sufficient free cores and memory,
// in which case it reserves those resources immediately (so a concurrent
// TryDeploy call for a different app cannot oversubscribe the host) and
// returns the new container id and its deploy delay (app's
// ContainerDeployTime). ok is false when resources are insufficient.
func (cm *ContainerManager) TryDeploy(app *Application, now int64) (containerID int64, delay int64, ok bool) {
	if !app.Resources.Fits(cm.FreeResources()) {
		return 0, 0, false
	}
	cm.nextContainerID++
	id := cm.nextContainerID
	c := newContainer(id, app.ID, cm.hostID, app.Resources, app.ContainerDeployTime, now)
	cm.containers[id] = c
	if cm.byApp[app.ID] == nil {
		cm.byApp[app.ID] = make(map[int64]struct{})
	}
	cm.byApp[app.ID][id] = struct{}{}
	cm.used = cm.used.Add(app.Resources)
	return id, app.ContainerDeployTime, true
}

// ReserveContainer attaches invocationID to container id. For an Idle
// container (the Warm case) it transitions to Running immediately, since
// no further deployment wait is needed. For a Deploying container (the
// Cold case) the invocation is attached now but the container stays
// Deploying until CompleteDeployment flips it to Running. Precondition:
// the container exists, is Idle or Deploying, and (for Deploying) has no
// invocation already reserved — violating this is a programming error and
// panics.
func (cm *ContainerManager) ReserveContainer(id int64, invocationID int64) {
	c, ok := cm.containers[id]
	if !ok {
		panic(fmt.Sprintf("faas: ReserveContainer: unknown container %d", id))
	}
	switch c.Status {
	case Idle:
		c.StartInvocation(invocationID)
		c.Status = Running
	case Deploying:
		if c.NumInvocations() != 0 {
			panic(fmt.Sprintf("faas: ReserveContainer: container %d already has a reserved invocation", id))
		}
		c.StartInvocation(invocationID)
	default:
		panic(fmt.Sprintf("faas: ReserveContainer: container %d is not Idle or Deploying (status=%s)", id, c.Status))
	}
}

// CompleteDeployment transitions a Deploying container to Running (if it
// holds a reserved invocation) or Idle (if somehow deploying with none,
// which only happens via explicit pre-warming). now must be >=
// created_at + deployment_time; violating that is a programming error.
func (cm *ContainerManager) CompleteDeployment(id int64, now int64) {
	c, ok := cm.containers[id]
	if !ok {
		panic(fmt.Sprintf("faas: CompleteDeployment: unknown container %d", id))
	}
	if c.Status != Deploying {
		panic(fmt.Sprintf("faas: CompleteDeployment: container %d is not Deploying (status=%s)", id, c.Status))
	}
	if now < c.CreatedAt+c.DeploymentTime {
		panic(fmt.Sprintf("faas: CompleteDeployment: container %d completed deployment early (now=%d < %d)", id, now, c.CreatedAt+c.DeploymentTime))
	}
	c.LastChange = now
	if c.NumInvocations() > 0 {
		c.Status = Running
	} else {
		c.Status = Idle
	}
}

// MarkIdle transitions a Running container with no remaining invocations
// to Idle.
func (cm *ContainerManager) MarkIdle(id int64, now int64) {
	c, ok := cm.containers[id]
	if !ok {
		panic(fmt.Sprintf("faas: MarkIdle: unknown container %d", id))
	}
	if c.NumInvocations() != 0 {
		panic(fmt.Sprintf("faas: MarkIdle: container %d still has %d assigned invocations", id, c.NumInvocations()))
	}
	c.Status = Idle
	c.LastChange = now
}

// Terminate removes a container from the host and releases its
// resources. Precondition: the container holds no invocations.
func (cm *ContainerManager) Terminate(id int64, now int64) {
	c, ok := cm.containers[id]
	if !ok {
		panic(fmt.Sprintf("faas: Terminate: unknown container %d", id))
	}
	if c.NumInvocations() != 0 {
		panic(fmt.Sprintf("faas: Terminate: container %d still has %d assigned invocations", id, c.NumInvocations()))
	}
	c.Status = Terminated
	c.LastChange = now
	cm.used = cm.used.Sub(c.Resources)
	delete(cm.byApp[c.AppID], id)
	delete(cm.containers, id)
}
