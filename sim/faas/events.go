package faas

// Event payloads delivered through the kernel to a host's handler.

// ContainerStartEvent fires when a Deploying container finishes
// deployment and becomes Running or Idle.
type ContainerStartEvent struct {
	ID int64
}

// ContainerEndEvent fires when a container's keep-alive window expires.
// ExpectedCount guards against a stale timer: if the container's
// invocation count no longer matches ExpectedCount when this event is
// handled, the container's state changed since the timer was scheduled
// and the timer is ignored.
type ContainerEndEvent struct {
	ID            int64
	ExpectedCount int
}

// IdleDeployEvent fires to pre-warm a container outside the normal
// admission path (e.g. a scheduled keep-warm policy).
type IdleDeployEvent struct {
	ID int64
}

// InvocationStartEvent fires when a reserved invocation actually begins
// executing (its container has finished deploying, if it was Cold).
type InvocationStartEvent struct {
	ID     int64
	FuncID int64
}

// InvocationEndEvent fires when a running invocation completes.
type InvocationEndEvent struct {
	ID int64
}

// SimulationEndEvent is delivered once, at the configured horizon, to
// let a host flush any end-of-run accounting (e.g. charging wasted
// resources for containers still Idle at shutdown).
type SimulationEndEvent struct{}
