// Package sim provides the discrete-event simulation kernel shared by
// every subsystem in this module: a virtual clock, a delivery heap, and a
// name-keyed handler registry (kernel.go, event_heap.go).
//
// # Reading Guide
//
// Start with kernel.go to understand the event loop, then read the
// sub-packages, each a collaborator that only ever touches time through
// a *Context:
//   - sim/faas: container lifecycle, admission/queueing invoker policies,
//     and the host that wires both into kernel events
//   - sim/throughput: the fair work-conserving throughput-sharing model
//     shared by any resource whose capacity is split across concurrent
//     activities
//   - sim/storage: a disk built on sim/throughput, modeling concurrent
//     reads/writes against independent bandwidth budgets
//   - sim/mc: a pending-events store and dependency resolver for a
//     model-checker exploring message/timer interleavings
//   - sim/config: YAML resource loading and invoker-policy resolution
//
// # Key Interfaces
//
// The extension points are single-method or small interfaces:
//   - Handler: reacts to one delivered payload at a time
//   - faas.Invoker: admission/queueing policy over a ContainerManager
//   - throughput.ThroughputFn / throughput.FactorFn: capacity and
//     per-activity scaling for the fair-sharing model
package sim
