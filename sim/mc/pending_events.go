package mc

// PendingEvents stores every event the model checker has not yet explored
// and exposes only the subset whose firing is consistent with causal and
// per-process-FIFO ordering (available_events). Directives — cancellations
// and drops — preempt everything else: whenever one is pending, it is the
// only thing AvailableEvents offers, so exploration absorbs it
// immediately rather than branching on it.
type PendingEvents struct {
	events       map[EventID]Event
	timerMapping map[timerKey]EventID
	availableIDs map[EventID]struct{}
	directiveIDs map[EventID]struct{}
	resolver     *DependencyResolver
	idCounter    EventID
}

type timerKey struct {
	proc string
	name string
}

// NewPendingEvents creates an empty store.
func NewPendingEvents() *PendingEvents {
	return &PendingEvents{
		events:       make(map[EventID]Event),
		timerMapping: make(map[timerKey]EventID),
		availableIDs: make(map[EventID]struct{}),
		directiveIDs: make(map[EventID]struct{}),
		resolver:     NewDependencyResolver(),
	}
}

// Push stores event and returns the fresh id assigned to it.
func (p *PendingEvents) Push(event Event) EventID {
	id := p.idCounter
	p.idCounter++
	return p.PushWithFixedID(event, id)
}

// PushWithFixedID stores event under the caller-supplied id. Precondition:
// id must not already be present — violating this is a programming error.
func (p *PendingEvents) PushWithFixedID(event Event, id EventID) EventID {
	if _, exists := p.events[id]; exists {
		panic("mc: PendingEvents.PushWithFixedID: event with this id already exists")
	}
	switch event.Kind {
	case MessageReceived:
		if p.resolver.AddMessage(event.Src, event.Dest, event.Msg, id) {
			p.availableIDs[id] = struct{}{}
		}
	case TimerFired:
		p.timerMapping[timerKey{event.Proc, event.TimerName}] = id
		if p.resolver.AddTimer(event.Proc, event.TimerDelay, id) {
			// The new timer displaces this proc's previous head, which is
			// no longer available.
			for other := range p.availableIDs {
				if e := p.events[other]; e.Kind == TimerFired && e.Proc == event.Proc {
					delete(p.availableIDs, other)
				}
			}
			p.availableIDs[id] = struct{}{}
		}
	case TimerCancelled, MessageDropped:
		p.directiveIDs[id] = struct{}{}
	}
	p.events[id] = event
	return id
}

// Get returns the event stored under id, if any.
func (p *PendingEvents) Get(id EventID) (Event, bool) {
	e, ok := p.events[id]
	return e, ok
}

// AvailableEvents returns the ids currently safe to explore. If any
// directive is pending, it returns exactly one of them (the smallest id,
// for determinism) — directives preempt ordinary events entirely.
// Otherwise it returns the full set of causally-available ordinary
// events.
func (p *PendingEvents) AvailableEvents() map[EventID]struct{} {
	if len(p.directiveIDs) > 0 {
		return map[EventID]struct{}{p.smallestDirective(): {}}
	}
	out := make(map[EventID]struct{}, len(p.availableIDs))
	for id := range p.availableIDs {
		out[id] = struct{}{}
	}
	return out
}

// AvailableEventsNum reports |AvailableEvents()| without allocating it:
// 1 if any directive is pending, else the number of available ordinary
// events.
func (p *PendingEvents) AvailableEventsNum() int {
	if len(p.directiveIDs) > 0 {
		return 1
	}
	return len(p.availableIDs)
}

func (p *PendingEvents) smallestDirective() EventID {
	var min EventID
	first := true
	for id := range p.directiveIDs {
		if first || id < min {
			min = id
			first = false
		}
	}
	return min
}

// CancelTimer looks up the pending TimerFired event registered under
// (proc, name) and, if found, pops it — removing both the event itself
// and its resolver bookkeeping.
func (p *PendingEvents) CancelTimer(proc, name string) {
	key := timerKey{proc, name}
	id, ok := p.timerMapping[key]
	if !ok {
		return
	}
	delete(p.timerMapping, key)
	p.Pop(id)
}

// Pop removes and returns the event stored under id. For a TimerFired
// event, this unblocks the next timer (if any) in that process's delay
// order. For a MessageReceived event, this unblocks the next message (if
// any) in that (src,dest) pair's send order. Precondition: id must be
// present — popping an unknown id is a programming error.
func (p *PendingEvents) Pop(id EventID) Event {
	event, ok := p.events[id]
	if !ok {
		panic("mc: PendingEvents.Pop: unknown event id")
	}
	delete(p.events, id)
	delete(p.directiveIDs, id)
	delete(p.availableIDs, id)

	switch event.Kind {
	case TimerFired:
		key := timerKey{event.Proc, event.TimerName}
		if mapped, ok := p.timerMapping[key]; ok && mapped == id {
			delete(p.timerMapping, key)
		}
		for _, unblocked := range p.resolver.RemoveTimer(id) {
			p.availableIDs[unblocked] = struct{}{}
		}
	case MessageReceived:
		if unblocked, ok := p.resolver.RemoveMessage(event.Src, event.Dest, event.Msg); ok {
			p.availableIDs[unblocked] = struct{}{}
		}
	}
	return event
}
