package sim

import "container/heap"

// delivery is one scheduled event in the kernel's heap.
// Ordering: deliverAt → insertion sequence (strictly monotonic tie-break).
type delivery struct {
	id        uint64
	deliverAt int64
	seq       uint64
	recipient string
	payload   any
}

// deliveryHeap implements container/heap.Interface over scheduled
// deliveries.
type deliveryHeap []*delivery

func (h deliveryHeap) Len() int { return len(h) }

func (h deliveryHeap) Less(i, j int) bool {
	if h[i].deliverAt != h[j].deliverAt {
		return h[i].deliverAt < h[j].deliverAt
	}
	return h[i].seq < h[j].seq
}

func (h deliveryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *deliveryHeap) Push(x any) {
	*h = append(*h, x.(*delivery))
}

func (h *deliveryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

func (h *deliveryHeap) schedule(d *delivery) {
	heap.Push(h, d)
}

func (h *deliveryHeap) popNext() *delivery {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(*delivery)
}

func (h deliveryHeap) peek() *delivery {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
