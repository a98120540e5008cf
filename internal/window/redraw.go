package window

// redrawQueue collects surfaces that asked for a redraw. Requests are kept in
// the order they were made and a surface is queued at most once per flush.
type redrawQueue struct {
	order   []WindowID
	pending map[WindowID]struct{}
}

func (q *redrawQueue) push(id WindowID) {
	if q.pending == nil {
		q.pending = make(map[WindowID]struct{})
	}
	if _, ok := q.pending[id]; ok {
		return
	}
	q.pending[id] = struct{}{}
	q.order = append(q.order, id)
}

// forget drops a queued request, used when the surface goes away.
func (q *redrawQueue) forget(id WindowID) {
	if _, ok := q.pending[id]; !ok {
		return
	}
	delete(q.pending, id)
	for i, queued := range q.order {
		if queued == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// flush emits one RedrawRequested per queued surface and empties the queue.
func (q *redrawQueue) flush(handle func(Event)) {
	order := q.order
	q.order = nil
	q.pending = nil
	for _, id := range order {
		handle(RedrawRequested{Window: id})
	}
}

// idAllocator hands out window ids that are never reused.
type idAllocator struct {
	next WindowID
}

func (a *idAllocator) allocate() WindowID {
	a.next++
	return a.next
}
