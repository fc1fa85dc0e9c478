package sandbox

import (
	"container/heap"

	"github.com/dop251/goja"
)

// timer is one pending setTimeout/setInterval callback
type timer struct {
	id       int64
	due      int64 // virtual milliseconds
	seq      int64
	interval int64 // > 0 for setInterval
	fn       goja.Callable
	args     []goja.Value
	index    int
}

// timerQueue orders callbacks by due time, then by registration order. Time
// is virtual: draining jumps straight to the next due callback.
type timerQueue struct {
	items  []*timer
	byID   map[int64]*timer
	now    int64
	nextID int64
	seq    int64
}

func newTimerQueue() *timerQueue {
	return &timerQueue{byID: make(map[int64]*timer)}
}

func (q *timerQueue) Len() int { return len(q.items) }

func (q *timerQueue) Less(i, j int) bool {
	if q.items[i].due != q.items[j].due {
		return q.items[i].due < q.items[j].due
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *timerQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*timer)
	t.index = len(q.items)
	q.items = append(q.items, t)
}

func (q *timerQueue) Pop() any {
	old := q.items
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	t.index = -1
	return t
}

// schedule registers fn and returns the timer id handed back to the page
func (q *timerQueue) schedule(fn goja.Callable, delay int64, repeat bool, args []goja.Value) int64 {
	if delay < 0 {
		delay = 0
	}
	q.nextID++
	t := &timer{
		id:   q.nextID,
		fn:   fn,
		args: args,
	}
	if repeat {
		// browsers clamp intervals to at least 1ms
		t.interval = max(delay, 1)
	}
	q.enqueue(t, delay)
	return t.id
}

func (q *timerQueue) enqueue(t *timer, delay int64) {
	q.seq++
	t.due = q.now + delay
	t.seq = q.seq
	q.byID[t.id] = t
	heap.Push(q, t)
}

// cancel removes a pending timer; unknown ids are ignored
func (q *timerQueue) cancel(id int64) {
	t, ok := q.byID[id]
	if !ok {
		return
	}
	delete(q.byID, id)
	if t.index >= 0 {
		heap.Remove(q, t.index)
	}
}

// next pops the earliest timer and advances the virtual clock to it
func (q *timerQueue) next() (*timer, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	t := heap.Pop(q).(*timer)
	q.now = t.due
	if t.interval > 0 {
		q.enqueue(t, t.interval)
	} else {
		delete(q.byID, t.id)
	}
	return t, true
}
