package pipeline

// WorkQueue hands each item to exactly one caller. It is filled once at
// construction and never grows.
type WorkQueue struct {
	items chan string
}

// NewWorkQueue returns a queue holding items in order.
func NewWorkQueue(items []string) *WorkQueue {
	ch := make(chan string, len(items))
	for _, item := range items {
		ch <- item
	}
	close(ch)
	return &WorkQueue{items: ch}
}

// Pop returns the next item, or false once the queue is drained. It never blocks.
func (q *WorkQueue) Pop() (string, bool) {
	item, ok := <-q.items
	return item, ok
}

// Len reports how many items remain.
func (q *WorkQueue) Len() int {
	return len(q.items)
}
