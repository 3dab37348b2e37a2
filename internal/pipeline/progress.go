package pipeline

import "sync/atomic"

// Progress counts finished items. Counters only grow.
type Progress struct {
	total     int
	completed atomic.Int64
	failed    atomic.Int64
}

// Snapshot is a point-in-time view of Progress.
type Snapshot struct {
	Total     int
	Completed int
	Failed    int
}

// NewProgress tracks total items.
func NewProgress(total int) *Progress {
	return &Progress{total: total}
}

// Complete records a success and returns the updated counts.
func (p *Progress) Complete() Snapshot {
	p.completed.Add(1)
	return p.Snapshot()
}

// Fail records a failure and returns the updated counts.
func (p *Progress) Fail() Snapshot {
	p.failed.Add(1)
	return p.Snapshot()
}

func (p *Progress) Snapshot() Snapshot {
	return Snapshot{
		Total:     p.total,
		Completed: int(p.completed.Load()),
		Failed:    int(p.failed.Load()),
	}
}

// Done returns completed plus failed.
func (s Snapshot) Done() int {
	return s.Completed + s.Failed
}

// Percent returns the share of finished items, 100 for an empty batch.
func (s Snapshot) Percent() float64 {
	if s.Total <= 0 {
		return 100
	}
	return float64(s.Done()) * 100 / float64(s.Total)
}
