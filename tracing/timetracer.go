package tracing

import (
	"sync"

	"github.com/sarchlab/sashba/sim"
)

// TimeTracer measures how long the tasks selected by a filter take.
type TimeTracer struct {
	lock          sync.Mutex
	timeTeller    sim.TimeTeller
	filter        TaskFilter
	inflightTasks map[string]Task

	count     uint64
	totalTime sim.VTimeInSec
	maxTime   sim.VTimeInSec
}

// NewTimeTracer creates a new TimeTracer. A nil filter selects every task.
func NewTimeTracer(timeTeller sim.TimeTeller, filter TaskFilter) *TimeTracer {
	return &TimeTracer{
		timeTeller:    timeTeller,
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}
}

// StartTask records the start time of the task.
func (t *TimeTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	task.StartTime = t.timeTeller.CurrentTime()
	t.inflightTasks[task.ID] = task
}

// StepTask does nothing.
func (t *TimeTracer) StepTask(_ Task) {}

// EndTask accounts the duration of the task.
func (t *TimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	delete(t.inflightTasks, task.ID)

	d := t.timeTeller.CurrentTime() - original.StartTime
	t.count++
	t.totalTime += d

	if d > t.maxTime {
		t.maxTime = d
	}
}

// Count returns the number of finished tasks.
func (t *TimeTracer) Count() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.count
}

// TotalTime returns the summed duration of the finished tasks.
func (t *TimeTracer) TotalTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totalTime
}

// AverageTime returns the average duration of the finished tasks.
func (t *TimeTracer) AverageTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.count == 0 {
		return 0
	}

	return t.totalTime / sim.VTimeInSec(t.count)
}

// MaxTime returns the longest duration of the finished tasks.
func (t *TimeTracer) MaxTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.maxTime
}

// InflightCount returns the number of tasks that started and have not
// ended.
func (t *TimeTracer) InflightCount() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.inflightTasks)
}
