package tracing

// A Tracer collects tasks. EndTask and StepTask only carry the task ID and
// the new information; tracers remember what StartTask told them.
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)
}
