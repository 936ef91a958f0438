package domain

// EventKind enumerates the kinds of progress notification delivered to subscribers.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventComplete EventKind = "complete"
	EventError    EventKind = "error"
)

// ProgressEvent carries a post-transition snapshot of one job's state.
type ProgressEvent struct {
	JobID    string
	Kind     EventKind
	Progress Progress
	Result   *Result
	Error    string
}

// EventFromJob derives the event a store mutation should publish for the job's
// current state. Terminal transitions carry Complete/Error; everything else is Progress.
func EventFromJob(j Job) ProgressEvent {
	evt := ProgressEvent{
		JobID:    j.ID,
		Progress: j.Progress.Clone(),
	}
	switch j.Status {
	case StatusCompleted:
		evt.Kind = EventComplete
		if j.Result != nil {
			r := j.Result.Clone()
			evt.Result = &r
		}
	case StatusFailed:
		evt.Kind = EventError
		evt.Error = j.Error
	default:
		evt.Kind = EventProgress
	}
	return evt
}
