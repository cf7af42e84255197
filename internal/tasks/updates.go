package tasks

import (
	"context"
	"time"
)

// eventPollInterval is the idle sleep between non-blocking queue drains.
const eventPollInterval = 800 * time.Millisecond

// Event is one element of a job's progress stream: either a log line or the
// single terminal done event that ends the stream.
type Event struct {
	Type   string `json:"type"`             // "log" or "done"
	Msg    string `json:"msg,omitempty"`    // log events
	Status string `json:"status,omitempty"` // done events
}

func logEvent(msg string) Event {
	return Event{Type: "log", Msg: msg}
}

func doneEvent(s Status) Event {
	return Event{Type: "done", Status: s.String()}
}

// Events returns a lazy stream of progress events for the identified job.
//
// The stream drains the job's message queue in producer order, sleeping
// briefly between drains, and ends with exactly one done event once the job
// reaches a terminal status. The channel is closed afterwards; the stream is
// not restartable, but a fresh call re-reads only messages queued since the
// previous drain.
func (e *ScoutEngine) Events(ctx context.Context, id string) (<-chan Event, error) {
	job, err := e.Job(id)
	if err != nil {
		return nil, err
	}

	ch := make(chan Event)
	go func() {
		defer close(ch)
		for {
			for _, msg := range job.DrainLog() {
				select {
				case ch <- logEvent(msg):
				case <-ctx.Done():
					return
				}
			}

			if job.Status().Terminal() {
				// One more drain: the worker may have queued its final lines
				// between our drain and the status read.
				for _, msg := range job.DrainLog() {
					select {
					case ch <- logEvent(msg):
					case <-ctx.Done():
						return
					}
				}
				select {
				case ch <- doneEvent(job.Status()):
				case <-ctx.Done():
				}
				return
			}

			select {
			case <-time.After(e.idleWait):
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
