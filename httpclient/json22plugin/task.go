package json22plugin

import "context"

// Task is the pending result of a streaming decode.
type Task struct {
	done  chan struct{}
	value any
	text  string
	err   error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// complete resolves the task. It must be called exactly once.
func (t *Task) complete(value any, text string, err error) {
	t.value, t.text, t.err = value, text, err
	close(t.done)
}

// Done is closed once the task has resolved.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task resolves or ctx is done. Giving up on ctx does
// not stop the decode; the transport's own cancellation does.
func (t *Task) Wait(ctx context.Context) (any, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Then calls fn with the result once the task resolves. fn runs on its own
// goroutine.
func (t *Task) Then(fn func(value any, err error)) {
	go func() {
		<-t.done
		fn(t.value, t.err)
	}()
}

// Text returns the decoded body text, or "" while pending or after a failure.
func (t *Task) Text() string {
	select {
	case <-t.done:
		if t.err != nil {
			return ""
		}
		return t.text
	default:
		return ""
	}
}
