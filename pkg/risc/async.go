package risc

import "fmt"

// Outcome is the single result of an asynchronous call.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Async runs fn on its own goroutine and delivers exactly one Outcome on the
// returned channel, which is then closed. A panic in fn is delivered as an
// error.
//
//	ch := risc.Async(func() (risc.Result, error) {
//		return client.GetUser(ctx, "u-1")
//	})
func Async[T any](fn func() (T, error)) <-chan Outcome[T] {
	ch := make(chan Outcome[T], 1)
	go func() {
		defer close(ch)
		defer func() {
			if r := recover(); r != nil {
				ch <- Outcome[T]{Err: fmt.Errorf("risc: operation panicked: %v", r)}
			}
		}()
		v, err := fn()
		ch <- Outcome[T]{Value: v, Err: err}
	}()
	return ch
}
