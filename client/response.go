package client

import "sync"

// Response is the handle returned for an in-flight operation. Next blocks
// until a result arrives or the response is closed; closing an HTTP response
// cancels the first attempt if it has not resolved yet.
type Response interface {
	Next() bool
	Get() OperationResponse
	Close()
	CloseWithError(err error)
	Err() error
	Done() <-chan struct{}
}

type responseError struct {
	err error
	m   sync.Mutex
}

// CloseWithError records the terminal error. The first error wins, later
// calls are ignored so a response settles exactly once.
func (r *responseError) CloseWithError(err error) {
	if err == nil {
		panic("CloseWithError: err must be non-nil")
	}

	r.m.Lock()
	defer r.m.Unlock()

	if r.err != nil {
		return
	}

	r.err = err
}

func (r *responseError) Err() error {
	r.m.Lock()
	defer r.m.Unlock()

	return r.err
}
