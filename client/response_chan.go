package client

import "sync"

// ChanResponse delivers results produced on another goroutine. The HTTP
// transport sends at most one result through it; onClose is invoked when the
// caller abandons the response, which is how cancellation reaches the
// in-flight attempt.
type ChanResponse struct {
	responseError

	ch      chan OperationResponse
	onClose func() error
	closed  bool

	cor OperationResponse
	m   sync.Mutex
	dc  chan struct{}
}

func NewChanResponse(onClose func() error) *ChanResponse {
	return &ChanResponse{
		ch:      make(chan OperationResponse, 1),
		dc:      make(chan struct{}),
		onClose: onClose,
	}
}

func (r *ChanResponse) Next() bool {
	if r.Err() != nil {
		return false
	}

	or, ok := <-r.ch
	r.cor = or

	return ok
}

func (r *ChanResponse) Get() OperationResponse {
	return r.cor
}

func (r *ChanResponse) Close() {
	if r.onClose != nil {
		if err := r.onClose(); err != nil {
			r.responseError.CloseWithError(err)
		}
	}

	r.CloseCh()
}

func (r *ChanResponse) CloseWithError(err error) {
	r.responseError.CloseWithError(err)
	r.CloseCh()
}

func (r *ChanResponse) CloseCh() {
	r.m.Lock()
	defer r.m.Unlock()

	if r.closed {
		return
	}

	close(r.ch)
	close(r.dc)
	r.closed = true
}

func (r *ChanResponse) Done() <-chan struct{} {
	return r.dc
}

// Send is a no-op once the response has been closed, so a result racing a
// cancellation is dropped instead of panicking on the closed channel.
func (r *ChanResponse) Send(op OperationResponse) {
	r.m.Lock()
	defer r.m.Unlock()

	if r.closed {
		return
	}

	select {
	case r.ch <- op:
	case <-r.dc:
	}
}
