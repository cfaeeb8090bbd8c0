package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Messages Apollo-compatible servers use to report a persisted-query miss.
const (
	errPersistedQueryNotFound     = "PersistedQueryNotFound"
	errPersistedQueryNotSupported = "PersistedQueryNotSupported"
	codePersistedQueryNotFound    = "PERSISTED_QUERY_NOT_FOUND"
)

// HTTP delivers GraphQL operations over HTTP. With
// EnableAutoPersistedQueries a query is first sent as its sha256 hash only;
// when the server does not know the hash, the full document is re-sent once,
// without the caller ever seeing the intermediate miss.
//
// All fields are fixed at construction and must not be mutated afterwards;
// concurrent Sends share nothing but this read-only configuration.
type HTTP struct {
	URL string

	// Client defaults to http.DefaultClient.
	Client *http.Client

	EnableAutoPersistedQueries bool
	UseGETForPersistedQueries  bool

	// HashOperations derives the sha256 identifier from the query document
	// when a Request carries no OperationID. Off by default: a missing
	// identifier is then a configuration error.
	HashOperations bool

	// Headers are set on every request.
	Headers Header

	// Logger defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

func (h *HTTP) logger() logrus.FieldLogger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}

	return h.Logger
}

func (h *HTTP) httpClient() *http.Client {
	if h.Client == nil {
		return http.DefaultClient
	}

	return h.Client
}

// freshClient builds a new client with the same configuration as the shared
// one. The retry uses it so the shared client's per-call state cannot leak
// into the second round trip.
func (h *HTTP) freshClient() *http.Client {
	c := h.httpClient()

	return &http.Client{
		Transport:     c.Transport,
		CheckRedirect: c.CheckRedirect,
		Jar:           c.Jar,
		Timeout:       c.Timeout,
	}
}

// Send issues req and invokes done exactly once with either a response or an
// error, never both. It returns as soon as the first attempt is on the wire;
// done may run on a different goroutine. The returned CancelFunc aborts the
// first attempt only, a persisted-query retry already in flight is not
// cancellable.
func (h *HTTP) Send(req Request, done Completion) (CancelFunc, error) {
	if req.Context == nil {
		req.Context = context.Background()
	}

	persist := h.EnableAutoPersistedQueries && req.Operation == Query
	if persist && req.OperationID == "" && h.HashOperations {
		req.OperationID = hashOperation(req.Query)
	}

	ctx, cancel := context.WithCancel(req.Context)

	first := req
	first.Context = ctx

	useGET := persist && h.UseGETForPersistedQueries

	hreq, err := h.newHTTPRequest(first, !persist, persist, useGET)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer cancel()

		opres, err := h.roundTrip(h.httpClient(), hreq)
		if err != nil {
			done(nil, err)
			return
		}

		if !needsFullQuery(opres.Errors) {
			done(opres, nil)
			return
		}

		h.logger().WithFields(logrus.Fields{
			"operation": req.OperationName,
			"id":        req.OperationID,
		}).Debug("server does not know the persisted query, re-sending full document")

		// Deliberately blocks this goroutine until the retry resolves,
		// so at most one retry ever happens per Send.
		done(h.retry(req))
	}()

	return CancelFunc(cancel), nil
}

// retry re-sends the operation with the full query document as a POST. An
// APQ-eligible query keeps the hash extension so the server registers the
// hash in the same round trip. The retry's own outcome is what the caller
// gets, whatever it is.
func (h *HTTP) retry(req Request) (*OperationResponse, error) {
	persist := h.EnableAutoPersistedQueries && req.Operation == Query

	req.Context = context.Background()

	hreq, err := h.newHTTPRequest(req, true, persist, false)
	if err != nil {
		return nil, err
	}

	return h.roundTrip(h.freshClient(), hreq)
}

func (h *HTTP) roundTrip(c *http.Client, hreq *http.Request) (*OperationResponse, error) {
	res, err := c.Do(hreq)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &ProtocolViolationError{}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	return interpret(res, body)
}

// interpret maps one raw HTTP outcome onto exactly one of response or error.
func interpret(res *http.Response, body []byte) (*OperationResponse, error) {
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Status: res.Status, Body: body}
	}

	if len(body) == 0 {
		return nil, &InvalidResponseError{}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return nil, &InvalidResponseError{Body: body}
	}

	var opres OperationResponse
	if err := json.Unmarshal(body, &opres); err != nil {
		return nil, &InvalidResponseError{Body: body}
	}

	return &opres, nil
}

// needsFullQuery reports whether the server rejected a hash-only attempt.
// The miss is signalled by message; some servers carry the extensions code
// instead, so both are accepted. Any other error belongs to the caller.
func needsFullQuery(errs gqlerror.List) bool {
	for _, err := range errs {
		switch err.Message {
		case errPersistedQueryNotFound, errPersistedQueryNotSupported:
			return true
		}

		if code, ok := err.Extensions["code"]; ok && code == codePersistedQueryNotFound {
			return true
		}
	}

	return false
}

// Request adapts Send to the Transport interface. The returned Response
// resolves at most once; closing it cancels the in-flight first attempt.
func (h *HTTP) Request(req Request) Response {
	var cancel CancelFunc

	res := NewChanResponse(func() error {
		if cancel != nil {
			cancel()
		}

		return nil
	})

	c, err := h.Send(req, func(opres *OperationResponse, err error) {
		if err != nil {
			res.CloseWithError(err)
			return
		}

		res.Send(*opres)
		res.CloseCh()
	})
	if err != nil {
		return NewErrorResponse(err)
	}

	cancel = c

	return res
}
